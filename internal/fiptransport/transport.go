// Package fiptransport is the FIP length-prefixed byte stream:
// write-exact, read-exact-with-validation, and a non-blocking stderr
// drain, all operating directly on a child process's stdio pipes. The
// transport holds no state of its own beyond the handles it is given.
package fiptransport

import (
	"encoding/binary"
	"errors"
	"io"
	"time"

	"github.com/flint-lang/fip/pkg/fipwire"
)

// ErrFrame is returned when a length header is out of the legal
// 1..FIP_MSG_SIZE-4 range.
var ErrFrame = errors.New("fiptransport: invalid frame length")

// flusher is implemented by buffered writers; WriteMessage flushes
// when the underlying writer supports it.
type flusher interface {
	Flush() error
}

// WriteMessage writes frame (a complete length-prefixed frame, such as
// one produced by fipmsg.Encode) in full, flushing afterward if w
// buffers its writes.
func WriteMessage(w io.Writer, frame []byte) error {
	if len(frame) < fipwire.LengthPrefixSize+1 || len(frame) > fipwire.MsgSize {
		return ErrFrame
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// ReadFrame reads exactly one frame from r: the 4-byte length header,
// validated against 1 <= L <= FIP_MSG_SIZE-4, then exactly L payload
// bytes. A short read after a valid header is a protocol error, not a
// recoverable condition. io.EOF is returned verbatim
// when the stream closes cleanly between frames.
func ReadFrame(r io.Reader) ([]byte, error) {
	var hdr [fipwire.LengthPrefixSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, err
	}

	l := binary.LittleEndian.Uint32(hdr[:])
	if l < 1 || int(l) > fipwire.MaxPayload {
		return nil, ErrFrame
	}

	frame := make([]byte, fipwire.LengthPrefixSize+int(l))
	copy(frame, hdr[:])
	if _, err := io.ReadFull(r, frame[fipwire.LengthPrefixSize:]); err != nil {
		return nil, io.ErrUnexpectedEOF
	}
	return frame, nil
}

// deadlineReader is satisfied by the pipe ends exec.Cmd hands back
// (os.File under the hood), letting DrainStderr bound its read without
// blocking the caller.
type deadlineReader interface {
	io.Reader
	SetReadDeadline(time.Time) error
}

// DrainStderr pulls whatever bytes are currently available on r,
// copying them as-is to sink, with no framing applied. If r doesn't
// support a read deadline, DrainStderr is a
// no-op: there is nothing safe to do but skip the drain for that round.
func DrainStderr(r io.Reader, sink io.Writer) {
	dr, ok := r.(deadlineReader)
	if !ok {
		return
	}

	_ = dr.SetReadDeadline(time.Now().Add(time.Millisecond))
	defer dr.SetReadDeadline(time.Time{})

	buf := make([]byte, 4096)
	for {
		n, err := dr.Read(buf)
		if n > 0 {
			sink.Write(buf[:n])
		}
		if err != nil {
			return
		}
	}
}
