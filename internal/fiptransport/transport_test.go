package fiptransport

import (
	"bytes"
	"io"
	"net"
	"testing"
	"time"

	"github.com/flint-lang/fip/pkg/fipwire"
)

func sampleFrame(t *testing.T) []byte {
	t.Helper()
	w := fipwire.NewWriter()
	if err := w.U8(42); err != nil {
		t.Fatal(err)
	}
	frame, err := w.Finish()
	if err != nil {
		t.Fatal(err)
	}
	return frame
}

func TestWriteReadFrameRoundTrip(t *testing.T) {
	frame := sampleFrame(t)

	var buf bytes.Buffer
	if err := WriteMessage(&buf, frame); err != nil {
		t.Fatalf("WriteMessage: %v", err)
	}

	got, err := ReadFrame(&buf)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, frame) {
		t.Fatalf("ReadFrame = %v, want %v", got, frame)
	}
}

func TestWriteMessageRejectsOversizedFrame(t *testing.T) {
	oversized := make([]byte, fipwire.MsgSize+1)
	var buf bytes.Buffer
	if err := WriteMessage(&buf, oversized); err != ErrFrame {
		t.Fatalf("WriteMessage with oversized frame: got %v, want ErrFrame", err)
	}
}

func TestReadFrameRejectsInvalidLength(t *testing.T) {
	var hdr [4]byte
	hdr[0] = 0 // L == 0 is out of the legal 1..MaxPayload range
	buf := bytes.NewBuffer(hdr[:])
	if _, err := ReadFrame(buf); err != ErrFrame {
		t.Fatalf("ReadFrame with L=0: got %v, want ErrFrame", err)
	}
}

func TestReadFrameReturnsEOFOnCleanClose(t *testing.T) {
	buf := &bytes.Buffer{}
	if _, err := ReadFrame(buf); err != io.EOF {
		t.Fatalf("ReadFrame on empty stream: got %v, want io.EOF", err)
	}
}

func TestReadFrameShortPayloadIsUnexpectedEOF(t *testing.T) {
	frame := sampleFrame(t)
	truncated := frame[:len(frame)-1]
	buf := bytes.NewBuffer(truncated)
	if _, err := ReadFrame(buf); err != io.ErrUnexpectedEOF {
		t.Fatalf("ReadFrame on truncated frame: got %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestDrainStderrCopiesAvailableBytes(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()

	written := []byte("compiler warning: unused variable\n")
	go func() {
		clientConn.SetWriteDeadline(time.Now().Add(time.Second))
		clientConn.Write(written)
	}()

	// Give the writer goroutine a moment to land its write before the
	// drain's own short deadline starts counting down.
	time.Sleep(20 * time.Millisecond)

	var sink bytes.Buffer
	DrainStderr(serverConn, &sink)

	if sink.Len() == 0 {
		t.Fatal("DrainStderr copied no bytes from a ready reader")
	}
}

func TestDrainStderrNoOpOnNonDeadlineReader(t *testing.T) {
	var sink bytes.Buffer
	DrainStderr(bytes.NewBufferString("hello"), &sink)
	if sink.Len() != 0 {
		t.Fatalf("DrainStderr on a non-deadline reader should be a no-op, copied %d bytes", sink.Len())
	}
}
