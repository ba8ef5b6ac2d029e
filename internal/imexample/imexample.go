// Package imexample is the example consumer interop module: a stand-in
// for a C-language IM. It implements slave.Handler by scanning a
// directory of ".c" sources for a single annotation comment marking an
// exported function, registering one FnSig per annotated export, and
// compiling each needed source by shelling out to a configured C
// compiler, hashing its path with internal/fiphash to name the object.
// The annotation syntax and compiler flags are this package's own
// concern as a consumer, not FIP's protocol surface.
package imexample

import (
	"bufio"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/flint-lang/fip/internal/fipcache"
	"github.com/flint-lang/fip/internal/fiphash"
	"github.com/flint-lang/fip/pkg/fiplog"
	"github.com/flint-lang/fip/pkg/fipmsg"
	"github.com/flint-lang/fip/pkg/fipsig"
	"github.com/flint-lang/fip/pkg/fiptype"
)

// exportAnnotation marks a C function as an exported symbol, optionally
// tagged: "// @fip export [tag]\n<return-type> name(args...);"
var exportAnnotation = regexp.MustCompile(`^//\s*@fip\s+export(?:\s+(\S+))?\s*$`)

// declRe captures a minimal C prototype: a single-word primitive return
// type, name, and raw argument list. This is intentionally narrow: the
// example module only needs enough of a C grammar to exercise the
// protocol, not a real C parser.
var declRe = regexp.MustCompile(`^\s*(\w+)\s+(\w+)\s*\(([^)]*)\)\s*;?\s*$`)

// Config is imexample's own TOML-decoded configuration; its schema is
// module-defined, not part of the protocol.
type Config struct {
	SourceDir string `toml:"source_dir"`
	Compiler  string `toml:"compiler"`
	CacheDir  string `toml:"cache_dir"`
}

type export struct {
	fn  fipsig.FnSig
	tag string
}

// Module implements slave.Handler for the C stand-in.
type Module struct {
	cfg     Config
	log     *fiplog.Logger
	cache   *fipcache.Index
	exports []export

	compiled map[string]bool
}

// New returns a Module that will scan cfg.SourceDir on Setup.
func New(cfg Config, log *fiplog.Logger, cache *fipcache.Index) *Module {
	return &Module{cfg: cfg, log: log, cache: cache, compiled: make(map[string]bool)}
}

// ModuleName implements slave.Handler.
func (m *Module) ModuleName() string { return "fip-c" }

// Setup scans every ".c" file under cfg.SourceDir for annotated
// exports.
func (m *Module) Setup() bool {
	if m.cfg.SourceDir == "" {
		if m.log != nil {
			m.log.Error("imexample: no source_dir configured")
		}
		return false
	}

	entries, err := os.ReadDir(m.cfg.SourceDir)
	if err != nil {
		if m.log != nil {
			m.log.Error("imexample: reading %s: %v", m.cfg.SourceDir, err)
		}
		return false
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".c") {
			continue
		}
		path := filepath.Join(m.cfg.SourceDir, e.Name())
		if err := m.scanFile(path); err != nil {
			if m.log != nil {
				m.log.Error("imexample: scanning %s: %v", path, err)
			}
			return false
		}
	}

	if m.log != nil {
		m.log.Info("imexample: registered %d export(s) from %s", len(m.exports), m.cfg.SourceDir)
	}
	return true
}

// scanFile reads path line by line, remembering the tag (if any) from
// the most recently seen "// @fip export [tag]" annotation and
// attaching it to the very next C prototype line.
func (m *Module) scanFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	annotated := false
	pendingTag := ""
	for sc.Scan() {
		line := sc.Text()

		if g := exportAnnotation.FindStringSubmatch(line); g != nil {
			annotated = true
			pendingTag = g[1]
			continue
		}
		if !annotated {
			continue
		}
		if g := declRe.FindStringSubmatch(line); g != nil {
			m.exports = append(m.exports, export{
				fn:  buildFnSig(g[2], g[1], g[3]),
				tag: pendingTag,
			})
			annotated = false
			pendingTag = ""
		}
	}
	return sc.Err()
}

func buildFnSig(name, cReturnType, cArgs string) fipsig.FnSig {
	fn := fipsig.FnSig{Name: name}
	if t := cTypeToFip(cReturnType); t != nil {
		fn.Rets = []*fiptype.Type{t}
	}
	cArgs = strings.TrimSpace(cArgs)
	if cArgs != "" && cArgs != "void" {
		for _, a := range strings.Split(cArgs, ",") {
			fields := strings.Fields(strings.TrimSpace(a))
			if len(fields) == 0 {
				continue
			}
			mutable := !strings.Contains(a, "const")
			typeTok := fields[0]
			if typeTok == "const" && len(fields) > 1 {
				typeTok = fields[1]
			}
			if t := cTypeToFip(typeTok); t != nil {
				t.IsMutable = mutable
				fn.Args = append(fn.Args, t)
			}
		}
	}
	return fn
}

var cPrimitives = map[string]fiptype.PrimitiveKind{
	"void": fiptype.Void, "uint8_t": fiptype.U8, "uint16_t": fiptype.U16,
	"uint32_t": fiptype.U32, "uint64_t": fiptype.U64,
	"int8_t": fiptype.I8, "int16_t": fiptype.I16, "int32_t": fiptype.I32, "int64_t": fiptype.I64,
	"float": fiptype.F32, "double": fiptype.F64, "bool": fiptype.Bool, "char": fiptype.Str,
	"int": fiptype.I32,
}

func cTypeToFip(c string) *fiptype.Type {
	c = strings.TrimSuffix(strings.TrimSpace(c), "*")
	if k, ok := cPrimitives[c]; ok {
		return fiptype.NewPrimitive(k, true)
	}
	return nil
}

// FindSymbol implements slave.Handler by fingerprint-matching against
// the registered exports.
func (m *Module) FindSymbol(sym fipmsg.Symbol) bool {
	if sym.Type != fipmsg.SymFunction || sym.Fn == nil {
		return false
	}
	for _, e := range m.exports {
		if e.fn.Equal(sym.Fn) {
			return true
		}
	}
	return false
}

// HasTag implements slave.Handler.
func (m *Module) HasTag(tag string) bool {
	for _, e := range m.exports {
		if e.tag == tag {
			return true
		}
	}
	return false
}

// SymbolsForTag implements slave.Handler.
func (m *Module) SymbolsForTag(tag string) []fipmsg.Symbol {
	var out []fipmsg.Symbol
	for _, e := range m.exports {
		if e.tag == tag {
			fn := e.fn
			out = append(out, fipmsg.Symbol{Type: fipmsg.SymFunction, Fn: &fn})
		}
	}
	return out
}

// Compile implements slave.Handler: for every ".c" file directly under
// cfg.SourceDir not already compiled, whether or not it holds an
// annotated export, it invokes the configured C compiler, hashes the
// source path via internal/fiphash to name the cached object, and
// records the hash in the cache index.
func (m *Module) Compile(target fipmsg.Target) (paths []string, failed bool) {
	sources, err := filepath.Glob(filepath.Join(m.cfg.SourceDir, "*.c"))
	if err != nil {
		return nil, true
	}

	for _, src := range sources {
		hash := fiphash.Create(src)
		if m.compiled[hash] {
			paths = append(paths, hash)
			continue
		}

		objPath := fipcache.ObjectPath(m.cfg.CacheDir, hash)
		compiler := m.cfg.Compiler
		if compiler == "" {
			compiler = "cc"
		}

		cmd := exec.Command(compiler, "-c", src, "-o", objPath,
			"--target="+target.Arch+"-"+target.Vendor+"-"+target.Sys+"-"+target.ABI)
		if err := cmd.Run(); err != nil {
			if m.log != nil {
				m.log.Error("imexample: compiling %s for %s: %v", src, target.Arch, err)
			}
			failed = true
			continue
		}

		m.compiled[hash] = true
		if m.cache != nil {
			_ = m.cache.Record(hash, m.ModuleName())
		}
		paths = append(paths, hash)
	}

	return paths, failed
}
