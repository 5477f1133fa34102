package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	rerrors "github.com/wippyai/reflect-runtime/errors"
)

const demoImage = "../../image/testdata/demo.yaml"

func loadDemo(t *testing.T) *session {
	t.Helper()
	s, err := load(defaultConfig(), demoImage, "")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reflect.toml")
	data := `
[log]
level = "debug"
development = true

[runtime]
static-search-ancestors = false

[wit]
namespace = "Wasi.Http"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Development {
		t.Errorf("log: got %+v", cfg.Log)
	}
	if cfg.WIT.Namespace != "Wasi.Http" {
		t.Errorf("namespace: got %q, want %q", cfg.WIT.Namespace, "Wasi.Http")
	}
	if cfg.RuntimeOptions().StaticSearchAncestors {
		t.Error("static-search-ancestors: got true, want false")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Log.Level != "warn" || cfg.WIT.Namespace != "Wit" {
		t.Errorf("defaults: got %+v", cfg)
	}
	if !cfg.RuntimeOptions().StaticSearchAncestors {
		t.Error("static-search-ancestors should default to true")
	}

	if _, err := loadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Error("explicit missing config should fail")
	}
}

func TestLoadConfigBadSyntax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reflect.toml")
	if err := os.WriteFile(path, []byte("[log\nlevel = 1"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := loadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "parse error in reflect.toml") {
		t.Errorf("got %v", err)
	}
}

func TestNewLoggerLevel(t *testing.T) {
	if _, err := newLogger(LogConfig{Level: "loud"}); err == nil {
		t.Error("unknown level should fail")
	}
	logger, err := newLogger(LogConfig{Level: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(-1) {
		t.Error("debug should be disabled at error level")
	}
}

func TestSessionTypedRef(t *testing.T) {
	s := loadDemo(t)

	tests := []struct {
		spec   string
		typ    string
		offset int
		chain  int
	}{
		{"Demo.Outer:inner", "Demo.Inner", 8, 1},
		{"Demo.Outer:inner.point", "Demo.Point", 12, 2},
		{"Demo.Outer:inner.point.Y", "System.Int32", 16, 3},
		{"Demo.Derived:tag", "System.Int32", 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			ref, chain, err := s.typedRef(tc.spec)
			if err != nil {
				t.Fatal(err)
			}
			if ref.Type.FullName() != tc.typ {
				t.Errorf("type: got %s, want %s", ref.Type.FullName(), tc.typ)
			}
			if ref.Offset != tc.offset {
				t.Errorf("offset: got %d, want %d", ref.Offset, tc.offset)
			}
			if len(chain) != tc.chain {
				t.Errorf("chain: got %d fields, want %d", len(chain), tc.chain)
			}
		})
	}
}

func TestSessionTypedRefErrors(t *testing.T) {
	s := loadDemo(t)

	tests := []struct {
		spec string
		want error
	}{
		{"Demo.Nope:x", rerrors.ErrNotFound},
		{"Demo.Outer:missing", rerrors.ErrNotFound},
		{"Demo.Outer:id.x", rerrors.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.spec, func(t *testing.T) {
			if _, _, err := s.typedRef(tc.spec); !errors.Is(err, tc.want) {
				t.Errorf("got %v, want %v", err, tc.want)
			}
		})
	}

	if _, _, err := s.typedRef("Demo.Outer"); err == nil {
		t.Error("spec without fields should fail")
	}
}

func TestSessionDescribe(t *testing.T) {
	s := loadDemo(t)

	perms, ok := s.mem.LookupType("Demo.Perms")
	if !ok {
		t.Fatal("Demo.Perms not found")
	}
	text := strings.Join(s.describe(perms), "\n")
	for _, want := range []string{"Demo.Perms", "flags (System.Byte)", "Write"} {
		if !strings.Contains(text, want) {
			t.Errorf("describe Demo.Perms: missing %q in\n%s", want, text)
		}
	}

	for _, typ := range s.userTypes(false) {
		if typ.Namespace == "System" {
			t.Errorf("userTypes(false) returned %s", typ.FullName())
		}
	}
	if len(s.userTypes(true)) <= len(s.userTypes(false)) {
		t.Error("userTypes(true) should include System types")
	}
}

func TestSessionHandles(t *testing.T) {
	s := loadDemo(t)
	text := strings.Join(s.describeHandles(), "\n")

	for _, want := range []string{"compute", "box-get-shared", "needs a declaring type", "base-tag"} {
		if !strings.Contains(text, want) {
			t.Errorf("handles: missing %q in\n%s", want, text)
		}
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := load(defaultConfig(), "", filepath.Join(t.TempDir(), "none.json")); err == nil {
		t.Error("missing WIT file should fail")
	}
}
