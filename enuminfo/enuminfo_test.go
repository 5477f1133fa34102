package enuminfo

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"github.com/wippyai/reflect-runtime/env"
	rerrors "github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/internal/fixture"
	"github.com/wippyai/reflect-runtime/metadata"
)

func TestTableOrdering(t *testing.T) {
	f := fixture.New(t)
	c := New(f.Env)

	tests := []struct {
		name       string
		typ        *metadata.Type
		wantNames  []string
		wantValues []uint64
	}{
		{"int32", f.Order, []string{"B", "C", "A"}, []uint64{1, 2, 3}},
		{"signed byte", f.Small, []string{"Zero", "Max", "Neg"}, []uint64{0, 127, 255}},
		{"aliases keep declaration order", f.Alias, []string{"Zero", "First", "Primary", "Second"}, []uint64{0, 1, 1, 2}},
		{"flags", f.Perms, []string{"None", "Read", "Write", "Exec", "All"}, []uint64{0, 1, 2, 4, 7}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			table, err := c.Table(tc.typ)
			if err != nil {
				t.Fatalf("Table: %v", err)
			}
			if !slices.Equal(table.Names, tc.wantNames) {
				t.Errorf("names: got %v, want %v", table.Names, tc.wantNames)
			}
			if !slices.Equal(table.Values, tc.wantValues) {
				t.Errorf("values: got %v, want %v", table.Values, tc.wantValues)
			}
		})
	}
}

func TestTableIsComputedOnce(t *testing.T) {
	f := fixture.New(t)
	counting := &countingEnv{Memory: f.Env}
	c := New(counting)

	const workers = 16
	results := make([]*Table, workers)
	var wg sync.WaitGroup
	for i := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i], _ = c.Table(f.Order)
		}()
	}
	wg.Wait()

	for i, r := range results {
		if r == nil || r != results[0] {
			t.Fatalf("worker %d: got a different table", i)
		}
	}

	before := counting.calls()
	again, _ := New(counting).Table(f.Order)
	if again != results[0] {
		t.Error("a second cache should find the table published on the type")
	}
	if counting.calls() != before {
		t.Error("published table must not be recomputed")
	}
}

func TestTableErrors(t *testing.T) {
	f := fixture.New(t)
	c := New(f.Env)

	if _, err := c.Table(f.Base); !errors.Is(err, rerrors.ErrInvalidArgument) {
		t.Errorf("class: got %v", err)
	}
	if _, err := c.Table(nil); !errors.Is(err, rerrors.ErrInvalidArgument) {
		t.Errorf("nil: got %v", err)
	}

	b := env.NewBuilder()
	bare := b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Bare", Kind: metadata.KindEnum})
	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	_, err = New(m).Table(bare)
	if !errors.Is(err, &rerrors.Error{Phase: rerrors.PhaseEnum, Kind: rerrors.KindNotFound}) {
		t.Errorf("missing raw data: got %v", err)
	}
}

func TestLookupAndFormat(t *testing.T) {
	f := fixture.New(t)
	c := New(f.Env)

	perms, err := c.Table(f.Perms)
	if err != nil {
		t.Fatal(err)
	}
	small, err := c.Table(f.Small)
	if err != nil {
		t.Fatal(err)
	}
	alias, err := c.Table(f.Alias)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		table *Table
		value uint64
		want  string
	}{
		{"exact flag", perms, 2, "Write"},
		{"combined name", perms, 7, "All"},
		{"decomposed", perms, 3, "Read, Write"},
		{"decomposed three", perms, 6, "Write, Exec"},
		{"zero flag", perms, 0, "None"},
		{"unknown bit", perms, 8, "8"},
		{"signed name", small, 255, "Neg"},
		{"signed number", small, 0xfe, "-2"},
		{"first alias", alias, 1, "First"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.table.Format(tc.value); got != tc.want {
				t.Errorf("Format(%d): got %q, want %q", tc.value, got, tc.want)
			}
		})
	}

	if v, ok := perms.Value("exec", true); !ok || v != 4 {
		t.Errorf("Value(exec): got %d, %v", v, ok)
	}
	if _, ok := perms.Value("exec", false); ok {
		t.Error("case-sensitive lookup should miss")
	}
	if got := small.SignedValue(255); got != -1 {
		t.Errorf("SignedValue(255): got %d, want -1", got)
	}
	if small.Bits() != 8 || !small.Signed() || perms.Signed() {
		t.Error("underlying width or signedness wrong")
	}
}

// countingEnv counts raw data fetches.
type countingEnv struct {
	*env.Memory
	mu sync.Mutex
	n  int
}

func (e *countingEnv) GetEnumRawData(h metadata.TypeHandle) (env.EnumRawData, bool) {
	e.mu.Lock()
	e.n++
	e.mu.Unlock()
	return e.Memory.GetEnumRawData(h)
}

func (e *countingEnv) calls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.n
}
