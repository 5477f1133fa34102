// Package enuminfo builds and caches the sorted name/value table of enum types.
//
// Values are kept as unsigned bit patterns masked to the underlying width and
// sorted by that pattern, so a signed -1 orders after every non-negative
// value. The sort is stable: aliases keep their declaration order.
package enuminfo

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Table is the sorted value table of one enum type. It is immutable.
type Table struct {
	Type       *metadata.Type
	Underlying *metadata.Type
	Names      []string
	Values     []uint64
	IsFlags    bool
	bits       int
}

// Cache computes tables on demand and publishes them on the enum type.
type Cache struct {
	env env.ExecutionEnvironment
}

// New creates a cache reading raw enum data from e.
func New(e env.ExecutionEnvironment) *Cache {
	return &Cache{env: e}
}

// Table returns the value table of enum type t, computing it on first use.
func (c *Cache) Table(t *metadata.Type) (*Table, error) {
	if t == nil {
		return nil, errors.NilArgument(errors.PhaseEnum, "type")
	}
	if cached, ok := metadata.LoadCached[Table](t, metadata.CacheEnumTable); ok {
		return cached, nil
	}
	if !t.IsEnum() {
		return nil, errors.InvalidArgument(errors.PhaseEnum, "type", t.FullName()+" is not an enum type")
	}

	raw, ok := c.env.GetEnumRawData(t.Handle)
	if !ok {
		return nil, errors.NotFound(errors.PhaseEnum, "enum data for", t.FullName())
	}
	if len(raw.Names) != len(raw.Values) {
		return nil, errors.InvalidData(errors.PhaseEnum, []string{t.FullName()},
			"enum data has "+strconv.Itoa(len(raw.Names))+" names and "+strconv.Itoa(len(raw.Values))+" values")
	}

	table, err := build(t, raw)
	if err != nil {
		return nil, err
	}
	published := metadata.PublishCached(t, metadata.CacheEnumTable, table)
	if published == table {
		Logger().Debug("published enum table",
			zap.String("type", t.FullName()),
			zap.Int("values", len(table.Values)))
	}
	return published, nil
}

type entry struct {
	name  string
	value uint64
}

func build(t *metadata.Type, raw env.EnumRawData) (*Table, error) {
	bits := underlyingBits(t)
	if bits == 0 {
		return nil, errors.InvalidData(errors.PhaseEnum, []string{t.FullName()},
			"underlying type is not integral")
	}
	mask := ^uint64(0)
	if bits < 64 {
		mask = 1<<bits - 1
	}

	entries := make([]entry, len(raw.Names))
	for i := range raw.Names {
		entries[i] = entry{name: raw.Names[i], value: raw.Values[i] & mask}
	}
	slices.SortStableFunc(entries, func(a, b entry) int {
		return cmp.Compare(a.value, b.value)
	})

	table := &Table{
		Type:       t,
		Underlying: t.Underlying,
		Names:      make([]string, len(entries)),
		Values:     make([]uint64, len(entries)),
		IsFlags:    raw.IsFlags,
		bits:       bits,
	}
	for i, e := range entries {
		table.Names[i] = e.name
		table.Values[i] = e.value
	}
	return table, nil
}

func underlyingBits(t *metadata.Type) int {
	if t.Underlying != nil {
		if bits := t.Underlying.Element.Bits(); bits > 0 {
			return bits
		}
	}
	return t.Element.Bits()
}

// Bits returns the width of the underlying type.
func (t *Table) Bits() int { return t.bits }

// Signed reports whether the underlying type is signed.
func (t *Table) Signed() bool {
	return t.Underlying != nil && t.Underlying.Element.Signed()
}

// Name returns the first declared name for v.
func (t *Table) Name(v uint64) (string, bool) {
	i, ok := slices.BinarySearch(t.Values, v)
	if !ok {
		return "", false
	}
	return t.Names[i], true
}

// Value returns the value of a name.
func (t *Table) Value(name string, ignoreCase bool) (uint64, bool) {
	for i, n := range t.Names {
		if n == name || ignoreCase && strings.EqualFold(n, name) {
			return t.Values[i], true
		}
	}
	return 0, false
}

// SignedValue converts a raw value to its signed interpretation.
func (t *Table) SignedValue(v uint64) int64 {
	if t.bits == 64 {
		return int64(v)
	}
	shift := 64 - t.bits
	return int64(v<<shift) >> shift
}

// Format renders v as a name. Flags enums decompose v into named values,
// listed in ascending order. A value with no matching name renders as a
// number.
func (t *Table) Format(v uint64) string {
	if name, ok := t.Name(v); ok {
		return name
	}
	if t.IsFlags && v != 0 {
		if s, ok := t.formatFlags(v); ok {
			return s
		}
	}
	if t.Signed() {
		return strconv.FormatInt(t.SignedValue(v), 10)
	}
	return strconv.FormatUint(v, 10)
}

func (t *Table) formatFlags(v uint64) (string, bool) {
	remaining := v
	var picked []int
	for i := len(t.Values) - 1; i >= 0 && remaining != 0; i-- {
		fv := t.Values[i]
		if fv == 0 || fv&remaining != fv {
			continue
		}
		// aliases resolve to the first declared name
		if i > 0 && t.Values[i-1] == fv {
			continue
		}
		picked = append(picked, i)
		remaining &^= fv
	}
	if remaining != 0 {
		return "", false
	}
	names := make([]string, len(picked))
	for i, idx := range picked {
		names[len(picked)-1-i] = t.Names[idx]
	}
	return strings.Join(names, ", "), true
}
