package metadata

import (
	"fmt"
	"strconv"
	"strings"
)

// TypeHandle is an opaque, value-comparable token identifying a type.
// The zero handle is invalid.
type TypeHandle struct {
	value uint64
}

// MethodHandle is an opaque, value-comparable token identifying a method.
type MethodHandle struct {
	value uint64
}

// FieldHandle is an opaque, value-comparable token identifying a field.
type FieldHandle struct {
	value uint64
}

func NewTypeHandle(v uint64) TypeHandle     { return TypeHandle{value: v} }
func NewMethodHandle(v uint64) MethodHandle { return MethodHandle{value: v} }
func NewFieldHandle(v uint64) FieldHandle   { return FieldHandle{value: v} }

func (h TypeHandle) Value() uint64   { return h.value }
func (h MethodHandle) Value() uint64 { return h.value }
func (h FieldHandle) Value() uint64  { return h.value }

func (h TypeHandle) IsNil() bool   { return h.value == 0 }
func (h MethodHandle) IsNil() bool { return h.value == 0 }
func (h FieldHandle) IsNil() bool  { return h.value == 0 }

func (h TypeHandle) String() string   { return "type#" + strconv.FormatUint(h.value, 10) }
func (h MethodHandle) String() string { return "method#" + strconv.FormatUint(h.value, 10) }
func (h FieldHandle) String() string  { return "field#" + strconv.FormatUint(h.value, 10) }

// Token identifies a definition row in the metadata of its defining type.
// The high byte is the table tag, the low 24 bits the row.
type Token uint32

const (
	TableType   uint8 = 0x02
	TableField  uint8 = 0x04
	TableMethod uint8 = 0x06
)

const rowMask = 0x00FFFFFF

// MakeToken builds a token from a table tag and a row number.
func MakeToken(table uint8, row uint32) Token {
	return Token(uint32(table)<<24 | row&rowMask)
}

func (t Token) Table() uint8 { return uint8(t >> 24) }
func (t Token) Row() uint32  { return uint32(t) & rowMask }

// IsNil reports whether the token has no row.
func (t Token) IsNil() bool { return t.Row() == 0 }

func (t Token) String() string {
	return fmt.Sprintf("0x%08x", uint32(t))
}

// DeclaringContext supplies the declaring type, and for generic methods the
// method type arguments, needed to resolve members of generic instantiations.
type DeclaringContext struct {
	MethodArgs []TypeHandle
	Type       TypeHandle
}

// Context returns a context naming only a declaring type.
func Context(t TypeHandle, methodArgs ...TypeHandle) DeclaringContext {
	return DeclaringContext{Type: t, MethodArgs: methodArgs}
}

// HandlesKey renders a handle sequence as a comparable key.
func HandlesKey(hs []TypeHandle) string {
	if len(hs) == 0 {
		return ""
	}
	var b strings.Builder
	for i, h := range hs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatUint(h.value, 10))
	}
	return b.String()
}

// EqualHandles reports whether two handle sequences are element-wise equal.
func EqualHandles(a, b []TypeHandle) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
