package metadata

// TypeKind classifies a type definition.
type TypeKind uint8

const (
	KindClass TypeKind = iota
	KindStruct
	KindEnum
	KindDelegate
	KindInterface
	KindPrimitive
	KindGenericParameter
)

var kindNames = [...]string{
	KindClass:            "class",
	KindStruct:           "struct",
	KindEnum:             "enum",
	KindDelegate:         "delegate",
	KindInterface:        "interface",
	KindPrimitive:        "primitive",
	KindGenericParameter: "generic-parameter",
}

func (k TypeKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// ParseTypeKind maps a kind name back to its TypeKind.
func ParseTypeKind(s string) (TypeKind, bool) {
	for i, n := range kindNames {
		if n == s {
			return TypeKind(i), true
		}
	}
	return 0, false
}

// ElementType is the runtime element type of a type descriptor.
type ElementType uint8

const (
	ElementNone ElementType = iota
	ElementVoid
	ElementBoolean
	ElementChar
	ElementI1
	ElementU1
	ElementI2
	ElementU2
	ElementI4
	ElementU4
	ElementI8
	ElementU8
	ElementR4
	ElementR8
	ElementI
	ElementU
	ElementString
	ElementObject
)

var elementNames = [...]string{
	ElementNone:    "none",
	ElementVoid:    "void",
	ElementBoolean: "bool",
	ElementChar:    "char",
	ElementI1:      "i1",
	ElementU1:      "u1",
	ElementI2:      "i2",
	ElementU2:      "u2",
	ElementI4:      "i4",
	ElementU4:      "u4",
	ElementI8:      "i8",
	ElementU8:      "u8",
	ElementR4:      "r4",
	ElementR8:      "r8",
	ElementI:       "i",
	ElementU:       "u",
	ElementString:  "string",
	ElementObject:  "object",
}

func (e ElementType) String() string {
	if int(e) < len(elementNames) {
		return elementNames[e]
	}
	return "unknown"
}

// ParseElementType maps an element name back to its ElementType.
func ParseElementType(s string) (ElementType, bool) {
	for i, n := range elementNames {
		if n == s {
			return ElementType(i), true
		}
	}
	return 0, false
}

// Bits returns the storage width of integral element types, 0 otherwise.
func (e ElementType) Bits() int {
	switch e {
	case ElementBoolean, ElementI1, ElementU1:
		return 8
	case ElementChar, ElementI2, ElementU2:
		return 16
	case ElementI4, ElementU4:
		return 32
	case ElementI8, ElementU8, ElementI, ElementU:
		return 64
	default:
		return 0
	}
}

// Signed reports whether an integral element type is signed.
func (e ElementType) Signed() bool {
	switch e {
	case ElementI1, ElementI2, ElementI4, ElementI8, ElementI:
		return true
	default:
		return false
	}
}
