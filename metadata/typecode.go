package metadata

// TypeCode classifies a type for conversion and formatting routines.
type TypeCode uint8

const (
	TypeCodeEmpty TypeCode = iota
	TypeCodeObject
	TypeCodeDBNull
	TypeCodeBoolean
	TypeCodeChar
	TypeCodeSByte
	TypeCodeByte
	TypeCodeInt16
	TypeCodeUInt16
	TypeCodeInt32
	TypeCodeUInt32
	TypeCodeInt64
	TypeCodeUInt64
	TypeCodeSingle
	TypeCodeDouble
	TypeCodeDecimal
	TypeCodeDateTime
	_ // 17 is unassigned
	TypeCodeString
)

var typeCodeNames = map[TypeCode]string{
	TypeCodeEmpty:    "Empty",
	TypeCodeObject:   "Object",
	TypeCodeDBNull:   "DBNull",
	TypeCodeBoolean:  "Boolean",
	TypeCodeChar:     "Char",
	TypeCodeSByte:    "SByte",
	TypeCodeByte:     "Byte",
	TypeCodeInt16:    "Int16",
	TypeCodeUInt16:   "UInt16",
	TypeCodeInt32:    "Int32",
	TypeCodeUInt32:   "UInt32",
	TypeCodeInt64:    "Int64",
	TypeCodeUInt64:   "UInt64",
	TypeCodeSingle:   "Single",
	TypeCodeDouble:   "Double",
	TypeCodeDecimal:  "Decimal",
	TypeCodeDateTime: "DateTime",
	TypeCodeString:   "String",
}

func (c TypeCode) String() string {
	if n, ok := typeCodeNames[c]; ok {
		return n
	}
	return "unknown"
}

var elementTypeCodes = map[ElementType]TypeCode{
	ElementBoolean: TypeCodeBoolean,
	ElementChar:    TypeCodeChar,
	ElementI1:      TypeCodeSByte,
	ElementU1:      TypeCodeByte,
	ElementI2:      TypeCodeInt16,
	ElementU2:      TypeCodeUInt16,
	ElementI4:      TypeCodeInt32,
	ElementU4:      TypeCodeUInt32,
	ElementI8:      TypeCodeInt64,
	ElementU8:      TypeCodeUInt64,
	ElementR4:      TypeCodeSingle,
	ElementR8:      TypeCodeDouble,
	ElementString:  TypeCodeString,
}

// TypeCodeOf returns the type code of t. Enums report the code of their
// underlying type; the well-known System value types without an element
// type are recognized by name.
func TypeCodeOf(t *Type) TypeCode {
	if t == nil {
		return TypeCodeEmpty
	}
	if t.IsEnum() && t.Underlying != nil {
		t = t.Underlying
	} else if t.MetadataOnly {
		return TypeCodeObject
	}
	if c, ok := elementTypeCodes[t.Element]; ok {
		return c
	}
	if t.Namespace == "System" && len(t.TypeArgs) == 0 {
		switch t.Name {
		case "DateTime":
			return TypeCodeDateTime
		case "Decimal":
			return TypeCodeDecimal
		case "DBNull":
			return TypeCodeDBNull
		}
	}
	return TypeCodeObject
}
