package env

import "github.com/wippyai/reflect-runtime/metadata"

// Core holds the well-known types every Builder starts with.
type Core struct {
	Object    *metadata.Type
	ValueType *metadata.Type
	Enum      *metadata.Type
	Delegate  *metadata.Type
	Void      *metadata.Type
	Boolean   *metadata.Type
	Char      *metadata.Type
	SByte     *metadata.Type
	Byte      *metadata.Type
	Int16     *metadata.Type
	UInt16    *metadata.Type
	Int32     *metadata.Type
	UInt32    *metadata.Type
	Int64     *metadata.Type
	UInt64    *metadata.Type
	Single    *metadata.Type
	Double    *metadata.Type
	IntPtr    *metadata.Type
	UIntPtr   *metadata.Type
	String    *metadata.Type
	DateTime  *metadata.Type
	Decimal   *metadata.Type
	DBNull    *metadata.Type
}

const systemNamespace = "System"

func (b *Builder) defineCore() {
	c := &b.core
	c.Object = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "Object", Kind: metadata.KindClass, Element: metadata.ElementObject, Root: true})
	c.ValueType = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "ValueType", Kind: metadata.KindClass})
	c.Enum = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "Enum", Kind: metadata.KindClass, Base: c.ValueType})
	c.Delegate = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "MulticastDelegate", Kind: metadata.KindClass})
	c.Void = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "Void", Kind: metadata.KindPrimitive, Element: metadata.ElementVoid})

	prim := func(name string, e metadata.ElementType) *metadata.Type {
		return b.DefineType(TypeSpec{Namespace: systemNamespace, Name: name, Kind: metadata.KindPrimitive, Element: e})
	}
	c.Boolean = prim("Boolean", metadata.ElementBoolean)
	c.Char = prim("Char", metadata.ElementChar)
	c.SByte = prim("SByte", metadata.ElementI1)
	c.Byte = prim("Byte", metadata.ElementU1)
	c.Int16 = prim("Int16", metadata.ElementI2)
	c.UInt16 = prim("UInt16", metadata.ElementU2)
	c.Int32 = prim("Int32", metadata.ElementI4)
	c.UInt32 = prim("UInt32", metadata.ElementU4)
	c.Int64 = prim("Int64", metadata.ElementI8)
	c.UInt64 = prim("UInt64", metadata.ElementU8)
	c.Single = prim("Single", metadata.ElementR4)
	c.Double = prim("Double", metadata.ElementR8)
	c.IntPtr = prim("IntPtr", metadata.ElementI)
	c.UIntPtr = prim("UIntPtr", metadata.ElementU)

	c.String = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "String", Kind: metadata.KindClass, Element: metadata.ElementString})
	c.DateTime = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "DateTime", Kind: metadata.KindStruct})
	c.Decimal = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "Decimal", Kind: metadata.KindStruct})
	c.DBNull = b.DefineType(TypeSpec{Namespace: systemNamespace, Name: "DBNull", Kind: metadata.KindClass})
}
