// Package fixture builds the demo environment shared by package tests.
package fixture

import (
	"sync/atomic"
	"testing"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Fixture is a small object model covering inheritance, embedded structs,
// generic types and methods, delegates and enums.
type Fixture struct {
	Env  *env.Memory
	Core env.Core

	Base, Derived, Util, Ghost    *metadata.Type
	Point, Inner, Outer, Holder   *metadata.Type
	BoxDef, BoxInt, BoxString, T  *metadata.Type
	IntFunc, IntIntFunc, BaseFunc *metadata.Type
	ObjectAction, StringAction    *metadata.Type
	Order, Small, Perms, Alias    *metadata.Type

	Compute, Twice, Hidden, BaseCtor *metadata.MethodDef
	Describe, Shout, Identity, Haunt *metadata.MethodDef
	BoxGet                           *metadata.MethodDef

	BaseTag, BaseCount                     *metadata.FieldDef
	PointX, PointY                         *metadata.FieldDef
	InnerFlag, InnerPoint                  *metadata.FieldDef
	OuterID, OuterInner, OuterRef, HolderV *metadata.FieldDef
	BoxItem                                *metadata.FieldDef

	ComputeHandle, TwiceHandle, CtorHandle    metadata.MethodHandle
	BoxIntGetHandle, SharedGetHandle          metadata.MethodHandle
	IdentityIntHandle, HauntHandle            metadata.MethodHandle
	BaseTagHandle, OuterInnerHandle           metadata.FieldHandle
	BoxIntItemHandle, SharedItemHandle        metadata.FieldHandle

	UtilCctor uintptr
	CctorRuns atomic.Int32
}

// New builds the fixture or fails the test.
func New(tb testing.TB) *Fixture {
	tb.Helper()
	f := &Fixture{}
	b := env.NewBuilder()
	c := b.Core()
	f.Core = c

	f.Base = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Base", Kind: metadata.KindClass})
	f.BaseCtor = b.AddMethod(f.Base, env.MethodSpec{Constructor: true, Public: true})
	f.Compute = b.AddMethod(f.Base, env.MethodSpec{
		Name: "Compute", Static: true, Public: true, Return: c.Int32,
		Params: []metadata.Param{{Name: "x", Type: c.Int32}},
	})
	f.Twice = b.AddMethod(f.Base, env.MethodSpec{
		Name: "Twice", Public: true, Return: c.Int32,
		Params: []metadata.Param{{Name: "x", Type: c.Int32}},
	})
	f.Hidden = b.AddMethod(f.Base, env.MethodSpec{
		Name: "hidden", Return: c.Int32,
		Params: []metadata.Param{{Name: "x", Type: c.Int32}},
	})
	f.BaseTag = b.AddField(f.Base, env.FieldSpec{Name: "tag", Type: c.Int32})
	f.BaseCount = b.AddField(f.Base, env.FieldSpec{Name: "Count", Type: c.Int32, Static: true, Public: true})
	b.LayoutFields(f.Base)

	f.Derived = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Derived", Kind: metadata.KindClass, Base: f.Base})

	f.Util = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Util", Kind: metadata.KindClass})
	f.Describe = b.AddMethod(f.Util, env.MethodSpec{
		Name: "Describe", Static: true, Public: true,
		Params: []metadata.Param{{Name: "value", Type: c.Object}},
	})
	f.Shout = b.AddMethod(f.Util, env.MethodSpec{
		Name: "Shout", Static: true, Public: true,
		Params: []metadata.Param{{Name: "text", Type: c.String}},
	})
	tm := b.GenericParameter("T", 0, true)
	f.Identity = b.AddMethod(f.Util, env.MethodSpec{
		Name: "Identity", Static: true, Public: true, GenericArity: 1, Return: tm,
		Params: []metadata.Param{{Name: "value", Type: tm}},
	})
	f.UtilCctor = b.SetClassConstructor(f.Util, func() error {
		f.CctorRuns.Add(1)
		return nil
	})

	f.Ghost = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Ghost", Kind: metadata.KindClass, MetadataOnly: true})
	f.Haunt = b.AddMethod(f.Ghost, env.MethodSpec{Name: "Haunt", Static: true, Public: true, MetadataOnly: true})

	f.Point = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Point", Kind: metadata.KindStruct})
	f.PointX = b.AddField(f.Point, env.FieldSpec{Name: "X", Type: c.Int32, Public: true})
	f.PointY = b.AddField(f.Point, env.FieldSpec{Name: "Y", Type: c.Int32, Public: true})
	b.LayoutFields(f.Point)

	f.Inner = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Inner", Kind: metadata.KindStruct})
	f.InnerFlag = b.AddField(f.Inner, env.FieldSpec{Name: "flag", Type: c.Byte})
	f.InnerPoint = b.AddField(f.Inner, env.FieldSpec{Name: "point", Type: f.Point})
	b.LayoutFields(f.Inner)

	f.Holder = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Holder", Kind: metadata.KindClass})
	f.HolderV = b.AddField(f.Holder, env.FieldSpec{Name: "value", Type: c.Int32})
	b.LayoutFields(f.Holder)

	f.Outer = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Outer", Kind: metadata.KindClass})
	f.OuterID = b.AddField(f.Outer, env.FieldSpec{Name: "id", Type: c.Int64})
	f.OuterInner = b.AddField(f.Outer, env.FieldSpec{Name: "inner", Type: f.Inner})
	f.OuterRef = b.AddField(f.Outer, env.FieldSpec{Name: "ref", Type: f.Holder})
	b.LayoutFields(f.Outer)

	f.T = b.GenericParameter("T", 0, false)
	f.BoxDef = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Box`1", Kind: metadata.KindClass, GenericArity: 1})
	f.BoxItem = b.AddField(f.BoxDef, env.FieldSpec{Name: "item", Type: f.T, Offset: 0})
	f.BoxGet = b.AddMethod(f.BoxDef, env.MethodSpec{Name: "Get", Public: true, Return: f.T})
	f.BoxInt = b.Instantiate(f.BoxDef, c.Int32)
	f.BoxString = b.Instantiate(f.BoxDef, c.String)

	f.IntFunc = b.DefineDelegate("Demo", "IntFunc", c.Int32, c.Int32)
	f.IntIntFunc = b.DefineDelegate("Demo", "IntIntFunc", c.Int32, c.Int32, c.Int32)
	f.BaseFunc = b.DefineDelegate("Demo", "BaseFunc", c.Int32, f.Base, c.Int32)
	f.ObjectAction = b.DefineDelegate("Demo", "ObjectAction", nil, c.Object)
	f.StringAction = b.DefineDelegate("Demo", "StringAction", nil, c.String)

	f.Order = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Order", Kind: metadata.KindEnum})
	b.SetEnumValues(f.Order, []string{"A", "B", "C"}, []uint64{3, 1, 2}, false)

	f.Small = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Small", Kind: metadata.KindEnum, Underlying: c.SByte})
	b.SetSignedEnumValues(f.Small, []string{"Neg", "Zero", "Max"}, []int64{-1, 0, 127}, false)

	f.Perms = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Perms", Kind: metadata.KindEnum, Underlying: c.Byte})
	b.SetEnumValues(f.Perms, []string{"All", "Read", "None", "Write", "Exec"}, []uint64{7, 1, 0, 2, 4}, true)

	f.Alias = b.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Alias", Kind: metadata.KindEnum})
	b.SetEnumValues(f.Alias, []string{"Second", "First", "Primary", "Zero"}, []uint64{2, 1, 1, 0}, false)

	f.ComputeHandle = b.MethodHandle(f.Compute, nil)
	f.TwiceHandle = b.MethodHandle(f.Twice, nil)
	f.CtorHandle = b.MethodHandle(f.BaseCtor, nil)
	f.BoxIntGetHandle = b.MethodHandle(f.BoxGet, f.BoxInt)
	f.SharedGetHandle = b.SharedMethodHandle(f.BoxGet, f.BoxInt, f.BoxString)
	f.IdentityIntHandle = b.MethodHandle(f.Identity, nil, c.Int32)
	f.HauntHandle = b.MethodHandle(f.Haunt, nil)
	f.BaseTagHandle = b.FieldHandle(f.BaseTag, nil)
	f.OuterInnerHandle = b.FieldHandle(f.OuterInner, nil)
	f.BoxIntItemHandle = b.FieldHandle(f.BoxItem, f.BoxInt)
	f.SharedItemHandle = b.SharedFieldHandle(f.BoxItem, f.BoxInt, f.BoxString)

	m, err := b.Build()
	if err != nil {
		tb.Fatalf("fixture: %v", err)
	}
	f.Env = m
	return f
}
