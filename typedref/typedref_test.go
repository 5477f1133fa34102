package typedref

import (
	"errors"
	"testing"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/env"
	rerrors "github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/internal/fixture"
	"github.com/wippyai/reflect-runtime/metadata"
)

func TestBuildOffsets(t *testing.T) {
	f := fixture.New(t)
	b := binder.New()
	outer := metadata.NewInstance(f.Outer)

	inner := b.Field(f.OuterInner, f.Outer)
	point := b.Field(f.InnerPoint, f.Inner)
	y := b.Field(f.PointY, f.Point)
	ref := b.Field(f.OuterRef, f.Outer)

	tests := []struct {
		name       string
		chain      []*binder.Field
		wantType   *metadata.Type
		wantOffset int
	}{
		{"single", []*binder.Field{inner}, f.Inner, f.OuterInner.Offset},
		{"two", []*binder.Field{inner, point}, f.Point, f.OuterInner.Offset + f.InnerPoint.Offset},
		{"three", []*binder.Field{inner, point, y}, f.Core.Int32, f.OuterInner.Offset + f.InnerPoint.Offset + f.PointY.Offset},
		{"reference last", []*binder.Field{ref}, f.Holder, f.OuterRef.Offset},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Build(outer, tc.chain)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if r.Type != tc.wantType {
				t.Errorf("type: got %v, want %v", r.Type, tc.wantType)
			}
			if r.Offset != tc.wantOffset {
				t.Errorf("offset: got %d, want %d", r.Offset, tc.wantOffset)
			}
		})
	}

	r, _ := Build(outer, []*binder.Field{inner, point, y})
	if r.Offset != 16 {
		t.Errorf("laid out offset: got %d, want 16", r.Offset)
	}
}

func TestBuildInheritedField(t *testing.T) {
	f := fixture.New(t)
	b := binder.New()

	r, err := Build(metadata.NewInstance(f.Derived), []*binder.Field{b.Field(f.BaseTag, f.Base)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Type != f.Core.Int32 || r.Offset != f.BaseTag.Offset {
		t.Errorf("got %+v", r)
	}
}

func TestBuildGenericField(t *testing.T) {
	f := fixture.New(t)
	b := binder.New()

	r, err := Build(metadata.NewInstance(f.BoxString), []*binder.Field{b.Field(f.BoxItem, f.BoxString)})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if r.Type != f.Core.String {
		t.Errorf("type: got %v, want System.String", r.Type)
	}
}

func TestBuildErrors(t *testing.T) {
	f := fixture.New(t)
	b := binder.New()
	outer := metadata.NewInstance(f.Outer)

	tests := []struct {
		name    string
		target  metadata.Object
		chain   []*binder.Field
		wantErr error
	}{
		{"empty chain", outer, nil, rerrors.ErrInvalidArgument},
		{"nil target", nil, []*binder.Field{b.Field(f.OuterInner, f.Outer)}, rerrors.ErrInvalidArgument},
		{"nil field", outer, []*binder.Field{nil}, rerrors.ErrInvalidArgument},
		{"static field", metadata.NewInstance(f.Base), []*binder.Field{b.Field(f.BaseCount, f.Base)}, rerrors.ErrInvalidField},
		{"foreign field", outer, []*binder.Field{b.Field(f.PointY, f.Point)}, rerrors.ErrTypeMismatch},
		{"derived field on base", metadata.NewInstance(f.Base), []*binder.Field{b.Field(f.OuterID, f.Outer)}, rerrors.ErrTypeMismatch},
		{"reference in the middle", outer, []*binder.Field{b.Field(f.OuterRef, f.Outer), b.Field(f.HolderV, f.Holder)}, rerrors.ErrNestedReference},
		{"second field out of place", outer, []*binder.Field{b.Field(f.OuterInner, f.Outer), b.Field(f.PointY, f.Point)}, rerrors.ErrTypeMismatch},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Build(tc.target, tc.chain)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("got %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestMismatchNamesBothTypes(t *testing.T) {
	f := fixture.New(t)
	b := binder.New()

	_, err := Build(metadata.NewInstance(f.Outer), []*binder.Field{b.Field(f.PointY, f.Point)})
	var re *rerrors.Error
	if !errors.As(err, &re) {
		t.Fatalf("got %T", err)
	}
	if re.Type != "Demo.Point" || re.Other != "Demo.Outer" {
		t.Errorf("types: got (%q, %q)", re.Type, re.Other)
	}
	if len(re.Path) != 1 || re.Path[0] != "Y" {
		t.Errorf("path: got %v", re.Path)
	}
}

func TestBuildGenericInstance(t *testing.T) {
	eb := env.NewBuilder()
	c := eb.Core()
	tp := eb.GenericParameter("T", 0, false)

	wide := eb.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Wide", Kind: metadata.KindStruct})
	eb.AddField(wide, env.FieldSpec{Name: "a", Type: c.Int64})
	wideB := eb.AddField(wide, env.FieldSpec{Name: "b", Type: c.Int64})
	eb.LayoutFields(wide)

	pair := eb.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Pair`1", Kind: metadata.KindStruct, GenericArity: 1})
	first := eb.AddField(pair, env.FieldSpec{Name: "first", Type: tp})
	second := eb.AddField(pair, env.FieldSpec{Name: "second", Type: c.Int32})
	eb.LayoutFields(pair)

	base := eb.DefineType(env.TypeSpec{Namespace: "Demo", Name: "Base`1", Kind: metadata.KindClass, GenericArity: 1})
	item := eb.AddField(base, env.FieldSpec{Name: "item", Type: tp})
	eb.LayoutFields(base)
	derived := eb.DefineType(env.TypeSpec{
		Namespace: "Demo", Name: "Derived`1", Kind: metadata.KindClass, GenericArity: 1,
		Base: eb.Instantiate(base, tp),
	})
	extra := eb.AddField(derived, env.FieldSpec{Name: "extra", Type: c.Int32})
	eb.LayoutFields(derived)

	pairWide := eb.Instantiate(pair, wide)
	derivedInt := eb.Instantiate(derived, c.Int32)
	if _, err := eb.Build(); err != nil {
		t.Fatalf("Build: %v", err)
	}

	b := binder.New()
	tests := []struct {
		name       string
		target     *metadata.Type
		chain      []*binder.Field
		wantType   *metadata.Type
		wantOffset int
	}{
		{"pair second", pairWide, []*binder.Field{b.Field(second, pairWide)}, c.Int32, 16},
		{"pair first nested", pairWide, []*binder.Field{b.Field(first, pairWide), b.Field(wideB, wide)}, c.Int64, 8},
		{"inherited item", derivedInt, []*binder.Field{b.Field(item, derivedInt.Base)}, c.Int32, 0},
		{"derived extra", derivedInt, []*binder.Field{b.Field(extra, derivedInt)}, c.Int32, 4},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Build(metadata.NewInstance(tc.target), tc.chain)
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if r.Type != tc.wantType {
				t.Errorf("type: got %v, want %v", r.Type, tc.wantType)
			}
			if r.Offset != tc.wantOffset {
				t.Errorf("offset: got %d, want %d", r.Offset, tc.wantOffset)
			}
		})
	}
}
