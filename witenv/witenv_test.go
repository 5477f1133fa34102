package witenv

import (
	"errors"
	"testing"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/reflect-runtime/enuminfo"
	"github.com/wippyai/reflect-runtime/env"
	rerrors "github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

func TestPascalCase(t *testing.T) {
	tests := []struct{ in, want string }{
		{"point", "Point"},
		{"request-options", "RequestOptions"},
		{"http-2-frame", "Http2Frame"},
		{"-odd--name-", "OddName"},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			if got := PascalCase(tc.in); got != tc.want {
				t.Errorf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestImportRecord(t *testing.T) {
	b := env.NewBuilder()
	im := New(b, "Wasi.Demo")

	point := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "x", Type: wit.S32{}},
		{Name: "y", Type: wit.S32{}},
	}}}
	shape := &wit.TypeDef{Kind: &wit.Record{Fields: []wit.Field{
		{Name: "visible", Type: wit.Bool{}},
		{Name: "origin", Type: point},
		{Name: "id", Type: wit.U64{}},
		{Name: "label", Type: wit.String{}},
		{Name: "tags", Type: &wit.TypeDef{Kind: &wit.List{Type: wit.String{}}}},
	}}}

	pt, err := im.Define("point", point)
	if err != nil {
		t.Fatal(err)
	}
	st, err := im.Define("shape", shape)
	if err != nil {
		t.Fatal(err)
	}

	if pt.FullName() != "Wasi.Demo.Point" || pt.Kind != metadata.KindStruct {
		t.Errorf("point: got %s (%s)", pt.FullName(), pt.Kind)
	}

	tests := []struct {
		field  string
		offset int
		typ    string
	}{
		{"visible", 0, "System.Boolean"},
		{"origin", 4, "Wasi.Demo.Point"},
		{"id", 16, "System.UInt64"},
		{"label", 24, "System.String"},
		{"tags", 32, "Wasi.Demo.list<string>"},
	}
	for _, tc := range tests {
		t.Run(tc.field, func(t *testing.T) {
			f, ok := st.FieldByName(tc.field)
			if !ok {
				t.Fatal("field not found")
			}
			if f.Offset != tc.offset {
				t.Errorf("offset: got %d, want %d", f.Offset, tc.offset)
			}
			if f.Type.FullName() != tc.typ {
				t.Errorf("type: got %s, want %s", f.Type.FullName(), tc.typ)
			}
		})
	}
	if got := im.Size(shape); got != 40 {
		t.Errorf("size: got %d, want 40", got)
	}

	if _, err := im.Define("point", point); !errors.Is(err, rerrors.ErrInvalidData) {
		t.Errorf("second import: got %v", err)
	}
}

func TestImportEnumAndFlags(t *testing.T) {
	b := env.NewBuilder()
	im := New(b, "Wasi.Demo")

	method, err := im.Define("method", &wit.TypeDef{Kind: &wit.Enum{Cases: []wit.EnumCase{
		{Name: "get"}, {Name: "post"}, {Name: "put"},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	perms, err := im.Define("perms", &wit.TypeDef{Kind: &wit.Flags{Flags: []wit.Flag{
		{Name: "read"}, {Name: "write"}, {Name: "exec"},
	}}})
	if err != nil {
		t.Fatal(err)
	}

	m, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	enums := enuminfo.New(m)

	table, err := enums.Table(method)
	if err != nil {
		t.Fatal(err)
	}
	if method.Underlying != m.Core().Byte {
		t.Errorf("method underlying: got %v", method.Underlying)
	}
	if got := table.Format(1); got != "post" {
		t.Errorf("format 1: got %q", got)
	}

	table, err = enums.Table(perms)
	if err != nil {
		t.Fatal(err)
	}
	if !table.IsFlags {
		t.Error("perms should be flags")
	}
	if got := table.Format(5); got != "read, exec" {
		t.Errorf("format 5: got %q", got)
	}
}

func TestImportTaggedTypes(t *testing.T) {
	b := env.NewBuilder()
	im := New(b, "Wasi.Demo")

	shape, err := im.Define("shape", &wit.TypeDef{Kind: &wit.Variant{Cases: []wit.Case{
		{Name: "empty"},
		{Name: "circle", Type: wit.F32{}},
		{Name: "square", Type: wit.U64{}},
	}}})
	if err != nil {
		t.Fatal(err)
	}
	tag, _ := shape.FieldByName("tag")
	circle, _ := shape.FieldByName("circle")
	square, _ := shape.FieldByName("square")
	if tag == nil || tag.Offset != 0 || tag.Type != b.Core().Byte {
		t.Errorf("tag: got %+v", tag)
	}
	if circle == nil || square == nil || circle.Offset != 8 || square.Offset != 8 {
		t.Errorf("payloads: got %+v, %+v", circle, square)
	}
	if _, ok := shape.FieldByName("empty"); ok {
		t.Error("empty case should have no field")
	}

	opt, err := im.TypeOf(&wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}})
	if err != nil {
		t.Fatal(err)
	}
	if opt.Name != "option<u32>" {
		t.Errorf("option name: got %q", opt.Name)
	}
	value, _ := opt.FieldByName("value")
	if value == nil || value.Offset != 4 {
		t.Errorf("option value: got %+v", value)
	}

	again, err := im.TypeOf(&wit.TypeDef{Kind: &wit.Option{Type: wit.U32{}}})
	if err != nil || again != opt {
		t.Errorf("same anonymous shape should reuse the type: got %v, %v", again, err)
	}

	pair, err := im.TypeOf(&wit.TypeDef{Kind: &wit.Tuple{Types: []wit.Type{wit.U8{}, wit.String{}}}})
	if err != nil {
		t.Fatal(err)
	}
	f1, _ := pair.FieldByName("f1")
	if pair.Name != "tuple<u8, string>" || f1 == nil || f1.Offset != 4 {
		t.Errorf("tuple: got %s, %+v", pair.Name, f1)
	}
}

func TestImportResourceFunctions(t *testing.T) {
	b := env.NewBuilder()
	im := New(b, "Wasi.Io")

	stream := &wit.TypeDef{Kind: &wit.Resource{}}
	res, err := im.Define("input-stream", stream)
	if err != nil {
		t.Fatal(err)
	}
	if res.FullName() != "Wasi.Io.InputStream" || res.Kind != metadata.KindClass {
		t.Errorf("resource: got %s (%s)", res.FullName(), res.Kind)
	}

	own, err := im.TypeOf(&wit.TypeDef{Kind: &wit.Own{Type: stream}})
	if err != nil || own != res {
		t.Errorf("own<input-stream>: got %v, %v", own, err)
	}

	read, err := im.DefineFunction(res, Function{
		Name:   "read",
		Params: []Param{{Name: "len", Type: wit.U64{}}},
		Result: &wit.TypeDef{Kind: &wit.List{Type: wit.U8{}}},
		Kind:   Method,
	})
	if err != nil {
		t.Fatal(err)
	}
	if read.Static || read.Return.Name != "list<u8>" || read.Params[0].Type != b.Core().UInt64 {
		t.Errorf("read: got %+v", read)
	}

	ctor, err := im.DefineFunction(res, Function{Kind: Constructor})
	if err != nil {
		t.Fatal(err)
	}
	if !ctor.Constructor || ctor.Return != nil {
		t.Errorf("constructor: got %+v", ctor)
	}

	streams := im.DefineInterface("streams")
	open, err := im.DefineFunction(streams, Function{
		Name:   "open",
		Params: []Param{{Name: "path", Type: wit.String{}}},
		Result: &wit.TypeDef{Kind: &wit.Own{Type: stream}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if !open.Static || open.Return != res {
		t.Errorf("open: got %+v", open)
	}

	if _, err := im.TypeOf(&wit.TypeDef{Kind: &wit.Borrow{}}); !errors.Is(err, rerrors.ErrInvalidData) {
		t.Errorf("borrow without resource: got %v", err)
	}
}

func TestImportAlias(t *testing.T) {
	b := env.NewBuilder()
	im := New(b, "Wasi.Demo")

	size, err := im.Define("size", &wit.TypeDef{Kind: wit.U64{}})
	if err != nil {
		t.Fatal(err)
	}
	if size != b.Core().UInt64 {
		t.Errorf("alias: got %v", size)
	}
	if _, ok := b.Lookup("Wasi.Demo.Size"); ok {
		t.Error("alias should not define a type")
	}
}

func TestImportTooManyFlags(t *testing.T) {
	flags := make([]wit.Flag, 65)
	for i := range flags {
		flags[i] = wit.Flag{Name: "f"}
	}
	im := New(env.NewBuilder(), "Wasi.Demo")
	if _, err := im.Define("wide", &wit.TypeDef{Kind: &wit.Flags{Flags: flags}}); !errors.Is(err, rerrors.ErrInvalidData) {
		t.Errorf("got %v, want invalid data", err)
	}
}

func TestImportResolve(t *testing.T) {
	name := func(s string) *string { return &s }
	code := &wit.TypeDef{Name: name("error-code"), Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "io"}}}}
	again := &wit.TypeDef{Name: name("error-code"), Kind: &wit.Enum{Cases: []wit.EnumCase{{Name: "denied"}}}}
	res := &wit.Resolve{TypeDefs: []*wit.TypeDef{
		code,
		{Kind: &wit.List{Type: wit.U8{}}},
		{Name: name("payload"), Kind: &wit.Record{Fields: []wit.Field{
			{Name: "code", Type: code},
			{Name: "data", Type: wit.String{}},
		}}},
		again,
	}}

	b := env.NewBuilder()
	types, err := New(b, "Wit").ImportResolve(res)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, typ := range types {
		names = append(names, typ.FullName())
	}
	want := []string{"Wit.ErrorCode", "Wit.Payload", "Wit.ErrorCode2"}
	if len(names) != len(want) {
		t.Fatalf("got %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("type %d: got %s, want %s", i, names[i], want[i])
		}
	}

	data, _ := types[1].FieldByName("data")
	if data == nil || data.Offset != 4 {
		t.Errorf("payload.data: got %+v", data)
	}
	if _, err := b.Build(); err != nil {
		t.Errorf("build: %v", err)
	}
}
