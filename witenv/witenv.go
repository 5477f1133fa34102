// Package witenv imports WIT component types into an env.Builder.
//
// Named WIT types become type definitions in the importer's namespace, with
// Canonical ABI field offsets:
//
//	record         struct, one field per record field
//	tuple          struct with fields f0, f1, ...
//	variant        struct with a tag field; case payloads overlap at one offset
//	option, result struct with a tag field and overlapping payload fields
//	enum           enum over the discriminant width, values 0..n-1
//	flags          flags enum, one bit per flag
//	resource       class; own<R> and borrow<R> refer to it
//	list           class
//
// Type names are converted to PascalCase; member names are kept as written.
// Anonymous types such as list<u32> are defined once under their WIT spelling.
package witenv

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
	"github.com/wippyai/reflect-runtime/witenv/internal/layout"
)

// FunctionKind says how a WIT function attaches to its owner.
type FunctionKind uint8

const (
	Freestanding FunctionKind = iota
	Method
	Static
	Constructor
)

// Param is a named function parameter.
type Param struct {
	Type wit.Type
	Name string
}

// Function describes a WIT function. Method functions omit the implicit
// self parameter.
type Function struct {
	Result wit.Type // nil for no result
	Name   string
	Params []Param
	Kind   FunctionKind
}

// Importer maps WIT types to metadata types. Like env.Builder it is not
// safe for concurrent use.
type Importer struct {
	b         *env.Builder
	calc      *layout.Calculator
	types     map[*wit.TypeDef]*metadata.Type
	names     map[*wit.TypeDef]string
	namespace string
	anon      int
}

// New returns an importer defining types in namespace.
func New(b *env.Builder, namespace string) *Importer {
	return &Importer{
		b:         b,
		calc:      layout.NewCalculator(),
		types:     make(map[*wit.TypeDef]*metadata.Type),
		names:     make(map[*wit.TypeDef]string),
		namespace: namespace,
	}
}

// Define imports a named WIT type. Aliases resolve to their target and do
// not create a type of their own. Named types referenced by t must be
// defined first; otherwise they are imported as anonymous types.
func (im *Importer) Define(name string, t *wit.TypeDef) (*metadata.Type, error) {
	if t == nil {
		return nil, errors.NilArgument(errors.PhaseLoad, "t")
	}
	if _, ok := im.types[t]; ok {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{name}, "WIT type imported twice")
	}
	im.names[t] = name
	return im.define(t, PascalCase(name))
}

// TypeOf returns the metadata type for a WIT type, importing anonymous
// type definitions on first use. A nil type is void.
func (im *Importer) TypeOf(t wit.Type) (*metadata.Type, error) {
	core := im.b.Core()
	switch typ := t.(type) {
	case nil:
		return nil, nil
	case wit.Bool:
		return core.Boolean, nil
	case wit.S8:
		return core.SByte, nil
	case wit.U8:
		return core.Byte, nil
	case wit.S16:
		return core.Int16, nil
	case wit.U16:
		return core.UInt16, nil
	case wit.S32:
		return core.Int32, nil
	case wit.U32:
		return core.UInt32, nil
	case wit.S64:
		return core.Int64, nil
	case wit.U64:
		return core.UInt64, nil
	case wit.F32:
		return core.Single, nil
	case wit.F64:
		return core.Double, nil
	case wit.Char:
		// a Unicode scalar value, four bytes wide
		return core.UInt32, nil
	case wit.String:
		return core.String, nil
	case *wit.TypeDef:
		if typ == nil {
			return nil, errors.InvalidData(errors.PhaseLoad, nil, "nil WIT type definition")
		}
		if mt, ok := im.types[typ]; ok {
			return mt, nil
		}
		name := im.DisplayName(typ)
		if mt, ok := im.b.Lookup(im.namespace + "." + name); ok {
			im.types[typ] = mt
			return mt, nil
		}
		return im.define(typ, name)
	default:
		return nil, errors.InvalidData(errors.PhaseLoad, nil, fmt.Sprintf("unsupported WIT type %T", t))
	}
}

// Size returns the Canonical ABI size of a WIT type.
func (im *Importer) Size(t wit.Type) uint32 {
	return im.calc.Calculate(t).Size
}

func (im *Importer) define(t *wit.TypeDef, name string) (*metadata.Type, error) {
	switch kind := t.Kind.(type) {
	case *wit.Own:
		return im.handleTarget(t, kind.Type, name)
	case *wit.Borrow:
		return im.handleTarget(t, kind.Type, name)

	case *wit.Resource, *wit.List:
		return im.newType(t, name, metadata.KindClass, nil), nil

	case *wit.Enum:
		names := make([]string, len(kind.Cases))
		values := make([]uint64, len(kind.Cases))
		for i, c := range kind.Cases {
			names[i] = c.Name
			values[i] = uint64(i)
		}
		under := im.integral(layout.DiscriminantSize(len(kind.Cases)))
		typ := im.newType(t, name, metadata.KindEnum, under)
		im.b.SetEnumValues(typ, names, values, false)
		return typ, nil

	case *wit.Flags:
		n := len(kind.Flags)
		if n > 64 {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{name}, fmt.Sprintf("%d flags exceed 64 bits", n))
		}
		names := make([]string, n)
		values := make([]uint64, n)
		for i, f := range kind.Flags {
			names[i] = f.Name
			values[i] = 1 << i
		}
		typ := im.newType(t, name, metadata.KindEnum, im.integral(max(im.calc.Calculate(t).Size, 1)))
		im.b.SetEnumValues(typ, names, values, true)
		return typ, nil

	case *wit.Record:
		info := im.calc.Calculate(t)
		typ := im.newType(t, name, metadata.KindStruct, nil)
		for i, f := range kind.Fields {
			if err := im.addField(typ, f.Name, f.Type, info.Offsets[i]); err != nil {
				return nil, err
			}
		}
		return typ, nil

	case *wit.Tuple:
		info := im.calc.Calculate(t)
		typ := im.newType(t, name, metadata.KindStruct, nil)
		for i, et := range kind.Types {
			if err := im.addField(typ, fmt.Sprintf("f%d", i), et, info.Offsets[i]); err != nil {
				return nil, err
			}
		}
		return typ, nil

	case *wit.Variant:
		info := im.calc.Calculate(t)
		typ := im.newType(t, name, metadata.KindStruct, nil)
		im.addTag(typ, len(kind.Cases))
		for _, c := range kind.Cases {
			if c.Type == nil {
				continue
			}
			if err := im.addField(typ, c.Name, c.Type, info.Payload); err != nil {
				return nil, err
			}
		}
		return typ, nil

	case *wit.Option:
		info := im.calc.Calculate(t)
		typ := im.newType(t, name, metadata.KindStruct, nil)
		im.addTag(typ, 2)
		if err := im.addField(typ, "value", kind.Type, info.Payload); err != nil {
			return nil, err
		}
		return typ, nil

	case *wit.Result:
		info := im.calc.Calculate(t)
		typ := im.newType(t, name, metadata.KindStruct, nil)
		im.addTag(typ, 2)
		for _, p := range []struct {
			name string
			typ  wit.Type
		}{{"ok", kind.OK}, {"err", kind.Err}} {
			if p.typ == nil {
				continue
			}
			if err := im.addField(typ, p.name, p.typ, info.Payload); err != nil {
				return nil, err
			}
		}
		return typ, nil

	case wit.Type:
		target, err := im.TypeOf(kind)
		if err != nil {
			return nil, err
		}
		im.types[t] = target
		return target, nil

	default:
		return nil, errors.InvalidData(errors.PhaseLoad, []string{name}, fmt.Sprintf("unsupported WIT type kind %T", t.Kind))
	}
}

func (im *Importer) handleTarget(t, resource *wit.TypeDef, name string) (*metadata.Type, error) {
	if resource == nil {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{name}, "handle without a resource")
	}
	target, err := im.TypeOf(resource)
	if err != nil {
		return nil, err
	}
	im.types[t] = target
	return target, nil
}

func (im *Importer) newType(t *wit.TypeDef, name string, kind metadata.TypeKind, underlying *metadata.Type) *metadata.Type {
	typ := im.b.DefineType(env.TypeSpec{
		Namespace:  im.namespace,
		Name:       name,
		Kind:       kind,
		Underlying: underlying,
	})
	im.types[t] = typ
	Logger().Debug("imported WIT type",
		zap.String("type", typ.FullName()),
		zap.Stringer("kind", kind))
	return typ
}

func (im *Importer) addField(owner *metadata.Type, name string, t wit.Type, offset uint32) error {
	ft, err := im.TypeOf(t)
	if err != nil {
		return err
	}
	im.b.AddField(owner, env.FieldSpec{Name: name, Type: ft, Offset: int(offset), Public: true})
	return nil
}

func (im *Importer) addTag(owner *metadata.Type, cases int) {
	im.b.AddField(owner, env.FieldSpec{
		Name:   "tag",
		Type:   im.integral(layout.DiscriminantSize(cases)),
		Public: true,
	})
}

// integral returns the unsigned core type of the given byte width.
func (im *Importer) integral(size uint32) *metadata.Type {
	core := im.b.Core()
	switch size {
	case 1:
		return core.Byte
	case 2:
		return core.UInt16
	case 4:
		return core.UInt32
	default:
		return core.UInt64
	}
}

// DefineInterface defines the class holding an interface's freestanding functions.
func (im *Importer) DefineInterface(name string) *metadata.Type {
	return im.b.DefineType(env.TypeSpec{
		Namespace: im.namespace,
		Name:      PascalCase(name),
		Kind:      metadata.KindClass,
	})
}

// DefineFunction declares f on owner. Freestanding and static functions
// become static methods; constructors return nothing.
func (im *Importer) DefineFunction(owner *metadata.Type, f Function) (*metadata.MethodDef, error) {
	if owner == nil {
		return nil, errors.NilArgument(errors.PhaseLoad, "owner")
	}
	params := make([]metadata.Param, len(f.Params))
	for i, p := range f.Params {
		pt, err := im.TypeOf(p.Type)
		if err != nil {
			return nil, err
		}
		params[i] = metadata.Param{Name: p.Name, Type: pt}
	}

	spec := env.MethodSpec{
		Name:   f.Name,
		Params: params,
		Public: true,
		Static: f.Kind == Freestanding || f.Kind == Static,
	}
	if f.Kind == Constructor {
		spec.Name = ""
		spec.Constructor = true
	} else {
		ret, err := im.TypeOf(f.Result)
		if err != nil {
			return nil, err
		}
		spec.Return = ret
	}
	return im.b.AddMethod(owner, spec), nil
}

// DisplayName spells a WIT type the way WIT source does, using the import
// name of named types.
func (im *Importer) DisplayName(t wit.Type) string {
	switch typ := t.(type) {
	case nil:
		return "_"
	case wit.Bool:
		return "bool"
	case wit.S8:
		return "s8"
	case wit.U8:
		return "u8"
	case wit.S16:
		return "s16"
	case wit.U16:
		return "u16"
	case wit.S32:
		return "s32"
	case wit.U32:
		return "u32"
	case wit.S64:
		return "s64"
	case wit.U64:
		return "u64"
	case wit.F32:
		return "f32"
	case wit.F64:
		return "f64"
	case wit.Char:
		return "char"
	case wit.String:
		return "string"
	case *wit.TypeDef:
		if typ == nil {
			return "_"
		}
		if name, ok := im.names[typ]; ok {
			return name
		}
		switch kind := typ.Kind.(type) {
		case *wit.List:
			return "list<" + im.DisplayName(kind.Type) + ">"
		case *wit.Option:
			return "option<" + im.DisplayName(kind.Type) + ">"
		case *wit.Own:
			return "own<" + im.DisplayName(kind.Type) + ">"
		case *wit.Borrow:
			return "borrow<" + im.DisplayName(kind.Type) + ">"
		case *wit.Result:
			if kind.OK == nil && kind.Err == nil {
				return "result"
			}
			return "result<" + im.DisplayName(kind.OK) + ", " + im.DisplayName(kind.Err) + ">"
		case *wit.Tuple:
			parts := make([]string, len(kind.Types))
			for i, et := range kind.Types {
				parts[i] = im.DisplayName(et)
			}
			return "tuple<" + strings.Join(parts, ", ") + ">"
		case wit.Type:
			return im.DisplayName(kind)
		}
		im.anon++
		im.names[typ] = fmt.Sprintf("anonymous-%d", im.anon)
		return im.names[typ]
	}
	return fmt.Sprintf("%T", t)
}

// PascalCase converts a kebab-case WIT identifier: "request-options"
// becomes "RequestOptions".
func PascalCase(name string) string {
	var b strings.Builder
	for part := range strings.SplitSeq(name, "-") {
		if part == "" {
			continue
		}
		b.WriteString(strings.ToUpper(part[:1]))
		b.WriteString(part[1:])
	}
	return b.String()
}
