package image

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// scope maps generic parameter names to their types while resolving
// references inside a type or method.
type scope struct {
	typeParams   map[string]*metadata.Type
	methodParams map[string]*metadata.Type
}

type loader struct {
	b       *env.Builder
	decls   map[*metadata.Type]*TypeDecl
	params  map[*metadata.Type]map[string]*metadata.Type
	laidOut map[*metadata.Type]bool
	order   []*metadata.Type
	img     *Image
}

// Build assembles the document into an environment.
func (d *Document) Build() (*Image, error) {
	l := &loader{
		b:       env.NewBuilder(),
		decls:   make(map[*metadata.Type]*TypeDecl),
		params:  make(map[*metadata.Type]map[string]*metadata.Type),
		laidOut: make(map[*metadata.Type]bool),
		img: &Image{
			MethodHandles: make(map[string]metadata.MethodHandle),
			FieldHandles:  make(map[string]metadata.FieldHandle),
		},
	}

	steps := []func(*Document) error{
		l.defineTypes,
		l.importWIT,
		l.defineHierarchy,
		l.defineMembers,
		l.layout,
		l.defineHandles,
	}
	for _, step := range steps {
		if err := step(d); err != nil {
			return nil, err
		}
	}

	m, err := l.b.Build()
	if err != nil {
		return nil, err
	}
	l.img.Env = m
	Logger().Debug("image loaded",
		zap.Int("types", len(d.Types)),
		zap.Int("method_handles", len(l.img.MethodHandles)),
		zap.Int("field_handles", len(l.img.FieldHandles)))
	return l.img, nil
}

// defineTypes creates every type definition so members can refer to types
// declared later in the document.
func (l *loader) defineTypes(d *Document) error {
	for i := range d.Types {
		decl := &d.Types[i]
		kind, ok := metadata.ParseTypeKind(decl.Kind)
		if !ok || kind == metadata.KindPrimitive || kind == metadata.KindGenericParameter {
			return errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, fmt.Sprintf("unsupported kind %q", decl.Kind))
		}
		if decl.Name == "" {
			return errors.InvalidData(errors.PhaseLoad, []string{fmt.Sprintf("types[%d]", i)}, "name is required")
		}

		spec := env.TypeSpec{
			Kind:         kind,
			GenericArity: len(decl.GenericParams),
			MetadataOnly: decl.MetadataOnly,
		}
		spec.Namespace, spec.Name = splitName(decl.Name)
		if decl.Underlying != "" {
			if kind != metadata.KindEnum {
				return errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, "underlying is only valid on enums")
			}
			u, ok := l.b.Lookup(decl.Underlying)
			if !ok || u.Kind != metadata.KindPrimitive || u.Element.Bits() == 0 {
				return errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, "underlying type must be integral: "+decl.Underlying)
			}
			spec.Underlying = u
		}

		t := l.b.DefineType(spec)
		l.decls[t] = decl
		l.order = append(l.order, t)
		if len(decl.GenericParams) > 0 {
			ps := make(map[string]*metadata.Type, len(decl.GenericParams))
			for pos, name := range decl.GenericParams {
				ps[name] = l.b.GenericParameter(name, pos, false)
			}
			l.params[t] = ps
		}
	}
	return nil
}

// defineHierarchy sets declared bases and interfaces before any member
// signature instantiates a generic type.
func (l *loader) defineHierarchy(*Document) error {
	for _, t := range l.order {
		decl := l.decls[t]
		sc := scope{typeParams: l.params[t]}
		path := []string{decl.Name}

		if decl.Base != "" {
			base, err := l.resolve(decl.Base, sc)
			if err != nil {
				return err
			}
			t.Base = base
		}
		for _, name := range decl.Interfaces {
			iface, err := l.resolve(name, sc)
			if err != nil {
				return err
			}
			if !iface.IsInterface() {
				return errors.InvalidData(errors.PhaseLoad, path, iface.FullName()+" is not an interface")
			}
			t.Interfaces = append(t.Interfaces, iface)
		}
	}
	return nil
}

func (l *loader) defineMembers(*Document) error {
	for _, t := range l.order {
		decl := l.decls[t]
		sc := scope{typeParams: l.params[t]}
		path := []string{decl.Name}

		for _, f := range decl.Fields {
			ft, err := l.resolve(f.Type, sc)
			if err != nil {
				return err
			}
			l.b.AddField(t, env.FieldSpec{Name: f.Name, Type: ft, Offset: f.Offset, Static: f.Static, Public: f.Public})
		}

		for _, md := range decl.Methods {
			if err := l.defineMethod(t, md, sc); err != nil {
				return err
			}
		}

		if decl.Invoke != nil {
			ret, params, err := l.signature(decl.Invoke.Returns, decl.Invoke.Params, sc)
			if err != nil {
				return err
			}
			if l.b.AddInvoke(t, ret, params...) == nil {
				return errors.InvalidData(errors.PhaseLoad, path, "invoke is only valid on delegates")
			}
		}

		if decl.Enum != nil {
			names := make([]string, len(decl.Enum.Values))
			values := make([]int64, len(decl.Enum.Values))
			for i, v := range decl.Enum.Values {
				names[i] = v.Name
				values[i] = v.Value
			}
			l.b.SetSignedEnumValues(t, names, values, decl.Enum.Flags)
		}

		if decl.ClassConstructor {
			name := decl.Name
			l.b.SetClassConstructor(t, func() error {
				Logger().Info("class constructor ran", zap.String("type", name))
				return nil
			})
		}
	}
	return nil
}

func (l *loader) defineMethod(owner *metadata.Type, md MethodDecl, sc scope) error {
	if len(md.GenericParams) > 0 {
		sc.methodParams = make(map[string]*metadata.Type, len(md.GenericParams))
		for pos, name := range md.GenericParams {
			sc.methodParams[name] = l.b.GenericParameter(name, pos, true)
		}
	}
	ret, params, err := l.signature(md.Returns, md.Params, sc)
	if err != nil {
		return err
	}
	ps := make([]metadata.Param, len(params))
	for i, p := range params {
		ps[i] = metadata.Param{Name: md.Params[i].Name, Type: p}
	}
	l.b.AddMethod(owner, env.MethodSpec{
		Name:         md.Name,
		Return:       ret,
		Params:       ps,
		GenericArity: len(md.GenericParams),
		EntryPoint:   uintptr(md.EntryPoint),
		Static:       md.Static,
		Public:       md.Public,
		Constructor:  md.Constructor,
		MetadataOnly: md.MetadataOnly,
	})
	return nil
}

func (l *loader) signature(returns string, params []ParamDecl, sc scope) (*metadata.Type, []*metadata.Type, error) {
	var ret *metadata.Type
	if !isVoid(returns) {
		r, err := l.resolve(returns, sc)
		if err != nil {
			return nil, nil, err
		}
		ret = r
	}
	types := make([]*metadata.Type, len(params))
	for i, p := range params {
		t, err := l.resolve(p.Type, sc)
		if err != nil {
			return nil, nil, err
		}
		types[i] = t
	}
	return ret, types, nil
}

func isVoid(ref string) bool {
	return ref == "" || ref == "void" || ref == "System.Void"
}

// resolve maps a type reference to a type, instantiating generic types on demand.
func (l *loader) resolve(s string, sc scope) (*metadata.Type, error) {
	ref, err := parseTypeRef(s)
	if err != nil {
		return nil, err
	}
	return l.resolveRef(ref, sc)
}

func (l *loader) resolveRef(ref typeRef, sc scope) (*metadata.Type, error) {
	if len(ref.args) == 0 {
		if p, ok := sc.methodParams[ref.name]; ok {
			return p, nil
		}
		if p, ok := sc.typeParams[ref.name]; ok {
			return p, nil
		}
	}
	def, ok := l.b.Lookup(ref.name)
	if !ok {
		return nil, errors.NotFound(errors.PhaseLoad, "type", ref.name)
	}
	if len(ref.args) == 0 {
		return def, nil
	}
	if !def.IsGenericDefinition() || def.GenericArity != len(ref.args) {
		return nil, errors.InvalidData(errors.PhaseLoad, []string{ref.String()},
			fmt.Sprintf("%s takes %d type arguments", def.FullName(), def.GenericArity))
	}
	args := make([]*metadata.Type, len(ref.args))
	for i, a := range ref.args {
		t, err := l.resolveRef(a, sc)
		if err != nil {
			return nil, err
		}
		args[i] = t
	}
	return l.b.Instantiate(def, args...), nil
}

// layout computes offsets for sequential types, laying out bases and
// embedded struct fields first.
func (l *loader) layout(*Document) error {
	for _, t := range l.order {
		if err := l.layoutType(t, nil); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) layoutType(t *metadata.Type, visiting []*metadata.Type) error {
	t = t.AnchoringDefinition()
	decl, ok := l.decls[t]
	if !ok || l.laidOut[t] {
		return nil
	}
	if slices.Contains(visiting, t) {
		return errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, "type contains itself")
	}
	visiting = append(visiting, t)

	if t.Base != nil {
		if err := l.layoutDeps(t.Base, visiting); err != nil {
			return err
		}
	}
	for _, f := range t.Fields {
		if f.Static || f.Type == nil || !f.Type.IsValueType() {
			continue
		}
		if err := l.layoutDeps(f.Type, visiting); err != nil {
			return err
		}
	}

	switch decl.Layout {
	case "", "explicit":
	case "sequential":
		l.b.LayoutFields(t)
	default:
		return errors.InvalidData(errors.PhaseLoad, []string{decl.Name}, "unknown layout "+decl.Layout)
	}
	l.laidOut[t] = true
	return nil
}

// layoutDeps lays out the definition of t and the value-type arguments an
// instantiation embeds.
func (l *loader) layoutDeps(t *metadata.Type, visiting []*metadata.Type) error {
	if err := l.layoutType(t, visiting); err != nil {
		return err
	}
	for _, a := range t.TypeArgs {
		if !a.IsValueType() {
			continue
		}
		if err := l.layoutDeps(a, visiting); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) defineHandles(d *Document) error {
	for _, h := range d.Handles.Methods {
		if err := l.defineMethodHandle(h); err != nil {
			return err
		}
	}
	for _, h := range d.Handles.Fields {
		if err := l.defineFieldHandle(h); err != nil {
			return err
		}
	}
	return nil
}

func (l *loader) defineMethodHandle(h MethodHandleDecl) error {
	if _, dup := l.img.MethodHandles[h.ID]; dup || h.ID == "" {
		return errors.InvalidData(errors.PhaseLoad, []string{"handles", "methods", h.ID}, "handle id must be unique and non-empty")
	}
	owner, err := l.resolve(h.Type, scope{})
	if err != nil {
		return err
	}
	def, err := l.findMethod(owner, h)
	if err != nil {
		return err
	}

	if len(h.Shared) > 0 {
		contexts, err := l.resolveAll(h.Shared)
		if err != nil {
			return err
		}
		l.img.MethodHandles[h.ID] = l.b.SharedMethodHandle(def, contexts...)
		return nil
	}

	var on *metadata.Type
	if h.On != "" {
		if on, err = l.resolve(h.On, scope{}); err != nil {
			return err
		}
	}
	args, err := l.resolveAll(h.MethodArgs)
	if err != nil {
		return err
	}
	l.img.MethodHandles[h.ID] = l.b.MethodHandle(def, on, args...)
	return nil
}

func (l *loader) findMethod(owner *metadata.Type, h MethodHandleDecl) (*metadata.MethodDef, error) {
	var match *metadata.MethodDef
	for _, m := range owner.AnchoringDefinition().Methods {
		if m.Name != h.Method {
			continue
		}
		if h.Params != nil && !l.sameParams(m, h.Params) {
			continue
		}
		if match != nil {
			return nil, errors.InvalidData(errors.PhaseLoad, []string{"handles", "methods", h.ID},
				"method "+h.Method+" is overloaded; list params to select one")
		}
		match = m
	}
	if match == nil {
		return nil, errors.NotFound(errors.PhaseLoad, "method", owner.FullName()+"."+h.Method)
	}
	return match, nil
}

func (l *loader) sameParams(m *metadata.MethodDef, want []string) bool {
	if len(m.Params) != len(want) {
		return false
	}
	sc := scope{typeParams: l.params[m.Owner]}
	for i, p := range m.Params {
		if p.Type.Kind == metadata.KindGenericParameter {
			if p.Type.Name != want[i] {
				return false
			}
			continue
		}
		t, err := l.resolve(want[i], sc)
		if err != nil || t != p.Type {
			return false
		}
	}
	return true
}

func (l *loader) defineFieldHandle(h FieldHandleDecl) error {
	if _, dup := l.img.FieldHandles[h.ID]; dup || h.ID == "" {
		return errors.InvalidData(errors.PhaseLoad, []string{"handles", "fields", h.ID}, "handle id must be unique and non-empty")
	}
	owner, err := l.resolve(h.Type, scope{})
	if err != nil {
		return err
	}
	def, ok := owner.FieldByName(h.Field)
	if !ok {
		return errors.NotFound(errors.PhaseLoad, "field", owner.FullName()+"."+h.Field)
	}

	if len(h.Shared) > 0 {
		contexts, err := l.resolveAll(h.Shared)
		if err != nil {
			return err
		}
		l.img.FieldHandles[h.ID] = l.b.SharedFieldHandle(def, contexts...)
		return nil
	}

	var on *metadata.Type
	if h.On != "" {
		if on, err = l.resolve(h.On, scope{}); err != nil {
			return err
		}
	}
	l.img.FieldHandles[h.ID] = l.b.FieldHandle(def, on)
	return nil
}

func (l *loader) resolveAll(refs []string) ([]*metadata.Type, error) {
	if len(refs) == 0 {
		return nil, nil
	}
	out := make([]*metadata.Type, len(refs))
	for i, r := range refs {
		t, err := l.resolve(r, scope{})
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
