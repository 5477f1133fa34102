package main

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/env"
	rerrors "github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
	"github.com/wippyai/reflect-runtime/runtime"
	"github.com/wippyai/reflect-runtime/typedref"
)

// session is a loaded environment plus the runtime over it.
type session struct {
	mem           *env.Memory
	rt            *runtime.Runtime
	methodHandles map[string]metadata.MethodHandle
	fieldHandles  map[string]metadata.FieldHandle
	source        string
}

// userTypes returns the non-core type definitions and instantiations.
func (s *session) userTypes(all bool) []*metadata.Type {
	var out []*metadata.Type
	for _, t := range s.mem.Types() {
		if t.Kind == metadata.KindGenericParameter {
			continue
		}
		if !all && t.Namespace == "System" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// describe renders a type: header, fields with offsets, methods and enum values.
func (s *session) describe(t *metadata.Type) []string {
	var lines []string
	header := fmt.Sprintf("%s %s", t.Kind, t.FullName())
	if t.Base != nil {
		header += " : " + t.Base.FullName()
	}
	if t.MetadataOnly {
		header += " [metadata only]"
	}
	lines = append(lines, header)
	lines = append(lines, fmt.Sprintf("  handle %#x  token %s  typecode %s", t.Handle.Value(), t.Token, s.rt.TypeCode(t)))

	members := s.rt.Binder()
	for _, f := range members.DeclaredFields(t) {
		scope := ""
		if f.IsStatic() {
			scope = "static "
		}
		lines = append(lines, fmt.Sprintf("  +%-4d %s%s %s", f.Offset(), scope, f.FieldType().FullName(), f.Name()))
	}
	for _, m := range members.DeclaredMethods(t) {
		lines = append(lines, "  "+m.String())
	}

	if t.IsEnum() {
		table, err := s.rt.EnumTable(t)
		if err != nil {
			lines = append(lines, "  enum: "+err.Error())
			return lines
		}
		kind := "values"
		if table.IsFlags {
			kind = "flags"
		}
		lines = append(lines, fmt.Sprintf("  %s (%s):", kind, table.Underlying.FullName()))
		for i, name := range table.Names {
			v := table.Values[i]
			if table.Signed() {
				lines = append(lines, fmt.Sprintf("    %-12s %d", name, table.SignedValue(v)))
			} else {
				lines = append(lines, fmt.Sprintf("    %-12s %#x", name, v))
			}
		}
	}
	if t.IsDelegate() {
		if info, err := s.rt.DelegateInvokeInfo(t); err == nil {
			lines = append(lines, fmt.Sprintf("  invoke %s thunk %#x", info.Invoke, info.Thunk))
		}
	}
	return lines
}

// describeHandles resolves every named handle. Ambiguous generic handles are
// resolved once per registered context.
func (s *session) describeHandles() []string {
	var lines []string
	for _, id := range sortedKeys(s.methodHandles) {
		h := s.methodHandles[id]
		m, err := s.rt.MethodFromHandle(h)
		switch {
		case err == nil:
			lines = append(lines, fmt.Sprintf("method %-16s %s", id, m))
		case errors.Is(err, rerrors.ErrAmbiguousGeneric):
			lines = append(lines, fmt.Sprintf("method %-16s needs a declaring type", id))
			for _, ctx := range s.mem.MethodContexts(h) {
				m, err := s.rt.MethodFromHandleIn(h, metadata.Context(ctx))
				if err != nil {
					lines = append(lines, "    "+err.Error())
					continue
				}
				lines = append(lines, "    in "+env.TypeName(s.mem, ctx)+": "+m.String())
			}
		default:
			lines = append(lines, fmt.Sprintf("method %-16s %v", id, err))
		}
	}
	for _, id := range sortedKeys(s.fieldHandles) {
		f, err := s.rt.FieldFromHandle(s.fieldHandles[id])
		if err != nil {
			lines = append(lines, fmt.Sprintf("field  %-16s %v", id, err))
			continue
		}
		lines = append(lines, fmt.Sprintf("field  %-16s %s", id, f))
	}
	return lines
}

// typedRef computes a typed reference from "Type:field.field...". Each field
// is looked up on the current type and its ancestors.
func (s *session) typedRef(spec string) (typedref.Reference, []*binder.Field, error) {
	typeName, path, ok := strings.Cut(spec, ":")
	if !ok || path == "" {
		return typedref.Reference{}, nil, fmt.Errorf("typed reference %q: want Type:field.field", spec)
	}
	root, ok := s.mem.LookupType(typeName)
	if !ok {
		return typedref.Reference{}, nil, rerrors.NotFound(rerrors.PhaseTypedRef, "type", typeName)
	}

	var chain []*binder.Field
	current := root
	for name := range strings.SplitSeq(path, ".") {
		f, err := s.findField(current, name)
		if err != nil {
			return typedref.Reference{}, nil, err
		}
		chain = append(chain, f)
		current = f.FieldType()
	}
	ref, err := s.rt.MakeTypedReference(metadata.NewInstance(root), chain)
	return ref, chain, err
}

func (s *session) findField(t *metadata.Type, name string) (*binder.Field, error) {
	for a := range metadata.Ancestors(t) {
		if def, ok := a.FieldByName(name); ok {
			return s.rt.Binder().Field(def, a), nil
		}
	}
	return nil, rerrors.NotFound(rerrors.PhaseTypedRef, "field", t.FullName()+"."+name)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
