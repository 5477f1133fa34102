package env

import (
	"slices"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// LayoutFields assigns sequential offsets to owner's instance fields,
// starting after the instance data of its base type. Existing offsets are
// overwritten. Instantiations of owner are laid out again for their own type
// arguments, so a definition must be laid out before types that embed one of
// its instantiations.
func (b *Builder) LayoutFields(owner *metadata.Type) {
	owner = owner.AnchoringDefinition()
	b.sequential[owner] = true
	offsets := b.sequentialOffsets(owner, nil)
	for i, f := range owner.Fields {
		if !f.Static {
			f.Offset = offsets[i]
		}
	}
}

// layoutInstance computes the offsets of a constructed type whose definition
// is laid out sequentially, using the substituted field types.
func (b *Builder) layoutInstance(t *metadata.Type, visiting []*metadata.Type) {
	if t == nil || t.Definition == nil || !b.sequential[t.Definition] {
		return
	}
	if slices.Contains(visiting, t) {
		b.fail(errors.New(errors.PhaseLoad, errors.KindInvalidData).
			Type(t.FullName()).
			Detail("type contains itself").
			Build())
		return
	}
	b.closeHierarchy(t)
	t.FieldOffsets = b.sequentialOffsets(t, append(visiting, t))
}

// sequentialOffsets lays out the instance fields of t one after another,
// parallel to its definition's field list. Static fields keep their offset.
func (b *Builder) sequentialOffsets(t *metadata.Type, visiting []*metadata.Type) []int {
	def := t.AnchoringDefinition()
	cursor := 0
	if def.Kind == metadata.KindClass && t.Base != nil {
		b.layoutInstance(t.Base, visiting)
		cursor = instanceSize(t.Base)
	}
	offsets := make([]int, len(def.Fields))
	for i, f := range def.Fields {
		if f.Static {
			offsets[i] = f.Offset
			continue
		}
		ft := b.substitute(f.Type, t.TypeArgs, nil)
		if ft != nil && ft.IsValueType() {
			if b.layoutInstance(ft, visiting); b.err != nil {
				return offsets
			}
		}
		size, align := sizeAlign(ft)
		offsets[i] = alignTo(cursor, align)
		cursor = offsets[i] + size
	}
	return offsets
}

// SizeOf returns the inline storage size of a value of type t.
func SizeOf(t *metadata.Type) int {
	size, _ := sizeAlign(t)
	return size
}

func sizeAlign(t *metadata.Type) (size, align int) {
	if t == nil {
		return 0, 1
	}
	switch t.Kind {
	case metadata.KindPrimitive:
		switch t.Element {
		case metadata.ElementVoid:
			return 0, 1
		case metadata.ElementR4:
			return 4, 4
		case metadata.ElementR8:
			return 8, 8
		case metadata.ElementString, metadata.ElementObject:
			return pointerSize, pointerSize
		}
		n := t.Element.Bits() / 8
		if n == 0 {
			return 0, 1
		}
		return n, n
	case metadata.KindEnum:
		return sizeAlign(t.Underlying)
	case metadata.KindStruct:
		align = structAlign(t)
		return alignTo(instanceSize(t), align), align
	default:
		return pointerSize, pointerSize
	}
}

// instanceSize is the end of the last instance field, base fields included.
func instanceSize(t *metadata.Type) int {
	end := 0
	for current := range metadata.Ancestors(t) {
		for _, f := range current.AnchoringDefinition().Fields {
			if f.Static {
				continue
			}
			size, _ := sizeAlign(metadata.Substitute(f.Type, current.TypeArgs, nil))
			if e := current.FieldOffset(f) + size; e > end {
				end = e
			}
		}
		if current.Kind != metadata.KindClass {
			break
		}
	}
	return end
}

func structAlign(t *metadata.Type) int {
	align := 1
	for _, f := range t.AnchoringDefinition().Fields {
		if f.Static {
			continue
		}
		if _, a := sizeAlign(metadata.Substitute(f.Type, t.TypeArgs, nil)); a > align {
			align = a
		}
	}
	return align
}

func alignTo(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
