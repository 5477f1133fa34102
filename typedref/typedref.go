// Package typedref builds typed references: the type and byte offset reached
// by following a chain of fields from an object.
package typedref

import (
	"math"

	"github.com/wippyai/reflect-runtime/binder"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Reference is the type of the last field in a chain and its offset from the
// start of the target object's data.
type Reference struct {
	Type   *metadata.Type
	Offset int
}

// Build walks chain starting from target's runtime type. Every field but the
// last must be of an embeddable type, and each field must be declared on the
// type reached so far or one of its base types.
func Build(target metadata.Object, chain []*binder.Field) (Reference, error) {
	if target == nil {
		return Reference{}, errors.NilArgument(errors.PhaseTypedRef, "target")
	}
	if len(chain) == 0 {
		return Reference{}, errors.InvalidArgument(errors.PhaseTypedRef, "fields", "field chain is empty")
	}
	current := target.RuntimeType()
	if current == nil {
		return Reference{}, errors.InvalidArgument(errors.PhaseTypedRef, "target", "target has no runtime type")
	}

	offset := 0
	path := make([]string, 0, len(chain))
	for i, f := range chain {
		if f == nil {
			return Reference{}, errors.InvalidArgument(errors.PhaseTypedRef, "fields", "field chain contains nil")
		}
		path = append(path, f.Name())

		if f.IsStatic() {
			return Reference{}, errors.InvalidField(errors.PhaseTypedRef, path, "static fields have no instance offset")
		}
		if !declaredOn(f.DeclaringType(), current) {
			return Reference{}, errors.TypeMismatch(errors.PhaseTypedRef, path,
				f.DeclaringType().FullName(), current.FullName())
		}
		fieldType := f.FieldType()
		if i < len(chain)-1 && !fieldType.IsEmbeddable() {
			return Reference{}, errors.NestedReference(errors.PhaseTypedRef, path, fieldType.FullName())
		}
		if f.Offset() < 0 {
			return Reference{}, errors.InvalidField(errors.PhaseTypedRef, path, "negative field offset")
		}
		if offset > math.MaxInt32-f.Offset() {
			return Reference{}, errors.Overflow(errors.PhaseTypedRef, path, int64(offset)+int64(f.Offset()), "int32 offset")
		}

		offset += f.Offset()
		current = fieldType
	}
	return Reference{Type: current, Offset: offset}, nil
}

func declaredOn(declaring, t *metadata.Type) bool {
	for a := range metadata.Ancestors(t) {
		if a == declaring {
			return true
		}
	}
	return false
}
