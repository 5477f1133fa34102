package metadata

import "iter"

// Ancestors yields t followed by each of its base types up to the root.
// The sequence is finite and may be ranged over any number of times.
func Ancestors(t *Type) iter.Seq[*Type] {
	return func(yield func(*Type) bool) {
		for current := t; current != nil; current = current.Base {
			if !yield(current) {
				return
			}
		}
	}
}

// Only yields t alone; it is the non-walking counterpart of Ancestors.
func Only(t *Type) iter.Seq[*Type] {
	return func(yield func(*Type) bool) {
		if t != nil {
			yield(t)
		}
	}
}

// IsSubclassOf reports whether t derives from other. A type is not a
// subclass of itself.
func (t *Type) IsSubclassOf(other *Type) bool {
	if t == nil || other == nil {
		return false
	}
	for current := t.Base; current != nil; current = current.Base {
		if current == other {
			return true
		}
	}
	return false
}

// Implements reports whether t or one of its base types lists iface.
func (t *Type) Implements(iface *Type) bool {
	for current := range Ancestors(t) {
		for _, i := range current.Interfaces {
			if i == iface {
				return true
			}
		}
	}
	return false
}

// IsAssignableFrom reports whether a value of type source can be used where
// target is expected without conversion. Value types are only assignable to
// themselves.
func IsAssignableFrom(target, source *Type) bool {
	if target == source {
		return true
	}
	if target == nil || source == nil || source.IsValueType() {
		return false
	}
	if target.IsInterface() {
		return source.Implements(target)
	}
	return source.IsSubclassOf(target)
}
