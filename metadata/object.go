package metadata

// Object is a managed instance whose runtime type is known.
type Object interface {
	RuntimeType() *Type
}

// Instance is the minimal Object: an instance identified by its type.
type Instance struct {
	Type *Type
}

func NewInstance(t *Type) *Instance {
	return &Instance{Type: t}
}

func (i *Instance) RuntimeType() *Type {
	if i == nil {
		return nil
	}
	return i.Type
}
