package metadata

// CacheKind selects one of the per-type cache slots.
type CacheKind uint8

const (
	CacheEnumTable CacheKind = iota
	CacheInvokeInfo
	numCacheKinds
)

// LoadCached returns the value published in t's slot for kind.
func LoadCached[T any](t *Type, kind CacheKind) (*T, bool) {
	v, ok := t.cache[kind].Load().(*T)
	return v, ok && v != nil
}

// PublishCached stores v in t's slot for kind unless another value got there
// first, and returns whichever value is now published. Values racing for the
// same slot must be equivalent: the loser is discarded.
func PublishCached[T any](t *Type, kind CacheKind, v *T) *T {
	if t.cache[kind].CompareAndSwap(nil, v) {
		return v
	}
	if existing, ok := t.cache[kind].Load().(*T); ok && existing != nil {
		return existing
	}
	return v
}
