package layout

import "go.bytecodealliance.org/wit"

// Info is the memory layout of a WIT type.
type Info struct {
	// Offsets holds record field or tuple element offsets in declaration order.
	Offsets []uint32
	Size    uint32
	Align   uint32
	// Payload is the offset of the payload of a variant, option or result.
	Payload uint32
}

type Calculator struct {
	cache map[*wit.TypeDef]Info
}

func NewCalculator() *Calculator {
	return &Calculator{
		cache: make(map[*wit.TypeDef]Info),
	}
}

func (c *Calculator) Calculate(t wit.Type) Info {
	switch typ := t.(type) {
	case wit.U8, wit.S8, wit.Bool:
		return Info{Size: 1, Align: 1}
	case wit.U16, wit.S16:
		return Info{Size: 2, Align: 2}
	case wit.U32, wit.S32, wit.F32, wit.Char:
		return Info{Size: 4, Align: 4}
	case wit.U64, wit.S64, wit.F64:
		return Info{Size: 8, Align: 8}
	case wit.String:
		return Info{Size: 8, Align: 4}
	case *wit.TypeDef:
		return c.typeDef(typ)
	default:
		return Info{Size: 0, Align: 1}
	}
}

func (c *Calculator) typeDef(t *wit.TypeDef) Info {
	if cached, ok := c.cache[t]; ok {
		return cached
	}

	var info Info
	switch kind := t.Kind.(type) {
	case *wit.Record:
		types := make([]wit.Type, len(kind.Fields))
		for i, f := range kind.Fields {
			types[i] = f.Type
		}
		info = c.sequence(types)
	case *wit.Tuple:
		info = c.sequence(kind.Types)
	case *wit.Variant:
		payloads := make([]wit.Type, len(kind.Cases))
		for i, cs := range kind.Cases {
			payloads[i] = cs.Type
		}
		info = c.tagged(len(kind.Cases), payloads...)
	case *wit.Option:
		info = c.tagged(2, kind.Type)
	case *wit.Result:
		info = c.tagged(2, kind.OK, kind.Err)
	case *wit.Enum:
		size := DiscriminantSize(len(kind.Cases))
		info = Info{Size: size, Align: size}
	case *wit.Flags:
		info = flags(len(kind.Flags))
	case *wit.List:
		info = Info{Size: 8, Align: 4}
	case *wit.Own, *wit.Borrow, *wit.Resource:
		info = Info{Size: 4, Align: 4}
	case wit.Type:
		info = c.Calculate(kind)
	default:
		info = Info{Size: 0, Align: 1}
	}

	c.cache[t] = info
	return info
}

func (c *Calculator) sequence(types []wit.Type) Info {
	if len(types) == 0 {
		return Info{Size: 0, Align: 1}
	}

	offsets := make([]uint32, len(types))
	maxAlign := uint32(1)
	offset := uint32(0)
	for i, typ := range types {
		elem := c.Calculate(typ)
		offset = AlignTo(offset, elem.Align)
		offsets[i] = offset
		maxAlign = max(maxAlign, elem.Align)
		offset += elem.Size
	}

	return Info{
		Offsets: offsets,
		Size:    AlignTo(offset, maxAlign),
		Align:   maxAlign,
	}
}

// tagged lays out a discriminant followed by the largest of payloads.
// Nil payloads are empty cases.
func (c *Calculator) tagged(cases int, payloads ...wit.Type) Info {
	disc := DiscriminantSize(cases)
	maxAlign := disc
	maxSize := uint32(0)
	for _, p := range payloads {
		if p == nil {
			continue
		}
		info := c.Calculate(p)
		maxAlign = max(maxAlign, info.Align)
		maxSize = max(maxSize, info.Size)
	}

	payload := AlignTo(disc, maxAlign)
	return Info{
		Size:    AlignTo(payload+maxSize, maxAlign),
		Align:   maxAlign,
		Payload: payload,
	}
}

func flags(n int) Info {
	switch {
	case n == 0:
		return Info{Size: 0, Align: 1}
	case n <= 8:
		return Info{Size: 1, Align: 1}
	case n <= 16:
		return Info{Size: 2, Align: 2}
	case n <= 32:
		return Info{Size: 4, Align: 4}
	case n <= 64:
		return Info{Size: 8, Align: 8}
	}
	// more than 64 flags: one u32 per 32 flags
	return Info{Size: uint32((n+31)/32) * 4, Align: 4}
}

// DiscriminantSize is 1 byte for up to 256 cases, 2 up to 65536, else 4.
func DiscriminantSize(cases int) uint32 {
	switch {
	case cases <= 256:
		return 1
	case cases <= 65536:
		return 2
	default:
		return 4
	}
}

func AlignTo(offset, align uint32) uint32 {
	if align == 0 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}
