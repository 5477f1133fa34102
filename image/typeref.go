package image

import (
	"strings"

	"github.com/wippyai/reflect-runtime/errors"
)

// typeRef is a parsed type reference: a full name plus generic arguments.
type typeRef struct {
	name string
	args []typeRef
}

// parseTypeRef parses "Ns.Name", "Ns.Name`2[A,Ns.B`1[C]]" and the like.
func parseTypeRef(s string) (typeRef, error) {
	ref, rest, err := parseRefPrefix(strings.TrimSpace(s))
	if err != nil {
		return typeRef{}, err
	}
	if rest != "" {
		return typeRef{}, badRef(s, "trailing "+rest)
	}
	return ref, nil
}

func parseRefPrefix(s string) (typeRef, string, error) {
	end := strings.IndexAny(s, "[],")
	if end < 0 {
		end = len(s)
	}
	ref := typeRef{name: strings.TrimSpace(s[:end])}
	if ref.name == "" {
		return typeRef{}, "", badRef(s, "missing type name")
	}
	if strings.ContainsAny(ref.name, " \t") {
		return typeRef{}, "", badRef(s, "space in type name")
	}
	s = s[end:]
	if !strings.HasPrefix(s, "[") {
		return ref, s, nil
	}

	s = s[1:]
	for {
		arg, rest, err := parseRefPrefix(strings.TrimSpace(s))
		if err != nil {
			return typeRef{}, "", err
		}
		ref.args = append(ref.args, arg)
		rest = strings.TrimSpace(rest)
		switch {
		case strings.HasPrefix(rest, ","):
			s = rest[1:]
		case strings.HasPrefix(rest, "]"):
			return ref, rest[1:], nil
		default:
			return typeRef{}, "", badRef(s, "unterminated argument list")
		}
	}
}

func (r typeRef) String() string {
	if len(r.args) == 0 {
		return r.name
	}
	var b strings.Builder
	b.WriteString(r.name)
	b.WriteByte('[')
	for i, a := range r.args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.String())
	}
	b.WriteByte(']')
	return b.String()
}

// splitName splits a full name at its last dot.
func splitName(full string) (namespace, name string) {
	i := strings.LastIndexByte(full, '.')
	if i < 0 {
		return "", full
	}
	return full[:i], full[i+1:]
}

func badRef(ref, detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Type(ref).
		Detail("bad type reference: %s", detail).
		Build()
}
