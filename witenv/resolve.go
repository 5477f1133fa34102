package witenv

import (
	"fmt"
	"io"

	"go.bytecodealliance.org/wit"
	"go.uber.org/zap"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// DecodeJSON reads the JSON form of a resolved WIT package set, as printed
// by wasm-tools component wit --json.
func DecodeJSON(r io.Reader) (*wit.Resolve, error) {
	res, err := wit.DecodeJSON(r)
	if err != nil {
		return nil, errors.Load("decode WIT JSON", err)
	}
	return res, nil
}

// ImportResolve defines every named type of res in order. Resolved
// packages list dependencies before their users. Names that repeat across
// interfaces get a numeric suffix.
func (im *Importer) ImportResolve(res *wit.Resolve) ([]*metadata.Type, error) {
	if res == nil {
		return nil, errors.NilArgument(errors.PhaseLoad, "res")
	}
	seen := make(map[string]int)
	var out []*metadata.Type
	for _, td := range res.TypeDefs {
		if td == nil || td.Name == nil {
			continue
		}
		name := *td.Name
		if n := seen[name]; n > 0 {
			name = fmt.Sprintf("%s-%d", name, n+1)
		}
		seen[*td.Name]++

		t, err := im.Define(name, td)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	Logger().Info("imported WIT package set",
		zap.String("namespace", im.namespace),
		zap.Int("types", len(out)))
	return out, nil
}
