package image

import (
	"fmt"
	"strings"

	"go.bytecodealliance.org/wit"

	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
	"github.com/wippyai/reflect-runtime/witenv"
)

// WITPackage declares WIT types and interfaces imported under one namespace.
type WITPackage struct {
	Namespace  string             `yaml:"namespace"`
	Types      []WITTypeDecl      `yaml:"types,omitempty"`
	Interfaces []WITInterfaceDecl `yaml:"interfaces,omitempty"`
}

// WITTypeDecl declares one named WIT type. Exactly one of the kind fields
// is set. Type expressions use WIT syntax: u32, string, list<u8>,
// option<point>, tuple<u8, string>, result<u32, error-code>, own<stream>.
type WITTypeDecl struct {
	Name     string         `yaml:"name"`
	Record   []WITNamedDecl `yaml:"record,omitempty"`
	Variant  []WITNamedDecl `yaml:"variant,omitempty"`
	Tuple    []string       `yaml:"tuple,omitempty"`
	Enum     []string       `yaml:"enum,omitempty"`
	Flags    []string       `yaml:"flags,omitempty"`
	Resource bool           `yaml:"resource,omitempty"`
	// Alias names another type expression.
	Alias string `yaml:"type,omitempty"`

	// Functions are resource methods, static functions and constructors.
	Functions []WITFunctionDecl `yaml:"functions,omitempty"`
}

// WITNamedDecl is a record field, variant case or function parameter.
// Variant cases may omit the type.
type WITNamedDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// WITFunctionDecl declares a function. Kind is method, static or
// constructor on resources and empty on interfaces.
type WITFunctionDecl struct {
	Name   string         `yaml:"name"`
	Kind   string         `yaml:"kind,omitempty"`
	Params []WITNamedDecl `yaml:"params,omitempty"`
	Result string         `yaml:"result,omitempty"`
}

// WITInterfaceDecl groups freestanding functions into a class.
type WITInterfaceDecl struct {
	Name      string            `yaml:"name"`
	Functions []WITFunctionDecl `yaml:"functions,omitempty"`
}

type witLoader struct {
	im   *witenv.Importer
	pkg  *WITPackage
	defs map[string]*wit.TypeDef
	deps map[string][]string
	done map[string]bool
}

func (l *loader) importWIT(d *Document) error {
	for i := range d.WIT {
		pkg := &d.WIT[i]
		if pkg.Namespace == "" {
			return errors.InvalidData(errors.PhaseLoad, []string{fmt.Sprintf("wit[%d]", i)}, "namespace is required")
		}
		wl := &witLoader{
			im:   witenv.New(l.b, pkg.Namespace),
			pkg:  pkg,
			defs: make(map[string]*wit.TypeDef),
			deps: make(map[string][]string),
			done: make(map[string]bool),
		}
		if err := wl.load(); err != nil {
			return err
		}
	}
	return nil
}

func (wl *witLoader) load() error {
	for i := range wl.pkg.Types {
		decl := &wl.pkg.Types[i]
		if _, dup := wl.defs[decl.Name]; dup || decl.Name == "" {
			return errors.InvalidData(errors.PhaseLoad, []string{wl.pkg.Namespace, decl.Name}, "WIT type names must be unique and non-empty")
		}
		td := &wit.TypeDef{}
		if decl.Resource {
			td.Kind = &wit.Resource{}
		}
		wl.defs[decl.Name] = td
	}
	for i := range wl.pkg.Types {
		if err := wl.fill(&wl.pkg.Types[i]); err != nil {
			return err
		}
	}
	for i := range wl.pkg.Types {
		if err := wl.define(wl.pkg.Types[i].Name, nil); err != nil {
			return err
		}
	}

	for i := range wl.pkg.Types {
		decl := &wl.pkg.Types[i]
		if len(decl.Functions) == 0 {
			continue
		}
		if !decl.Resource {
			return errors.InvalidData(errors.PhaseLoad, []string{wl.pkg.Namespace, decl.Name}, "only resources have functions")
		}
		owner, err := wl.im.TypeOf(wl.defs[decl.Name])
		if err != nil {
			return err
		}
		for _, fd := range decl.Functions {
			if err := wl.function(owner, fd, true); err != nil {
				return err
			}
		}
	}
	for _, iface := range wl.pkg.Interfaces {
		owner := wl.im.DefineInterface(iface.Name)
		for _, fd := range iface.Functions {
			if err := wl.function(owner, fd, false); err != nil {
				return err
			}
		}
	}
	return nil
}

// fill sets the kind of a declared type definition.
func (wl *witLoader) fill(decl *WITTypeDecl) error {
	td := wl.defs[decl.Name]
	set := 0
	for _, present := range []bool{
		decl.Record != nil, decl.Variant != nil, decl.Tuple != nil,
		decl.Enum != nil, decl.Flags != nil, decl.Resource, decl.Alias != "",
	} {
		if present {
			set++
		}
	}
	if set != 1 {
		return errors.InvalidData(errors.PhaseLoad, []string{wl.pkg.Namespace, decl.Name}, "exactly one WIT kind must be declared")
	}

	typ := func(expr string) (wit.Type, error) {
		return wl.parse(expr, decl.Name)
	}
	switch {
	case decl.Record != nil:
		r := &wit.Record{}
		for _, f := range decl.Record {
			ft, err := typ(f.Type)
			if err != nil {
				return err
			}
			r.Fields = append(r.Fields, wit.Field{Name: f.Name, Type: ft})
		}
		td.Kind = r
	case decl.Variant != nil:
		v := &wit.Variant{}
		for _, c := range decl.Variant {
			var ct wit.Type
			if c.Type != "" {
				t, err := typ(c.Type)
				if err != nil {
					return err
				}
				ct = t
			}
			v.Cases = append(v.Cases, wit.Case{Name: c.Name, Type: ct})
		}
		td.Kind = v
	case decl.Tuple != nil:
		tup := &wit.Tuple{}
		for _, expr := range decl.Tuple {
			et, err := typ(expr)
			if err != nil {
				return err
			}
			tup.Types = append(tup.Types, et)
		}
		td.Kind = tup
	case decl.Enum != nil:
		e := &wit.Enum{}
		for _, name := range decl.Enum {
			e.Cases = append(e.Cases, wit.EnumCase{Name: name})
		}
		td.Kind = e
	case decl.Flags != nil:
		f := &wit.Flags{}
		for _, name := range decl.Flags {
			f.Flags = append(f.Flags, wit.Flag{Name: name})
		}
		td.Kind = f
	case decl.Resource:
		td.Kind = &wit.Resource{}
	default:
		target, err := typ(decl.Alias)
		if err != nil {
			return err
		}
		kind, ok := target.(wit.TypeDefKind)
		if !ok {
			return errors.InvalidData(errors.PhaseLoad, []string{wl.pkg.Namespace, decl.Name}, "cannot alias "+decl.Alias)
		}
		td.Kind = kind
	}
	return nil
}

// define imports name after the named types it refers to, so that they keep
// their names.
func (wl *witLoader) define(name string, visiting []string) error {
	if wl.done[name] {
		return nil
	}
	for _, v := range visiting {
		if v == name {
			return errors.InvalidData(errors.PhaseLoad, []string{wl.pkg.Namespace, name}, "WIT type refers to itself")
		}
	}
	visiting = append(visiting, name)
	for _, dep := range wl.deps[name] {
		if err := wl.define(dep, visiting); err != nil {
			return err
		}
	}
	if _, err := wl.im.Define(name, wl.defs[name]); err != nil {
		return err
	}
	wl.done[name] = true
	return nil
}

func (wl *witLoader) function(owner *metadata.Type, fd WITFunctionDecl, resource bool) error {
	f := witenv.Function{Name: fd.Name}
	switch fd.Kind {
	case "":
		if resource {
			f.Kind = witenv.Method
		}
	case "method":
		f.Kind = witenv.Method
	case "static":
		f.Kind = witenv.Static
	case "constructor":
		f.Kind = witenv.Constructor
	default:
		return errors.InvalidData(errors.PhaseLoad, []string{owner.FullName(), fd.Name}, "unknown function kind "+fd.Kind)
	}
	if !resource && f.Kind != witenv.Freestanding {
		return errors.InvalidData(errors.PhaseLoad, []string{owner.FullName(), fd.Name}, "interface functions cannot be "+fd.Kind)
	}

	for _, p := range fd.Params {
		pt, err := wl.parse(p.Type, "")
		if err != nil {
			return err
		}
		f.Params = append(f.Params, witenv.Param{Name: p.Name, Type: pt})
	}
	if fd.Result != "" {
		rt, err := wl.parse(fd.Result, "")
		if err != nil {
			return err
		}
		f.Result = rt
	}

	_, err := wl.im.DefineFunction(owner, f)
	return err
}

// parse reads a WIT type expression. References to named types made while
// filling from are recorded as dependencies.
func (wl *witLoader) parse(expr, from string) (wit.Type, error) {
	t, rest, err := wl.parsePrefix(strings.TrimSpace(expr), from)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(rest) != "" {
		return nil, badWIT(expr, "trailing "+rest)
	}
	return t, nil
}

func (wl *witLoader) parsePrefix(s, from string) (wit.Type, string, error) {
	end := strings.IndexAny(s, "<>,")
	if end < 0 {
		end = len(s)
	}
	name := strings.TrimSpace(s[:end])
	rest := s[end:]
	if name == "" {
		return nil, "", badWIT(s, "missing type")
	}

	var args []wit.Type
	if strings.HasPrefix(rest, "<") {
		rest = rest[1:]
		for {
			arg, r, err := wl.parsePrefix(strings.TrimSpace(rest), from)
			if err != nil {
				return nil, "", err
			}
			args = append(args, arg)
			r = strings.TrimSpace(r)
			if strings.HasPrefix(r, ",") {
				rest = r[1:]
				continue
			}
			if !strings.HasPrefix(r, ">") {
				return nil, "", badWIT(s, "unterminated type arguments")
			}
			rest = r[1:]
			break
		}
	}

	t, err := wl.construct(name, args, from)
	return t, rest, err
}

func (wl *witLoader) construct(name string, args []wit.Type, from string) (wit.Type, error) {
	arity := func(n int) error {
		if len(args) != n {
			return badWIT(name, fmt.Sprintf("takes %d type arguments, got %d", n, len(args)))
		}
		return nil
	}
	resource := func() (*wit.TypeDef, error) {
		if err := arity(1); err != nil {
			return nil, err
		}
		td, ok := args[0].(*wit.TypeDef)
		if !ok {
			return nil, badWIT(name, "handle argument must be a resource")
		}
		if _, isRes := td.Kind.(*wit.Resource); !isRes {
			return nil, badWIT(name, "handle argument must be a resource")
		}
		return td, nil
	}

	switch name {
	case "list":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.List{Type: args[0]}}, nil
	case "option":
		if err := arity(1); err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Option{Type: args[0]}}, nil
	case "tuple":
		return &wit.TypeDef{Kind: &wit.Tuple{Types: args}}, nil
	case "result":
		switch len(args) {
		case 0:
			return &wit.TypeDef{Kind: &wit.Result{}}, nil
		case 2:
			return &wit.TypeDef{Kind: &wit.Result{OK: args[0], Err: args[1]}}, nil
		}
		return nil, badWIT(name, "result takes zero or two type arguments")
	case "own":
		td, err := resource()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Own{Type: td}}, nil
	case "borrow":
		td, err := resource()
		if err != nil {
			return nil, err
		}
		return &wit.TypeDef{Kind: &wit.Borrow{Type: td}}, nil
	case "_":
		return nil, arity(0)
	}

	if len(args) > 0 {
		return nil, badWIT(name, "only built-in types take type arguments")
	}
	if td, ok := wl.defs[name]; ok {
		if from != "" {
			wl.deps[from] = append(wl.deps[from], name)
		}
		return td, nil
	}
	t, err := wit.ParseType(name)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseLoad, "WIT type", name)
	}
	return t, nil
}

func badWIT(expr, detail string) error {
	return errors.New(errors.PhaseLoad, errors.KindInvalidData).
		Type(expr).
		Detail("bad WIT type: %s", detail).
		Build()
}
