package loader

import (
	"fmt"
	"slices"

	"github.com/zjrosen/composer/internal/typesystem"
	"github.com/zjrosen/composer/internal/typesystem/livetype"
)

// Builtin types are always resolvable and live in the core library assembly.
const (
	CoreAssembly        = "System.Runtime"
	CoreAssemblyVersion = "8.0.0.0"
)

var builtinNames = []string{"Object", "Boolean", "Int32", "Double", "String"}

// types resolves manifest type references to live types.
type types struct {
	assemblies map[string]*livetype.Assembly
	byName     map[string]*livetype.Type
	builtins   []*livetype.Type
	declared   []*livetype.Type
}

func newTypes() *types {
	core := livetype.NewAssembly(CoreAssembly, CoreAssemblyVersion)
	ts := &types{
		assemblies: map[string]*livetype.Assembly{CoreAssembly: core},
		byName:     make(map[string]*livetype.Type),
	}
	for _, name := range builtinNames {
		t := livetype.Class(core, "System", name)
		ts.byName["System."+name] = t
		ts.builtins = append(ts.builtins, t)
	}
	object := ts.byName["System.Object"]
	for _, t := range ts.builtins[1:] {
		t.WithBase(object)
	}
	return ts
}

func (ts *types) resolve(name string) (*livetype.Type, error) {
	if t, ok := ts.byName[name]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidManifest, name)
}

// declare runs in two passes so members and base types may refer to types declared later
// in the manifest.
func (ts *types) declare(asms []AssemblyDef, defs []TypeDef) error {
	for _, a := range asms {
		if a.Name == "" {
			return fmt.Errorf("%w: assembly without name", ErrInvalidManifest)
		}
		if _, dup := ts.assemblies[a.Name]; dup {
			return fmt.Errorf("%w: duplicate assembly %q", ErrInvalidManifest, a.Name)
		}
		asm := livetype.NewAssembly(a.Name, a.Version)
		if a.Culture != "" {
			asm.WithCulture(a.Culture)
		}
		if a.PublicKeyToken != "" {
			asm.WithPublicKeyToken(a.PublicKeyToken)
		}
		ts.assemblies[a.Name] = asm
	}

	for _, d := range defs {
		if d.Name == "" {
			return fmt.Errorf("%w: type without name", ErrInvalidManifest)
		}
		asm, err := ts.assemblyOf(d, asms)
		if err != nil {
			return err
		}
		full := d.FullName()
		if _, dup := ts.byName[full]; dup {
			return fmt.Errorf("%w: duplicate type %q", ErrInvalidManifest, full)
		}
		var t *livetype.Type
		if d.Interface {
			t = livetype.Interface(asm, d.Namespace, d.Name)
		} else {
			t = livetype.Class(asm, d.Namespace, d.Name)
		}
		ts.byName[full] = t
		ts.declared = append(ts.declared, t)
	}

	for i, d := range defs {
		if err := ts.fill(ts.declared[i], d); err != nil {
			return fmt.Errorf("type %s: %w", d.FullName(), err)
		}
	}
	for i, t := range ts.declared {
		if err := checkBaseChain(t); err != nil {
			return fmt.Errorf("type %s: %w", defs[i].FullName(), err)
		}
	}
	return nil
}

// assemblyOf falls back to the only declared assembly when d names none.
func (ts *types) assemblyOf(d TypeDef, asms []AssemblyDef) (*livetype.Assembly, error) {
	name := d.Assembly
	if name == "" {
		if len(asms) != 1 {
			return nil, fmt.Errorf("%w: type %s needs an assembly", ErrInvalidManifest, d.FullName())
		}
		name = asms[0].Name
	}
	if name == CoreAssembly {
		return nil, fmt.Errorf("%w: type %s cannot be declared in %s", ErrInvalidManifest, d.FullName(), CoreAssembly)
	}
	asm, ok := ts.assemblies[name]
	if !ok {
		return nil, fmt.Errorf("%w: type %s references unknown assembly %q", ErrInvalidManifest, d.FullName(), name)
	}
	return asm, nil
}

func (ts *types) fill(t *livetype.Type, d TypeDef) error {
	if d.Base != "" {
		if d.Interface {
			return fmt.Errorf("%w: interface cannot have a base type", ErrInvalidManifest)
		}
		base, err := ts.resolve(d.Base)
		if err != nil {
			return err
		}
		if base.IsInterface() {
			return fmt.Errorf("%w: base type %q is an interface", ErrInvalidManifest, d.Base)
		}
		t.WithBase(base)
	} else if !d.Interface {
		t.WithBase(ts.byName["System.Object"])
	}

	for _, name := range d.Implements {
		iface, err := ts.resolve(name)
		if err != nil {
			return err
		}
		if !iface.IsInterface() {
			return fmt.Errorf("%w: %q is not an interface", ErrInvalidManifest, name)
		}
		t.Implements(iface)
	}

	for _, p := range d.Properties {
		if p.Name == "" {
			return fmt.Errorf("%w: property without name", ErrInvalidManifest)
		}
		if t.Property(p.Name) != nil {
			return fmt.Errorf("%w: duplicate property %q", ErrInvalidManifest, p.Name)
		}
		pt, err := ts.resolve(p.Type)
		if err != nil {
			return fmt.Errorf("property %s: %w", p.Name, err)
		}
		t.WithProperty(p.Name, pt)
	}

	for _, m := range d.Methods {
		if m.Name == "" {
			return fmt.Errorf("%w: method without name", ErrInvalidManifest)
		}
		if t.Method(m.Name) != nil {
			return fmt.Errorf("%w: duplicate method %q", ErrInvalidManifest, m.Name)
		}
		var result *livetype.Type
		if m.Returns != "" {
			rt, err := ts.resolve(m.Returns)
			if err != nil {
				return fmt.Errorf("method %s: %w", m.Name, err)
			}
			result = rt
		}
		params, err := ts.params(m.Params)
		if err != nil {
			return fmt.Errorf("method %s: %w", m.Name, err)
		}
		t.WithMethod(m.Name, result, params...)
	}

	for i, c := range d.Constructors {
		params, err := ts.params(c.Params)
		if err != nil {
			return fmt.Errorf("constructor %d: %w", i, err)
		}
		t.WithConstructor(params...)
	}
	return nil
}

func (ts *types) params(defs []ParameterDef) ([]*livetype.Parameter, error) {
	out := make([]*livetype.Parameter, 0, len(defs))
	seen := make(map[string]bool, len(defs))
	for _, p := range defs {
		if p.Name == "" {
			return nil, fmt.Errorf("%w: parameter without name", ErrInvalidManifest)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("%w: duplicate parameter %q", ErrInvalidManifest, p.Name)
		}
		seen[p.Name] = true
		pt, err := ts.resolve(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		out = append(out, livetype.Param(p.Name, pt))
	}
	return out, nil
}

func checkBaseChain(t *livetype.Type) error {
	var chain []typesystem.Type
	for cur := typesystem.Type(t); cur != nil; cur = cur.BaseType() {
		if slices.Contains(chain, cur) {
			return fmt.Errorf("%w: inheritance cycle", ErrInvalidManifest)
		}
		chain = append(chain, cur)
	}
	return nil
}

// all returns builtins followed by declared types in manifest order.
func (ts *types) all() []*livetype.Type {
	return append(slices.Clone(ts.builtins), ts.declared...)
}
