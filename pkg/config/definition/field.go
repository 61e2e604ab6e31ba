package definition

import (
	"fmt"
	"reflect"
	"sort"
)

// FieldDef is one configuration key with everything the loaders and the
// CLI need to know about it.
type FieldDef struct {
	Path      string       // dotted koanf path, e.g. "sheets.spreadsheet_id"
	Default   any          // must have exactly Type
	CLIFlag   string       // empty when the key has no flag
	Shorthand string
	EnvVar    string
	Type      reflect.Type
	Help      string
}

// Registry indexes field definitions by path.
type Registry struct {
	fields map[string]FieldDef
}

func NewRegistry() *Registry {
	return &Registry{fields: make(map[string]FieldDef)}
}

// Register adds field. It panics on a repeated path, a repeated CLI flag or
// a default whose type differs from field.Type, since the flag and env
// layers convert values by that type.
func (r *Registry) Register(field *FieldDef) {
	if _, dup := r.fields[field.Path]; dup {
		panic(fmt.Sprintf("definition: %s registered twice", field.Path))
	}
	if field.Default != nil && reflect.TypeOf(field.Default) != field.Type {
		panic(fmt.Sprintf("definition: %s default is %T, want %s", field.Path, field.Default, field.Type))
	}
	if field.CLIFlag != "" {
		if other, taken := r.FlagPaths()[field.CLIFlag]; taken {
			panic(fmt.Sprintf("definition: flag --%s used by %s and %s", field.CLIFlag, other, field.Path))
		}
	}
	r.fields[field.Path] = *field
}

func (r *Registry) Field(path string) (FieldDef, bool) {
	field, ok := r.fields[path]
	return field, ok
}

// Default returns the default of path, or nil for an unknown path.
func (r *Registry) Default(path string) any {
	return r.fields[path].Default
}

// Fields returns every definition ordered by path.
func (r *Registry) Fields() []FieldDef {
	out := make([]FieldDef, 0, len(r.fields))
	for _, f := range r.fields {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// FlagPaths maps CLI flag names to config paths.
func (r *Registry) FlagPaths() map[string]string {
	mapping := make(map[string]string)
	for path, field := range r.fields {
		if field.CLIFlag != "" {
			mapping[field.CLIFlag] = path
		}
	}
	return mapping
}
