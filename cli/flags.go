package cli

import (
	"fmt"
	"reflect"

	"github.com/devclub/formsheets/pkg/config/definition"
	"github.com/spf13/pflag"
)

// addRegistryFlags declares the CLI flags of the given config paths with
// the name, shorthand, default and help text from the registry.
func addRegistryFlags(fs *pflag.FlagSet, registry *definition.Registry, paths ...string) {
	for _, path := range paths {
		field, ok := registry.Field(path)
		if !ok || field.CLIFlag == "" {
			panic(fmt.Sprintf("cli: config path %q has no CLI flag", path))
		}
		switch field.Type.Kind() {
		case reflect.Int:
			v, _ := field.Default.(int)
			fs.IntP(field.CLIFlag, field.Shorthand, v, field.Help)
		case reflect.Bool:
			v, _ := field.Default.(bool)
			fs.BoolP(field.CLIFlag, field.Shorthand, v, field.Help)
		default:
			v, _ := field.Default.(string)
			fs.StringP(field.CLIFlag, field.Shorthand, v, field.Help)
		}
	}
}

// flagValue reads a changed flag with the getter matching the registry type.
func flagValue(fs *pflag.FlagSet, field *definition.FieldDef) (any, error) {
	switch field.Type.Kind() {
	case reflect.Int:
		return fs.GetInt(field.CLIFlag)
	case reflect.Bool:
		return fs.GetBool(field.CLIFlag)
	default:
		return fs.GetString(field.CLIFlag)
	}
}
