// Package cli derives command line options from a property set.
//
// Every property becomes one long option named after it: boolean
// properties are flags, list-valued properties take comma-separated
// values, and everything else takes a single value. Usage builds a docopt
// usage string; Apply writes parsed arguments back into the set through
// the ordinary casting and validation pipeline, so an out-of-range
// argument fails with the property's own typed error rather than being
// silently clamped.
package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docopt/docopt-go"

	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
)

// Usage builds a docopt usage string exposing one option per property.
func Usage(set *props.PropertySet, prog, description string) string {
	var sb strings.Builder

	if description != "" {
		sb.WriteString(description)
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "Usage:\n    %s [options]\n\nOptions:\n", prog)
	sb.WriteString("    -h --help    Show this screen.\n")

	for _, name := range set.Names() {
		switch {
		case isFlag(set, name):
			fmt.Fprintf(&sb, "    --%s    Enable the %s property.\n", name, name)
		case isList(set, name):
			fmt.Fprintf(&sb, "    --%s=<values>    Set the %s property (comma separated).\n", name, name)
		default:
			fmt.Fprintf(&sb, "    --%s=<value>    Set the %s property.\n", name, name)
		}
	}
	return sb.String()
}

// Parse parses the given arguments against the set's generated usage.
func Parse(set *props.PropertySet, prog, description string, argv []string) (docopt.Opts, error) {
	// NoHelpHandler keeps parse failures in-process; the default handler
	// prints the usage and exits, which a library must never do.
	parser := docopt.Parser{HelpHandler: docopt.NoHelpHandler, SkipHelpFlags: false}
	opts, err := parser.ParseArgs(Usage(set, prog, description), argv, "")
	if err != nil {
		return nil, errors.E("cli.Parse", errors.KindValidation, prog, err)
	}
	return opts, nil
}

// Apply writes parsed options into the set. Options the user did not
// supply leave their properties at the current value. The first failing
// property aborts with its typed error.
func Apply(set *props.PropertySet, opts docopt.Opts) error {
	// docopt.Opts is a map; apply in declaration order for deterministic
	// failure reporting.
	for _, name := range set.Names() {
		key := "--" + name
		raw, ok := opts[key]
		if !ok || raw == nil {
			continue
		}

		if isFlag(set, name) {
			if supplied, _ := raw.(bool); supplied {
				if err := set.Set(name, true); err != nil {
					return err
				}
			}
			continue
		}

		value, ok := raw.(string)
		if !ok {
			continue
		}

		if isList(set, name) {
			if err := applyList(set, name, value); err != nil {
				return err
			}
			continue
		}

		if err := set.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

// ParseAndApply is the common path: generate usage, parse, apply.
func ParseAndApply(set *props.PropertySet, prog, description string, argv []string) error {
	opts, err := Parse(set, prog, description, argv)
	if err != nil {
		return err
	}
	return Apply(set, opts)
}

// applyList replaces a list property's contents with the comma-separated
// values, growing or shrinking the list as needed.
func applyList(set *props.PropertySet, name, value string) error {
	l, err := set.List(name)
	if err != nil {
		return err
	}

	var values []any
	if value != "" {
		for _, part := range strings.Split(value, ",") {
			values = append(values, strings.TrimSpace(part))
		}
	}

	common := l.Len()
	if len(values) < common {
		common = len(values)
	}

	if common > 0 {
		if err := l.SetSlice(0, values[:common]); err != nil {
			return err
		}
	}
	for l.Len() > len(values) {
		if _, err := l.Pop(-1); err != nil {
			return err
		}
	}
	if len(values) > l.Len() {
		if err := l.Extend(values[l.Len():]); err != nil {
			return err
		}
	}
	return nil
}

// Supplied returns the names of the properties the user actually set,
// sorted, for reporting.
func Supplied(set *props.PropertySet, opts docopt.Opts) []string {
	var out []string
	for _, name := range set.Names() {
		raw, ok := opts["--"+name]
		if !ok || raw == nil {
			continue
		}
		if flag, isBool := raw.(bool); isBool && !flag {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// isFlag reports whether the property is exposed as a boolean flag.
func isFlag(set *props.PropertySet, name string) bool {
	c, err := set.Container(name)
	if err != nil {
		return false
	}
	_, ok := c.PV().Get().(bool)
	return ok
}

// isList reports whether the property is list-valued.
func isList(set *props.PropertySet, name string) bool {
	decl, err := set.Declaration(name)
	return err == nil && decl.IsList()
}
