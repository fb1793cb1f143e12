// propsctl loads a YAML property schema and inspects the resulting
// property set from the command line.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/docopt/docopt-go"

	"github.com/pauldmccarthy/fsleyes-props/pkg/cli"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
	"github.com/pauldmccarthy/fsleyes-props/pkg/schema"
)

const usage = `propsctl inspects YAML property schemas.

Usage:
    propsctl show --schema=<file> [--set=<assignment>]... [--verbosity=<level>]
    propsctl usage --schema=<file> [--prog=<name>]
    propsctl validate --schema=<file> [--set=<assignment>]...

Options:
    -h --help             Show this screen.
    --schema=<file>       YAML property schema to load.
    --set=<assignment>    A name=value override, repeatable.
    --prog=<name>         Program name for the generated usage [default: propsctl].
    --verbosity=<level>   Trace verbosity level [default: 0].`

func main() {
	opts, err := docopt.ParseDoc(usage)
	if err != nil {
		fatal(err)
	}

	if level, err := opts.String("--verbosity"); err == nil && level != "0" {
		_ = flag.Set("logtostderr", "true")
		_ = flag.Set("v", level)
	}
	flag.CommandLine.Parse(nil)

	schemaPath, _ := opts.String("--schema")
	set, err := schema.LoadSet(schemaPath, nil, nil)
	if err != nil {
		fatal(err)
	}

	if err := applyOverrides(set, opts["--set"]); err != nil {
		fatal(err)
	}

	switch {
	case command(opts, "show"):
		show(set)
	case command(opts, "usage"):
		prog, _ := opts.String("--prog")
		fmt.Print(cli.Usage(set, prog, ""))
	case command(opts, "validate"):
		if !validate(set) {
			os.Exit(1)
		}
	}
}

func command(opts docopt.Opts, name string) bool {
	on, _ := opts.Bool(name)
	return on
}

// applyOverrides applies repeated --set=name=value assignments.
func applyOverrides(set *props.PropertySet, raw any) error {
	assignments, _ := raw.([]string)
	for _, a := range assignments {
		name, value, ok := strings.Cut(a, "=")
		if !ok {
			return fmt.Errorf("malformed assignment %q, expected name=value", a)
		}
		if err := set.Set(name, value); err != nil {
			return err
		}
	}
	return nil
}

func show(set *props.PropertySet) {
	state := make(map[string]any, len(set.Names()))
	for _, name := range set.Names() {
		v, err := set.Get(name)
		if err != nil {
			fatal(err)
		}
		state[name] = v
	}
	spew.Dump(state)
	validate(set)
}

func validate(set *props.PropertySet) bool {
	invalid := set.ValidateAll()
	for _, iv := range invalid {
		fmt.Fprintf(os.Stderr, "invalid: %s: %v\n", iv.Name, iv.Err)
	}
	return len(invalid) == 0
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "propsctl:", err)
	os.Exit(1)
}
