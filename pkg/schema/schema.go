// Package schema loads property declarations from YAML documents.
//
// A schema lists properties by name and type, with per-type constraints:
//
//	properties:
//	  - name: enabled
//	    type: boolean
//	    default: true
//	  - name: threads
//	    type: int
//	    min: 1
//	    max: 64
//	  - name: mode
//	    type: choice
//	    choices: [fast, accurate]
//	  - name: weights
//	    type: list
//	    minlen: 1
//	    item:
//	      type: real
//	      min: 0
//
// Load and Parse turn a schema into property declarations; LoadSet goes all
// the way to a live props.PropertySet.
package schema

import (
	"bytes"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pauldmccarthy/fsleyes-props/pkg/callqueue"
	"github.com/pauldmccarthy/fsleyes-props/pkg/errors"
	"github.com/pauldmccarthy/fsleyes-props/pkg/props"
)

// Document is the top-level YAML structure.
type Document struct {
	Properties []Declaration `yaml:"properties"`
}

// Declaration is one property entry. Fields not applicable to the declared
// type are ignored.
type Declaration struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Default any    `yaml:"default"`

	// Numeric constraints (int, real, percentage).
	Min          *float64 `yaml:"min"`
	Max          *float64 `yaml:"max"`
	Clamped      bool     `yaml:"clamped"`
	AllowInvalid bool     `yaml:"allowInvalid"`
	Precision    *float64 `yaml:"precision"`

	// Length constraints (string, list).
	MinLen int `yaml:"minlen"`
	MaxLen int `yaml:"maxlen"`

	// Choice constraints.
	Choices []any `yaml:"choices"`

	// File path constraints.
	Exists      bool     `yaml:"exists"`
	IsDirectory bool     `yaml:"isDirectory"`
	Suffixes    []string `yaml:"suffixes"`

	// List item declaration.
	Item *Declaration `yaml:"item"`

	// Geometry constraints (bounds, point).
	NDims       int     `yaml:"ndims"`
	Integer     bool    `yaml:"integer"`
	MinDistance float64 `yaml:"minDistance"`
}

// Parse decodes a YAML schema into property declarations.
func Parse(data []byte) ([]*props.Property, error) {
	const op = "schema.Parse"

	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.E(op, errors.KindSchema, "", err)
	}
	if len(doc.Properties) == 0 {
		return nil, errors.Errorf(op, errors.KindSchema, "",
			"schema declares no properties")
	}

	out := make([]*props.Property, 0, len(doc.Properties))
	for _, d := range doc.Properties {
		if d.Name == "" {
			return nil, errors.Errorf(op, errors.KindSchema, "",
				"every property needs a name")
		}
		p, err := d.build()
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Load reads and parses a YAML schema file.
func Load(path string) ([]*props.Property, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.E("schema.Load", errors.KindSchema, path, err)
	}
	return Parse(data)
}

// LoadSet loads a schema file and instantiates it into a property set.
func LoadSet(path string, context any, queue *callqueue.Queue) (*props.PropertySet, error) {
	declared, err := Load(path)
	if err != nil {
		return nil, err
	}
	return props.NewSet(context, queue, declared...)
}

// build converts one declaration into a typed property.
func (d Declaration) build() (*props.Property, error) {
	const op = "schema.Parse"

	switch strings.ToLower(d.Type) {
	case "object":
		return props.Object(d.Name, d.Default), nil

	case "boolean", "bool":
		def := false
		if d.Default != nil {
			b, ok := d.Default.(bool)
			if !ok {
				return nil, errors.Errorf(op, errors.KindSchema, d.Name,
					"boolean default must be true or false, got %v", d.Default)
			}
			def = b
		}
		return props.Boolean(d.Name, def), nil

	case "int", "integer":
		return props.Int(d.Name, d.numberOptions()), nil

	case "real", "float":
		if d.Precision != nil {
			return props.RealPrecision(d.Name, *d.Precision, d.numberOptions()), nil
		}
		return props.Real(d.Name, d.numberOptions()), nil

	case "percentage":
		return props.Percentage(d.Name, d.numberOptions()), nil

	case "string":
		def, err := stringDefault(d.Name, d.Default)
		if err != nil {
			return nil, err
		}
		return props.String(d.Name, props.StringOptions{
			Default:      def,
			MinLen:       d.MinLen,
			MaxLen:       d.MaxLen,
			AllowInvalid: d.AllowInvalid,
		}), nil

	case "choice":
		if len(d.Choices) == 0 {
			return nil, errors.Errorf(op, errors.KindSchema, d.Name,
				"choice properties need a non-empty choices list")
		}
		return props.Choice(d.Name, d.Choices...), nil

	case "filepath", "path":
		def, err := stringDefault(d.Name, d.Default)
		if err != nil {
			return nil, err
		}
		return props.FilePath(d.Name, props.FilePathOptions{
			Default:     def,
			Exists:      d.Exists,
			IsDirectory: d.IsDirectory,
			Suffixes:    d.Suffixes,
		}), nil

	case "list":
		var item *props.Property
		if d.Item != nil {
			itemDecl := *d.Item
			// Item declarations are anonymous; reuse the list's name for
			// error context only.
			itemDecl.Name = d.Name + ".item"
			built, err := itemDecl.build()
			if err != nil {
				return nil, err
			}
			item = built
		}
		def, err := listDefault(d.Name, d.Default)
		if err != nil {
			return nil, err
		}
		return props.ListOf(d.Name, item, props.ListOptions{
			Default: def,
			MinLen:  d.MinLen,
			MaxLen:  d.MaxLen,
		}), nil

	case "bounds":
		def, err := listDefault(d.Name, d.Default)
		if err != nil {
			return nil, err
		}
		return props.Bounds(d.Name, props.BoundsOptions{
			NDims:       d.NDims,
			Integer:     d.Integer,
			MinDistance: d.MinDistance,
			Default:     def,
		}), nil

	case "point":
		def, err := listDefault(d.Name, d.Default)
		if err != nil {
			return nil, err
		}
		return props.Point(d.Name, props.PointOptions{
			NDims:   d.NDims,
			Integer: d.Integer,
			Default: def,
		}), nil

	case "":
		return nil, errors.Errorf(op, errors.KindSchema, d.Name,
			"property %q has no type", d.Name)
	}

	return nil, errors.Errorf(op, errors.KindSchema, d.Name,
		"unknown property type %q", d.Type)
}

func (d Declaration) numberOptions() props.NumberOptions {
	opts := props.NumberOptions{
		Default:      d.Default,
		Clamped:      d.Clamped,
		AllowInvalid: d.AllowInvalid,
	}
	if d.Min != nil {
		opts.Min = *d.Min
	}
	if d.Max != nil {
		opts.Max = *d.Max
	}
	return opts
}

func stringDefault(name string, value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	}
	return "", errors.Errorf("schema.Parse", errors.KindSchema, name,
		"default must be a string, got %T", value)
}

func listDefault(name string, value any) ([]any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []any:
		return v, nil
	}
	return nil, errors.Errorf("schema.Parse", errors.KindSchema, name,
		"default must be a sequence, got %T", value)
}
