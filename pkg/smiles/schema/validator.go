// Package schema validates the JSON form of structures against an embedded
// JSON Schema before it is decoded.
package schema

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/turtacn/smiles-algebra/pkg/errors"
	"github.com/turtacn/smiles-algebra/pkg/smiles/ast"
)

//go:embed schemas/node.json
var schemaFS embed.FS

const schemaFile = "schemas/node.json"

// Violation is a single schema failure.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v Violation) String() string {
	if v.Path != "" {
		return fmt.Sprintf("%s: %s", v.Path, v.Message)
	}
	return v.Message
}

// Validator checks structure documents against the embedded schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles the embedded schema.
func NewValidator() (*Validator, error) {
	data, err := schemaFS.ReadFile(schemaFile)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "read embedded schema")
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "parse embedded schema")
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("node.json", doc); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "add schema resource")
	}
	s, err := c.Compile("node.json")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "compile schema")
	}
	return &Validator{schema: s}, nil
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
	defaultErr       error
)

// Default returns a shared validator compiled on first use.
func Default() (*Validator, error) {
	defaultOnce.Do(func() {
		defaultValidator, defaultErr = NewValidator()
	})
	return defaultValidator, defaultErr
}

// ValidateDocument returns every leaf violation of doc, or nil.
func (v *Validator) ValidateDocument(doc any) []Violation {
	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []Violation{{Message: err.Error()}}
	}
	return collect(ve)
}

// Validate checks raw JSON. Violations are reported as ErrCodeValidation with
// one line per violation in Detail.
func (v *Validator) Validate(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "structure JSON does not parse")
	}
	violations := v.ValidateDocument(doc)
	if len(violations) == 0 {
		return nil
	}
	lines := make([]string, len(violations))
	for i, vi := range violations {
		lines[i] = vi.String()
	}
	return errors.New(errors.ErrCodeValidation, fmt.Sprintf("structure JSON has %d schema violation(s)", len(violations))).
		WithDetail(strings.Join(lines, "; "))
}

// Decode validates data and then decodes it into a node.
func (v *Validator) Decode(data []byte) (ast.Node, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	return ast.UnmarshalNode(data)
}

func collect(ve *jsonschema.ValidationError) []Violation {
	return collectAt(ve, nil)
}

// collectAt gathers leaf violations. Leaves without a location of their own,
// such as propertyNames failures that describe a key, inherit the location
// of the nearest ancestor that has one.
func collectAt(ve *jsonschema.ValidationError, parent []string) []Violation {
	loc := ve.InstanceLocation
	if len(loc) < len(parent) {
		loc = parent
	}
	if len(ve.Causes) == 0 {
		path := ""
		if len(loc) > 0 {
			path = "/" + strings.Join(loc, "/")
		}
		return []Violation{{Path: path, Message: ve.Error()}}
	}
	var out []Violation
	for _, c := range ve.Causes {
		out = append(out, collectAt(c, loc)...)
	}
	return out
}
