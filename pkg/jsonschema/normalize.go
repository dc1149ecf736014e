package jsonschema

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

const maxAllOfDepth = 64

type converter struct {
	root     *yaml.Node
	defs     *yaml.Node
	defsKey  string
	location string
	time     bool
}

func newConverter(root *yaml.Node, location string) *converter {
	c := &converter{root: root, location: location, defsKey: "$defs"}
	c.defs = child(root, "$defs")
	if c.defs == nil {
		if legacy := child(root, "definitions"); legacy != nil {
			c.defs, c.defsKey = legacy, "definitions"
		}
	}
	return c
}

func (c *converter) records() ([]schema.Record, error) {
	var out []schema.Record
	seen := make(map[string]bool)
	add := func(name string, node *yaml.Node, pointer string) error {
		if seen[name] {
			return fmt.Errorf("jsonschema: record %q is declared more than once", name)
		}
		seen[name] = true
		record, err := c.record(name, node)
		if err != nil {
			return err
		}
		record.Location = c.location + pointer
		out = append(out, record)
		return nil
	}

	if name := rootName(c.root); name != "" && describesValue(c.root) {
		if err := add(name, c.root, "#"); err != nil {
			return nil, err
		}
	}
	for _, pair := range pairs(c.defs) {
		if err := add(pair.key, pair.value, "#/"+c.defsKey+"/"+pair.key); err != nil {
			return nil, err
		}
	}
	if len(out) == 0 {
		return nil, errors.New("jsonschema: document describes no records, give the root a title or declare $defs")
	}
	return out, nil
}

func (c *converter) record(name string, node *yaml.Node) (schema.Record, error) {
	c.time = false
	record := schema.Record{
		Name: name,
		Doc:  strings.TrimSpace(scalar(node, "description")),
	}

	var err error
	switch {
	case child(node, "enum") != nil || child(node, "const") != nil:
		record.Shape = schema.ShapeEnum
	case child(node, "oneOf") != nil || child(node, "anyOf") != nil:
		record.Shape = schema.ShapeUnion
	case hasType(node, "array"):
		record.Shape = schema.ShapeTuple
	case child(node, "allOf") != nil:
		record.Shape = schema.ShapeStruct
		record.Fields, err = c.allOf(node, 0)
	case hasType(node, "object") || child(node, "properties") != nil:
		if child(node, "properties") == nil && isSchema(child(node, "additionalProperties")) {
			record.Shape = schema.ShapeOther
			break
		}
		record.Shape = schema.ShapeStruct
		record.Fields, err = c.fields(node)
	default:
		record.Shape = schema.ShapeScalar
	}
	if err != nil {
		return schema.Record{}, fmt.Errorf("jsonschema: record %q: %w", name, err)
	}

	if c.time {
		record.Imports = []string{`"time"`}
	}
	return record, nil
}

// allOf merges the properties of every member, following local references.
// The first declaration of a property wins.
func (c *converter) allOf(node *yaml.Node, depth int) ([]schema.Field, error) {
	if depth > maxAllOfDepth {
		return nil, errors.New("allOf nesting is too deep or cyclic")
	}
	var out []schema.Field
	seen := make(map[string]bool)
	merge := func(fields []schema.Field) {
		for _, field := range fields {
			if seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			out = append(out, field)
		}
	}

	members := child(node, "allOf")
	if members == nil || members.Kind != yaml.SequenceNode {
		return nil, errors.New("allOf must be a list")
	}
	for _, member := range members.Content {
		target := member
		if ref := scalar(member, "$ref"); ref != "" {
			resolved, err := c.resolve(ref)
			if err != nil {
				return nil, err
			}
			target = resolved
		}
		if child(target, "allOf") != nil {
			fields, err := c.allOf(target, depth+1)
			if err != nil {
				return nil, err
			}
			merge(fields)
		}
		fields, err := c.fields(target)
		if err != nil {
			return nil, err
		}
		merge(fields)
	}
	return out, nil
}

func (c *converter) fields(node *yaml.Node) ([]schema.Field, error) {
	props := pairs(child(node, "properties"))
	out := make([]schema.Field, 0, len(props))
	for _, prop := range props {
		expr, err := c.goType(prop.value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.key, err)
		}
		out = append(out, schema.Field{
			Name: prop.key,
			Type: schema.TypeRef{Expr: expr},
			Doc:  strings.TrimSpace(scalar(prop.value, "description")),
		})
	}
	return out, nil
}

// goType maps a JSON Schema onto a Go type expression. A type list holding
// "null" makes the type a pointer.
func (c *converter) goType(node *yaml.Node) (string, error) {
	if !isSchema(node) {
		return "any", nil
	}
	if ref := scalar(node, "$ref"); ref != "" {
		return c.refName(ref)
	}

	types, nullable := typeNames(node)
	primary := ""
	if len(types) == 1 {
		primary = types[0]
	}

	var expr string
	switch primary {
	case "string":
		switch scalar(node, "format") {
		case "date-time", "date":
			c.time = true
			expr = "time.Time"
		default:
			expr = "string"
		}
	case "integer":
		if scalar(node, "format") == "int32" {
			expr = "int32"
		} else {
			expr = "int64"
		}
	case "number":
		if scalar(node, "format") == "float" {
			expr = "float32"
		} else {
			expr = "float64"
		}
	case "boolean":
		expr = "bool"
	case "array":
		items := child(node, "items")
		if items == nil {
			return "[]any", nil
		}
		elem, err := c.goType(items)
		if err != nil {
			return "", err
		}
		return "[]" + elem, nil
	case "object":
		if extra := child(node, "additionalProperties"); isSchema(extra) {
			elem, err := c.goType(extra)
			if err != nil {
				return "", err
			}
			return "map[string]" + elem, nil
		}
		return "map[string]any", nil
	default:
		return "any", nil
	}
	if nullable {
		expr = "*" + expr
	}
	return expr, nil
}

func (c *converter) refName(ref string) (string, error) {
	if ref == "#" {
		if name := rootName(c.root); name != "" {
			return name, nil
		}
	}
	prefix := "#/" + c.defsKey + "/"
	if strings.HasPrefix(ref, prefix) {
		name := strings.TrimPrefix(ref, prefix)
		if child(c.defs, name) == nil {
			return "", fmt.Errorf("$ref %q points at an undeclared definition", ref)
		}
		return name, nil
	}
	return "", fmt.Errorf("$ref %q is not supported, only local %s references are", ref, prefix)
}

func (c *converter) resolve(ref string) (*yaml.Node, error) {
	if ref == "#" {
		return c.root, nil
	}
	name, err := c.refName(ref)
	if err != nil {
		return nil, err
	}
	return child(c.defs, name), nil
}

// rootName derives a record name for the root schema from its title, falling
// back to the last segment of its $id.
func rootName(root *yaml.Node) string {
	if title := strings.TrimSpace(scalar(root, "title")); title != "" {
		return identifier(title)
	}
	id := strings.TrimSpace(scalar(root, "$id"))
	if id == "" {
		return ""
	}
	id = strings.TrimSuffix(id, "/")
	id = strings.TrimSuffix(id, ".json")
	if idx := strings.LastIndexAny(id, "/."); idx >= 0 {
		id = id[idx+1:]
	}
	return identifier(id)
}

func identifier(raw string) string {
	words := strings.FieldsFunc(raw, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var b strings.Builder
	for _, word := range words {
		runes := []rune(word)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	return b.String()
}

type pair struct {
	key   string
	value *yaml.Node
}

func pairs(node *yaml.Node) []pair {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]pair, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, pair{key: node.Content[i].Value, value: node.Content[i+1]})
	}
	return out
}

func child(node *yaml.Node, key string) *yaml.Node {
	for _, p := range pairs(node) {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

func scalar(node *yaml.Node, key string) string {
	value := child(node, key)
	if value == nil || value.Kind != yaml.ScalarNode {
		return ""
	}
	return value.Value
}

func isSchema(node *yaml.Node) bool {
	return node != nil && node.Kind == yaml.MappingNode
}

// typeNames returns the non-null entries of the type keyword and whether
// "null" was listed.
func typeNames(node *yaml.Node) ([]string, bool) {
	value := child(node, "type")
	if value == nil {
		return nil, false
	}
	var raw []string
	switch value.Kind {
	case yaml.ScalarNode:
		raw = []string{value.Value}
	case yaml.SequenceNode:
		for _, item := range value.Content {
			raw = append(raw, item.Value)
		}
	}
	var out []string
	nullable := false
	for _, name := range raw {
		if name == "null" {
			nullable = true
			continue
		}
		out = append(out, name)
	}
	return out, nullable
}

// describesValue reports whether node constrains a value, as opposed to a
// document that only carries $defs.
func describesValue(node *yaml.Node) bool {
	for _, key := range []string{"type", "properties", "allOf", "oneOf", "anyOf", "enum", "const", "items"} {
		if child(node, key) != nil {
			return true
		}
	}
	return false
}

func hasType(node *yaml.Node, name string) bool {
	types, _ := typeNames(node)
	for _, t := range types {
		if t == name {
			return true
		}
	}
	return false
}
