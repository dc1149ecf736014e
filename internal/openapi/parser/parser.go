package parser

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-buildergen/pkg/schema"
)

// Options configures the component schema parser.
type Options struct {
	// ResolveReferences allows kin-openapi to follow external $ref targets.
	ResolveReferences bool
}

// Parser converts OpenAPI component schemas into record descriptions using
// kin-openapi. Property order is recovered from the raw document because the
// kin-openapi model stores properties in a map.
type Parser struct {
	options Options
}

// New constructs a Parser with the given options.
func New(options Options) *Parser {
	return &Parser{options: options}
}

// Records parses raw and describes every schema under components.schemas in
// document order.
func (p *Parser) Records(ctx context.Context, raw []byte, location string) ([]schema.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, errors.New("openapi parser: document payload is empty")
	}

	loader := &openapi3.Loader{
		Context:               ctx,
		IsExternalRefsAllowed: p.options.ResolveReferences,
	}
	spec, err := loader.LoadFromData(raw)
	if err != nil {
		return nil, fmt.Errorf("openapi parser: load document: %w", err)
	}
	if spec.Components == nil || len(spec.Components.Schemas) == 0 {
		return nil, errors.New("openapi parser: document does not declare any component schemas")
	}

	order := newPropertyOrder(raw)
	names := order.schemaNames()
	if len(names) != len(spec.Components.Schemas) {
		names = sortedKeys(spec.Components.Schemas)
	}

	records := make([]schema.Record, 0, len(names))
	for _, name := range names {
		ref, ok := spec.Components.Schemas[name]
		if !ok || ref == nil || ref.Value == nil {
			continue
		}
		c := converter{order: order, name: name}
		record := c.record(ref.Value)
		record.Location = fmt.Sprintf("%s#/components/schemas/%s", location, name)
		records = append(records, record)
	}
	return records, nil
}

type converter struct {
	order propertyOrder
	name  string
	time  bool
}

func (c *converter) record(value *openapi3.Schema) schema.Record {
	record := schema.Record{
		Name: c.name,
		Doc:  strings.TrimSpace(value.Description),
	}

	switch {
	case len(value.Enum) > 0:
		record.Shape = schema.ShapeEnum
	case len(value.OneOf) > 0 || len(value.AnyOf) > 0:
		record.Shape = schema.ShapeUnion
	case value.Type.Is(openapi3.TypeArray):
		record.Shape = schema.ShapeTuple
	case len(value.AllOf) > 0:
		record.Shape = schema.ShapeStruct
		record.Fields = c.allOf(value.AllOf)
	case value.Type.Is(openapi3.TypeObject) || len(value.Properties) > 0:
		if len(value.Properties) == 0 && value.AdditionalProperties.Schema != nil {
			record.Shape = schema.ShapeOther
			break
		}
		record.Shape = schema.ShapeStruct
		record.Fields = c.fields(value, "components", "schemas", c.name)
	default:
		record.Shape = schema.ShapeScalar
	}

	if c.time {
		record.Imports = []string{`"time"`}
	}
	return record
}

// allOf merges the properties of every member. Referenced members keep the
// order of the component they point at.
func (c *converter) allOf(members openapi3.SchemaRefs) []schema.Field {
	var out []schema.Field
	seen := make(map[string]bool)
	for idx, member := range members {
		if member == nil || member.Value == nil {
			continue
		}
		path := []string{"components", "schemas", c.name, "allOf", fmt.Sprint(idx)}
		if target := refName(member.Ref); target != "" {
			path = []string{"components", "schemas", target}
		}
		for _, field := range c.fields(member.Value, path...) {
			if seen[field.Name] {
				continue
			}
			seen[field.Name] = true
			out = append(out, field)
		}
	}
	return out
}

func (c *converter) fields(value *openapi3.Schema, path ...string) []schema.Field {
	names := c.order.properties(path...)
	if len(names) != len(value.Properties) {
		names = sortedKeys(value.Properties)
	}
	out := make([]schema.Field, 0, len(names))
	for _, name := range names {
		prop := value.Properties[name]
		field := schema.Field{Name: name, Type: schema.TypeRef{Expr: c.goType(prop)}}
		if prop != nil && prop.Value != nil {
			field.Doc = strings.TrimSpace(prop.Value.Description)
		}
		out = append(out, field)
	}
	return out
}

// goType maps an OpenAPI schema onto a Go type expression.
func (c *converter) goType(ref *openapi3.SchemaRef) string {
	if ref == nil {
		return "any"
	}
	if name := refName(ref.Ref); name != "" {
		return name
	}
	value := ref.Value
	if value == nil {
		return "any"
	}

	var expr string
	switch {
	case value.Type.Is(openapi3.TypeString):
		switch value.Format {
		case "date-time", "date":
			c.time = true
			expr = "time.Time"
		case "byte", "binary":
			expr = "[]byte"
		default:
			expr = "string"
		}
	case value.Type.Is(openapi3.TypeInteger):
		switch value.Format {
		case "int32":
			expr = "int32"
		default:
			expr = "int64"
		}
	case value.Type.Is(openapi3.TypeNumber):
		if value.Format == "float" {
			expr = "float32"
		} else {
			expr = "float64"
		}
	case value.Type.Is(openapi3.TypeBoolean):
		expr = "bool"
	case value.Type.Is(openapi3.TypeArray):
		expr = "[]" + c.goType(value.Items)
	case value.Type.Is(openapi3.TypeObject):
		if value.AdditionalProperties.Schema != nil {
			expr = "map[string]" + c.goType(value.AdditionalProperties.Schema)
		} else {
			expr = "map[string]any"
		}
	default:
		expr = "any"
	}
	if value.Nullable && !strings.HasPrefix(expr, "[]") && !strings.HasPrefix(expr, "map[") && expr != "any" {
		expr = "*" + expr
	}
	return expr
}

func refName(ref string) string {
	const prefix = "#/components/schemas/"
	if idx := strings.Index(ref, prefix); idx >= 0 {
		return ref[idx+len(prefix):]
	}
	return ""
}

func sortedKeys(schemas openapi3.Schemas) []string {
	keys := make([]string, 0, len(schemas))
	for key := range schemas {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// propertyOrder walks the raw document as a yaml.v3 node tree. JSON input is
// accepted because JSON is valid YAML.
type propertyOrder struct {
	root *yaml.Node
}

func newPropertyOrder(raw []byte) propertyOrder {
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil || len(doc.Content) == 0 {
		return propertyOrder{}
	}
	return propertyOrder{root: doc.Content[0]}
}

func (o propertyOrder) schemaNames() []string {
	return keys(o.lookup("components", "schemas"))
}

func (o propertyOrder) properties(path ...string) []string {
	return keys(o.lookup(append(path, "properties")...))
}

func (o propertyOrder) lookup(path ...string) *yaml.Node {
	node := o.root
	for _, segment := range path {
		if node == nil {
			return nil
		}
		node = child(node, segment)
	}
	return node
}

func child(node *yaml.Node, segment string) *yaml.Node {
	switch node.Kind {
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == segment {
				return node.Content[i+1]
			}
		}
	case yaml.SequenceNode:
		var idx int
		if _, err := fmt.Sscan(segment, &idx); err == nil && idx >= 0 && idx < len(node.Content) {
			return node.Content[idx]
		}
	}
	return nil
}

func keys(node *yaml.Node) []string {
	if node == nil || node.Kind != yaml.MappingNode {
		return nil
	}
	out := make([]string, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, node.Content[i].Value)
	}
	return out
}
