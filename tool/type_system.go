package tool

import (
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
)

// V1 type system literals used by catalog schemas.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeObject  = "object"
)

var validV1Types = map[string]struct{}{
	TypeString:  {},
	TypeInteger: {},
	TypeNumber:  {},
	TypeBoolean: {},
	TypeArray:   {},
	TypeObject:  {},
}

// V1TypeSystemValidator validates schema declarations in a catalog.
type V1TypeSystemValidator struct{}

// ValidateCatalog satisfies CatalogValidator.
func (V1TypeSystemValidator) ValidateCatalog(doc CatalogDocument) []Diagnostic {
	diags := make([]Diagnostic, 0)
	for i, descriptor := range doc.Tools {
		path := fmt.Sprintf("tools[%d]", i)
		if descriptor.Name != "" {
			path = "tools." + descriptor.Name
		}
		if descriptor.InputSchema.Type != TypeObject {
			diags = append(diags, Diagnostic{
				Field:    path + ".input_schema.type",
				Code:     "INPUT_SCHEMA_NOT_OBJECT",
				Severity: SeverityError,
				Message:  fmt.Sprintf("input schema must have type object, got %q", descriptor.InputSchema.Type),
			})
		} else {
			validateSchema(path+".input_schema", descriptor.InputSchema, &diags)
		}
		if descriptor.OutputSchema.Type != "" {
			validateSchema(path+".output_schema", descriptor.OutputSchema, &diags)
		}
	}
	return diags
}

func validateSchema(path string, schema Schema, diags *[]Diagnostic) {
	if !isValidV1Type(schema.Type) {
		*diags = append(*diags, Diagnostic{
			Field:    path + ".type",
			Code:     "INVALID_TYPE",
			Severity: SeverityError,
			Message:  fmt.Sprintf("Unsupported type %q; allowed: string, integer, number, boolean, array, object", schema.Type),
		})
		return
	}

	if schema.Type == TypeArray {
		if schema.Items == nil {
			*diags = append(*diags, Diagnostic{
				Field:    path + ".items",
				Code:     "REQUIRED_ITEMS",
				Severity: SeverityError,
				Message:  "items is required when type is array",
			})
			return
		}
		validateSchema(path+".items", *schema.Items, diags)
	}

	for _, name := range sortedPropertyNames(schema.Properties) {
		prop := schema.Properties[name]
		if prop == nil {
			*diags = append(*diags, Diagnostic{
				Field:    path + ".properties." + name,
				Code:     "EMPTY_PROPERTY",
				Severity: SeverityError,
				Message:  "property schema is empty",
			})
			continue
		}
		validateSchema(path+".properties."+name, *prop, diags)
	}

	for _, name := range schema.Required {
		if _, ok := schema.Properties[name]; !ok {
			*diags = append(*diags, Diagnostic{
				Field:    path + ".required",
				Code:     "UNKNOWN_REQUIRED",
				Severity: SeverityError,
				Message:  fmt.Sprintf("required property %q is not declared", name),
			})
		}
	}

	if schema.AdditionalProperties != nil {
		validateSchema(path+".additionalProperties", *schema.AdditionalProperties, diags)
	}
}

// ValidateInput checks input against an object schema and returns a coerced
// copy. Scalars are converted where the conversion is lossless (numbers and
// booleans to strings, "true"/"false" to booleans, numeric strings to
// numbers), missing properties with a default receive it, and JSON nulls are
// treated as absent. Undeclared properties pass through untouched.
func ValidateInput(schema Schema, input Input) (Input, []Diagnostic) {
	diags := make([]Diagnostic, 0)
	out := coerceObject("tool_input", &schema, input, &diags)
	return out, diags
}

func coerceObject(path string, schema *Schema, input Input, diags *[]Diagnostic) Input {
	var out Input
	for _, key := range input.keys {
		value := input.values[key]
		if value == nil {
			continue
		}
		propSchema := schema.Properties[key]
		if propSchema == nil {
			propSchema = schema.AdditionalProperties
		}
		coerced, ok := coerceValue(path+"."+key, propSchema, value, diags)
		if !ok {
			continue
		}
		out.Set(key, coerced)
	}

	for _, name := range sortedPropertyNames(schema.Properties) {
		if _, present := out.values[name]; present {
			continue
		}
		prop := schema.Properties[name]
		if prop != nil && prop.Default != nil {
			out.Set(name, cloneValue(prop.Default))
		}
	}

	for _, name := range schema.Required {
		if _, present := out.values[name]; present {
			continue
		}
		if v, ok := input.values[name]; ok && v != nil {
			continue
		}
		*diags = append(*diags, Diagnostic{
			Field:    path + "." + name,
			Code:     "REQUIRED_FIELD",
			Severity: SeverityError,
			Message:  "field required",
		})
	}
	return out
}

func coerceValue(path string, schema *Schema, value any, diags *[]Diagnostic) (any, bool) {
	if schema == nil || schema.Type == "" {
		return value, true
	}
	mismatch := func() (any, bool) {
		*diags = append(*diags, Diagnostic{
			Field:    path,
			Code:     "TYPE_MISMATCH",
			Severity: SeverityError,
			Message:  fmt.Sprintf("expected %s, got %s", schema.Type, jsonKind(value)),
		})
		return nil, false
	}

	switch schema.Type {
	case TypeString:
		switch v := value.(type) {
		case string:
			return v, true
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case bool:
			return strconv.FormatBool(v), true
		}
	case TypeBoolean:
		switch v := value.(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "1", "yes", "on":
				return true, true
			case "false", "0", "no", "off":
				return false, true
			}
		case float64:
			if v == 0 || v == 1 {
				return v == 1, true
			}
		}
	case TypeInteger:
		switch v := value.(type) {
		case float64:
			if v == math.Trunc(v) && !math.IsInf(v, 0) {
				return v, true
			}
		case string:
			if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
				return float64(n), true
			}
		}
	case TypeNumber:
		switch v := value.(type) {
		case float64:
			return v, true
		case string:
			if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return n, true
			}
		}
	case TypeArray:
		items, ok := value.([]any)
		if !ok {
			return mismatch()
		}
		out := make([]any, 0, len(items))
		failed := false
		for i, item := range items {
			coerced, ok := coerceValue(fmt.Sprintf("%s[%d]", path, i), schema.Items, item, diags)
			if !ok {
				failed = true
				continue
			}
			out = append(out, coerced)
		}
		if failed {
			return nil, false
		}
		return out, true
	case TypeObject:
		switch v := value.(type) {
		case Input:
			before := len(*diags)
			out := coerceObject(path, schema, v, diags)
			return out, len(*diags) == before
		case map[string]any:
			before := len(*diags)
			out := coerceObject(path, schema, NewInput(v), diags)
			return out, len(*diags) == before
		}
	}
	return mismatch()
}

func jsonKind(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return TypeString
	case bool:
		return TypeBoolean
	case float64:
		return TypeNumber
	case []any:
		return TypeArray
	case Input, map[string]any:
		return TypeObject
	default:
		return fmt.Sprintf("%T", value)
	}
}

func isValidV1Type(typeName string) bool {
	_, ok := validV1Types[typeName]
	return ok
}

func sortedPropertyNames(props map[string]*Schema) []string {
	return slices.Sorted(maps.Keys(props))
}
