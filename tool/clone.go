package tool

import "maps"

func cloneDescriptors(in []ToolDescriptor) []ToolDescriptor {
	if in == nil {
		return nil
	}
	out := make([]ToolDescriptor, 0, len(in))
	for _, desc := range in {
		out = append(out, cloneDescriptor(desc))
	}
	return out
}

func cloneDescriptor(in ToolDescriptor) ToolDescriptor {
	out := in
	out.InputSchema = cloneSchema(in.InputSchema)
	out.OutputSchema = cloneSchema(in.OutputSchema)
	return out
}

func cloneSchema(in Schema) Schema {
	out := in
	if in.Properties != nil {
		out.Properties = make(map[string]*Schema, len(in.Properties))
		for name, prop := range in.Properties {
			out.Properties[name] = cloneSchemaPtr(prop)
		}
	}
	if in.Required != nil {
		out.Required = append([]string(nil), in.Required...)
	}
	out.Items = cloneSchemaPtr(in.Items)
	out.AdditionalProperties = cloneSchemaPtr(in.AdditionalProperties)
	out.Default = cloneValue(in.Default)
	return out
}

func cloneSchemaPtr(in *Schema) *Schema {
	if in == nil {
		return nil
	}
	out := cloneSchema(*in)
	return &out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		out := maps.Clone(typed)
		for key, value := range out {
			out[key] = cloneValue(value)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, value := range typed {
			out[i] = cloneValue(value)
		}
		return out
	case Input:
		return typed.Clone()
	default:
		return v
	}
}
