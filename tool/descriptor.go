package tool

// SchemaVersionV1 is the catalog document version served by the schema endpoint.
const SchemaVersionV1 = "v1"

// CatalogDocument is the wire form of a tool catalog.
type CatalogDocument struct {
	SchemaVersion string           `json:"schema_version" yaml:"schema_version"`
	Name          string           `json:"name" yaml:"name"`
	Description   string           `json:"description,omitempty" yaml:"description,omitempty"`
	Tools         []ToolDescriptor `json:"tools" yaml:"tools"`
}

// ToolDescriptor declares one callable tool.
type ToolDescriptor struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	InputSchema  Schema `json:"input_schema" yaml:"input_schema"`
	OutputSchema Schema `json:"output_schema" yaml:"output_schema"`
}

// Schema is the JSON Schema subset used for tool inputs and outputs.
type Schema struct {
	Type                 string             `json:"type" yaml:"type"`
	Description          string             `json:"description,omitempty" yaml:"description,omitempty"`
	Properties           map[string]*Schema `json:"properties,omitempty" yaml:"properties,omitempty"`
	Required             []string           `json:"required,omitempty" yaml:"required,omitempty"`
	Items                *Schema            `json:"items,omitempty" yaml:"items,omitempty"`
	AdditionalProperties *Schema            `json:"additionalProperties,omitempty" yaml:"additionalProperties,omitempty"`
	Default              any                `json:"default,omitempty" yaml:"default,omitempty"`
}

// IsRequired reports whether name is listed in the schema's required set.
func (s Schema) IsRequired(name string) bool {
	for _, required := range s.Required {
		if required == name {
			return true
		}
	}
	return false
}
