package tool

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is an immutable, validated set of tool descriptors. All accessors
// return deep copies.
type Catalog struct {
	doc   CatalogDocument
	index map[string]int
}

// NewCatalog validates doc with DefaultPipeline and indexes it by tool name.
func NewCatalog(doc CatalogDocument) (*Catalog, error) {
	result := DefaultPipeline().ValidateCatalog(doc)
	if result.HasErrors() {
		return nil, fmt.Errorf("tool: invalid catalog: %s", JoinDiagnostics(result.Errors()))
	}
	cloned := doc
	cloned.Tools = cloneDescriptors(doc.Tools)
	index := make(map[string]int, len(cloned.Tools))
	for i, descriptor := range cloned.Tools {
		index[descriptor.Name] = i
	}
	return &Catalog{doc: cloned, index: index}, nil
}

// LoadCatalog decodes a YAML (or JSON) catalog document and validates it.
func LoadCatalog(data []byte) (*Catalog, error) {
	var doc CatalogDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("tool: decode catalog: %w", err)
	}
	return NewCatalog(doc)
}

// Document returns the full catalog document.
func (c *Catalog) Document() CatalogDocument {
	out := c.doc
	out.Tools = cloneDescriptors(c.doc.Tools)
	return out
}

// Lookup returns the descriptor registered under name.
func (c *Catalog) Lookup(name string) (ToolDescriptor, bool) {
	i, ok := c.index[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return cloneDescriptor(c.doc.Tools[i]), true
}

// List returns descriptors in catalog order.
func (c *Catalog) List() []ToolDescriptor {
	return cloneDescriptors(c.doc.Tools)
}

// Names returns tool names in catalog order.
func (c *Catalog) Names() []string {
	names := make([]string, 0, len(c.doc.Tools))
	for _, descriptor := range c.doc.Tools {
		names = append(names, descriptor.Name)
	}
	return names
}

// Len returns the number of tools.
func (c *Catalog) Len() int {
	return len(c.doc.Tools)
}

// CatalogHeaderValidator checks the document-level fields.
type CatalogHeaderValidator struct{}

// ValidateCatalog satisfies CatalogValidator.
func (CatalogHeaderValidator) ValidateCatalog(doc CatalogDocument) []Diagnostic {
	diags := make([]Diagnostic, 0)
	switch strings.TrimSpace(doc.SchemaVersion) {
	case "":
		diags = append(diags, Diagnostic{
			Field:    "schema_version",
			Code:     "REQUIRED_FIELD",
			Severity: SeverityError,
			Message:  "schema_version is required",
		})
	case SchemaVersionV1:
	default:
		diags = append(diags, Diagnostic{
			Field:    "schema_version",
			Code:     "UNSUPPORTED_VERSION",
			Severity: SeverityError,
			Message:  fmt.Sprintf("unsupported schema_version %q", doc.SchemaVersion),
		})
	}
	if strings.TrimSpace(doc.Name) == "" {
		diags = append(diags, Diagnostic{
			Field:    "name",
			Code:     "REQUIRED_FIELD",
			Severity: SeverityError,
			Message:  "name is required",
		})
	}
	return diags
}

// ToolNameValidator checks that every tool has a unique, non-empty name.
type ToolNameValidator struct{}

// ValidateCatalog satisfies CatalogValidator.
func (ToolNameValidator) ValidateCatalog(doc CatalogDocument) []Diagnostic {
	diags := make([]Diagnostic, 0)
	seen := make(map[string]struct{}, len(doc.Tools))
	for i, descriptor := range doc.Tools {
		name := strings.TrimSpace(descriptor.Name)
		if name == "" {
			diags = append(diags, Diagnostic{
				Field:    fmt.Sprintf("tools[%d].name", i),
				Code:     "REQUIRED_FIELD",
				Severity: SeverityError,
				Message:  "tool name is required",
			})
			continue
		}
		if _, dup := seen[name]; dup {
			diags = append(diags, Diagnostic{
				Field:    fmt.Sprintf("tools[%d].name", i),
				Code:     "DUPLICATE_TOOL",
				Severity: SeverityError,
				Message:  fmt.Sprintf("tool %q is declared more than once", name),
			})
			continue
		}
		seen[name] = struct{}{}
		if strings.TrimSpace(descriptor.Description) == "" {
			diags = append(diags, Diagnostic{
				Field:    "tools." + name + ".description",
				Code:     "MISSING_DESCRIPTION",
				Severity: SeverityWarning,
				Message:  "tool has no description",
			})
		}
	}
	return diags
}
