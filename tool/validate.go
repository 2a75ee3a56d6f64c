package tool

import "strings"

// Severity defines diagnostic severity produced by validators.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a structured validation finding.
type Diagnostic struct {
	Field    string   `json:"field,omitempty"`
	Code     string   `json:"code,omitempty"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// CatalogValidator validates a catalog document.
type CatalogValidator interface {
	ValidateCatalog(doc CatalogDocument) []Diagnostic
}

// Result aggregates diagnostics from one or more validation passes.
type Result struct {
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// HasErrors returns true when at least one error-severity diagnostic exists.
func (r Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (r Result) Errors() []Diagnostic {
	out := make([]Diagnostic, 0, len(r.Diagnostics))
	for _, d := range r.Diagnostics {
		if d.Severity == SeverityError {
			out = append(out, d)
		}
	}
	return out
}

// Pipeline composes catalog validators.
type Pipeline struct {
	catalogValidators []CatalogValidator
}

// AddCatalogValidator appends a catalog validator to the pipeline.
func (p *Pipeline) AddCatalogValidator(v CatalogValidator) {
	p.catalogValidators = append(p.catalogValidators, v)
}

// ValidateCatalog runs all catalog validators and returns aggregated findings.
func (p Pipeline) ValidateCatalog(doc CatalogDocument) Result {
	result := Result{Diagnostics: make([]Diagnostic, 0)}
	for _, validator := range p.catalogValidators {
		result.Diagnostics = append(result.Diagnostics, validator.ValidateCatalog(doc)...)
	}
	return result
}

// DefaultPipeline returns the validators applied by NewCatalog.
func DefaultPipeline() Pipeline {
	var p Pipeline
	p.AddCatalogValidator(CatalogHeaderValidator{})
	p.AddCatalogValidator(ToolNameValidator{})
	p.AddCatalogValidator(V1TypeSystemValidator{})
	return p
}

// JoinDiagnostics renders diagnostics as one "field: message; ..." line.
func JoinDiagnostics(diags []Diagnostic) string {
	parts := make([]string, 0, len(diags))
	for _, d := range diags {
		if d.Field == "" {
			parts = append(parts, d.Message)
			continue
		}
		parts = append(parts, d.Field+": "+d.Message)
	}
	return strings.Join(parts, "; ")
}
