package discovery

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"

	"github.com/hashicorp/go-multierror"
)

// Document is a parsed Discovery document for one API service.
//
// Documents are validated eagerly by LoadDocument: a corrupt description
// discovered mid-batch would leave partially-issued requests inconsistent,
// so every defect is reported at load time instead of at first use.
type Document struct {
	Name      string               `json:"name"`
	Version   string               `json:"version"`
	BaseURL   string               `json:"baseUrl"`
	Resources map[string]*Resource `json:"resources"`
	Schemas   map[string]*Schema   `json:"schemas"`
}

// Resource is one node in a document's resource tree. Resources may nest
// ("spreadsheets" contains "values").
type Resource struct {
	Methods   map[string]*Method   `json:"methods"`
	Resources map[string]*Resource `json:"resources"`
}

// Method is the raw description of one remote operation.
type Method struct {
	ID         string                `json:"id"`
	Path       string                `json:"path"`
	HTTPMethod string                `json:"httpMethod"`
	Parameters map[string]*ParamSpec `json:"parameters"`
	Request    *SchemaRef            `json:"request"`
	Response   *SchemaRef            `json:"response"`
	Scopes     []string              `json:"scopes"`
}

// ParamSpec is the raw description of one declared parameter.
type ParamSpec struct {
	Location    string `json:"location"` // "path" or "query"
	Required    bool   `json:"required"`
	Repeated    bool   `json:"repeated"`
	Type        string `json:"type"`
	Default     string `json:"default"`
	Description string `json:"description"`
}

// SchemaRef points at a named entry in the document's schemas section.
type SchemaRef struct {
	Ref string `json:"$ref"`
}

// Schema describes a request or response payload shape. Only the property
// names matter for routing: every top-level property of a method's request
// schema becomes a body-located parameter.
type Schema struct {
	Properties map[string]json.RawMessage `json:"properties"`
}

// templateVarRe matches URL template placeholders, including the reserved
// expansion form ("{+fileId}") some documents use.
var templateVarRe = regexp.MustCompile(`\{(\+?)([^}/]+)\}`)

// LoadDocument parses and validates a Discovery document. All structural
// defects are aggregated into a single error naming every problem found.
func LoadDocument(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse discovery document: %w", err)
	}

	var result *multierror.Error
	if doc.Name == "" {
		result = multierror.Append(result, fmt.Errorf("document has no name"))
	}
	if doc.Version == "" {
		result = multierror.Append(result, fmt.Errorf("document %q has no version", doc.Name))
	}
	if doc.BaseURL == "" {
		result = multierror.Append(result, fmt.Errorf("document %q has no baseUrl", doc.Name))
	} else if u, err := url.Parse(doc.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		result = multierror.Append(result, fmt.Errorf("document %q has invalid baseUrl %q", doc.Name, doc.BaseURL))
	}
	if len(doc.Resources) == 0 {
		result = multierror.Append(result, fmt.Errorf("document %q declares no resources", doc.Name))
	}

	for name, res := range doc.Resources {
		validateResource(&doc, name, res, &result)
	}

	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("invalid discovery document: %w", err)
	}
	return &doc, nil
}

func validateResource(doc *Document, path string, res *Resource, result **multierror.Error) {
	if len(res.Methods) == 0 && len(res.Resources) == 0 {
		*result = multierror.Append(*result, fmt.Errorf("resource %q has no methods or subresources", path))
		return
	}
	for name, m := range res.Methods {
		validateMethod(doc, path+"."+name, m, result)
	}
	for name, sub := range res.Resources {
		validateResource(doc, path+"."+name, sub, result)
	}
}

func validateMethod(doc *Document, path string, m *Method, result **multierror.Error) {
	if m.Path == "" {
		*result = multierror.Append(*result, fmt.Errorf("method %q has no path", path))
	}
	if m.HTTPMethod == "" {
		*result = multierror.Append(*result, fmt.Errorf("method %q has no httpMethod", path))
	}
	for name, p := range m.Parameters {
		switch p.Location {
		case "path", "query":
		default:
			*result = multierror.Append(*result,
				fmt.Errorf("method %q parameter %q has unknown location %q", path, name, p.Location))
		}
	}
	if m.Request != nil {
		if _, ok := doc.Schemas[m.Request.Ref]; !ok {
			*result = multierror.Append(*result,
				fmt.Errorf("method %q references unknown request schema %q", path, m.Request.Ref))
		}
	}
	// Template placeholders must be satisfiable: any placeholder without a
	// declared path parameter of the same name cannot be bound at call time.
	for _, match := range templateVarRe.FindAllStringSubmatch(m.Path, -1) {
		name := match[2]
		p, ok := m.Parameters[name]
		if !ok {
			*result = multierror.Append(*result,
				fmt.Errorf("method %q template placeholder %q has no declared parameter", path, name))
			continue
		}
		if p.Location != "path" {
			*result = multierror.Append(*result,
				fmt.Errorf("method %q template placeholder %q is declared with location %q", path, name, p.Location))
		}
	}
}

// ServiceKey returns the "name:version" key the catalog indexes documents by.
func (d *Document) ServiceKey() string {
	return d.Name + ":" + d.Version
}
