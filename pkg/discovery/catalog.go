package discovery

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// UnknownMethodError reports a method reference absent from the loaded
// documents.
type UnknownMethodError struct {
	Ref string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("unknown method %q", e.Ref)
}

// Catalog indexes one or more Discovery documents by method reference.
// It is immutable after construction and safe for concurrent readers.
type Catalog struct {
	methods     map[string]*MethodSchema
	services    map[string]*Document
	conventions Conventions
}

// NewCatalog compiles the given documents into a catalog. The conventions
// table defaults to DefaultConventions; a non-nil table is merged over the
// defaults. Compilation fails fast, aggregating every defect.
func NewCatalog(docs []*Document, conv Conventions) (*Catalog, error) {
	conventions := DefaultConventions()
	if conv != nil {
		conventions = conventions.Merge(conv)
	}

	c := &Catalog{
		methods:     make(map[string]*MethodSchema),
		services:    make(map[string]*Document, len(docs)),
		conventions: conventions,
	}

	var result *multierror.Error
	for _, doc := range docs {
		if _, ok := c.services[doc.ServiceKey()]; ok {
			result = multierror.Append(result,
				fmt.Errorf("duplicate document for service %q", doc.ServiceKey()))
			continue
		}
		c.services[doc.ServiceKey()] = doc
		c.compileResources(doc, "", doc.Resources, &result)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return c, nil
}

// SplitRef splits a method reference "sheets:v4.spreadsheets.values.batchGet"
// into service, version, dotted resource path, and method name.
func SplitRef(ref string) (service, version, resource, method string, err error) {
	head, rest, ok := strings.Cut(ref, ".")
	if !ok {
		return "", "", "", "", fmt.Errorf("malformed method reference %q", ref)
	}
	service, version, ok = strings.Cut(head, ":")
	if !ok || service == "" || version == "" {
		return "", "", "", "", fmt.Errorf("malformed method reference %q: want service:version prefix", ref)
	}
	idx := strings.LastIndex(rest, ".")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", "", "", fmt.Errorf("malformed method reference %q: want resource.method", ref)
	}
	return service, version, rest[:idx], rest[idx+1:], nil
}

// Describe returns the compiled schema for a method reference, or an
// UnknownMethodError when no loaded document declares it.
func (c *Catalog) Describe(ref string) (*MethodSchema, error) {
	if _, _, _, _, err := SplitRef(ref); err != nil {
		return nil, err
	}
	schema, ok := c.methods[ref]
	if !ok {
		return nil, &UnknownMethodError{Ref: ref}
	}
	return schema, nil
}

// Refs returns every method reference in the catalog, sorted.
func (c *Catalog) Refs() []string {
	refs := make([]string, 0, len(c.methods))
	for ref := range c.methods {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Services returns the service keys ("drive:v3") of the loaded documents.
func (c *Catalog) Services() []string {
	keys := make([]string, 0, len(c.services))
	for k := range c.services {
		keys = append(keys, k)
	}
	return keys
}

// Conventions returns the service conventions the catalog was built with.
func (c *Catalog) Conventions(service string) (ServiceConventions, bool) {
	sc, ok := c.conventions[service]
	return sc, ok
}

func (c *Catalog) compileResources(doc *Document, prefix string, resources map[string]*Resource, result **multierror.Error) {
	for name, res := range resources {
		path := name
		if prefix != "" {
			path = prefix + "." + name
		}
		for methodName, m := range res.Methods {
			schema, err := c.compileMethod(doc, path, methodName, m)
			if err != nil {
				*result = multierror.Append(*result, err)
				continue
			}
			c.methods[schema.Ref()] = schema
		}
		c.compileResources(doc, path, res.Resources, result)
	}
}

func (c *Catalog) compileMethod(doc *Document, resourcePath, methodName string, m *Method) (*MethodSchema, error) {
	schema := &MethodSchema{
		Service:      doc.Name,
		Version:      doc.Version,
		Resource:     resourcePath,
		Method:       methodName,
		ID:           m.ID,
		HTTPVerb:     m.HTTPMethod,
		BaseURL:      doc.BaseURL,
		PathTemplate: m.Path,
		Parameters:   make(map[string]Parameter, len(m.Parameters)),
		Scopes:       m.Scopes,
	}

	for name, spec := range m.Parameters {
		loc := LocationQuery
		if spec.Location == "path" {
			loc = LocationPath
		}
		schema.Parameters[name] = Parameter{
			Name:     name,
			Location: loc,
			Required: spec.Required,
			Repeated: spec.Repeated,
			Default:  spec.Default,
		}
	}

	// Every top-level property of the request schema is a body parameter.
	// Discovery documents do not mark body properties required; the
	// provider enforces body completeness.
	if m.Request != nil {
		req, ok := doc.Schemas[m.Request.Ref]
		if !ok {
			return nil, fmt.Errorf("method %q references unknown request schema %q", m.ID, m.Request.Ref)
		}
		for name := range req.Properties {
			// A name can appear both as a URL parameter and a body property
			// (values.append declares "range" in both places). The URL
			// declaration wins so each parameter has exactly one location.
			if _, exists := schema.Parameters[name]; exists {
				continue
			}
			schema.Parameters[name] = Parameter{Name: name, Location: LocationBody}
		}
	}

	conv, ok := c.conventions[doc.Name]
	if !ok {
		return schema, nil
	}
	if conv.PageTokenParam != "" {
		if _, declared := schema.Parameters[conv.PageTokenParam]; declared {
			schema.PageTokenParam = conv.PageTokenParam
			schema.NextTokenField = conv.NextTokenField
			schema.ItemsField = conv.ItemsField
			if override, ok := conv.ItemsFieldByMethod[m.ID]; ok {
				schema.ItemsField = override
			}
			schema.PageSizeParam = conv.PageSizeParam
		}
	}
	if conv.BatchPath != "" {
		schema.Batchable = true
		schema.BatchPath = conv.BatchPath
		schema.BatchLimit = conv.BatchLimit
	}
	return schema, nil
}
