package gapi

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

// Args is the caller-supplied keyword arguments of one call.
type Args map[string]any

// RequestPlan is the ephemeral, fully-routed form of one call: every
// supplied argument placed in exactly one transport location, every
// required parameter bound. Plans are built per call and never shared.
type RequestPlan struct {
	Schema *discovery.MethodSchema

	Path  map[string]string
	Query url.Values
	Body  map[string]any
}

var placeholderRe = regexp.MustCompile(`\{(\+?)([^}/]+)\}`)

// BuildPlan partitions args into the path, query, and body buckets the
// method's schema declares. It is pure: no I/O, no mutation of args.
//
// Unknown names fail with UnknownParameterError; required parameters with
// no binding fail with MissingParameterError. A URL template placeholder
// with no binding is a MissingParameterError regardless of the schema's
// required flag: templates are authoritative for path completeness.
func BuildPlan(schema *discovery.MethodSchema, args Args) (*RequestPlan, error) {
	plan := &RequestPlan{
		Schema: schema,
		Path:   make(map[string]string),
		Query:  make(url.Values),
	}

	consumed := make(map[string]bool, len(args))
	for name, param := range schema.Parameters {
		value, ok := args[name]
		if !ok {
			// A required parameter with a schema-declared default is
			// satisfied by binding that default into its declared
			// location. Optional defaults are the server's to fill.
			if param.Required && param.Default != "" {
				if err := plan.bind(param, param.Default); err != nil {
					return nil, err
				}
			}
			continue
		}
		consumed[name] = true
		if value == nil {
			continue
		}
		if err := plan.bind(param, value); err != nil {
			return nil, err
		}
	}

	var unknown []string
	for name := range args {
		if !consumed[name] {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return nil, &UnknownParameterError{Method: schema.Ref(), Name: unknown[0]}
	}

	for name, param := range schema.Parameters {
		if !param.Required {
			continue
		}
		if !plan.bound(param) {
			return nil, &MissingParameterError{Method: schema.Ref(), Name: name}
		}
	}

	for _, match := range placeholderRe.FindAllStringSubmatch(schema.PathTemplate, -1) {
		if _, ok := plan.Path[match[2]]; !ok {
			return nil, &MissingParameterError{Method: schema.Ref(), Name: match[2]}
		}
	}

	return plan, nil
}

func (p *RequestPlan) bind(param discovery.Parameter, value any) error {
	switch param.Location {
	case discovery.LocationPath:
		s, err := scalarString(value)
		if err != nil {
			return fmt.Errorf("path parameter %q: %w", param.Name, err)
		}
		p.Path[param.Name] = s
	case discovery.LocationQuery:
		if param.Repeated {
			values, err := repeatedStrings(value)
			if err != nil {
				return fmt.Errorf("query parameter %q: %w", param.Name, err)
			}
			p.Query[param.Name] = values
			return nil
		}
		s, err := scalarString(value)
		if err != nil {
			return fmt.Errorf("query parameter %q: %w", param.Name, err)
		}
		p.Query.Set(param.Name, s)
	case discovery.LocationBody:
		if p.Body == nil {
			p.Body = make(map[string]any)
		}
		// Body values travel whole: nested mappings and sequences are
		// serialized as-is by the transport.
		p.Body[param.Name] = value
	}
	return nil
}

func (p *RequestPlan) bound(param discovery.Parameter) bool {
	switch param.Location {
	case discovery.LocationPath:
		_, ok := p.Path[param.Name]
		return ok
	case discovery.LocationQuery:
		return p.Query.Has(param.Name)
	case discovery.LocationBody:
		_, ok := p.Body[param.Name]
		return ok
	}
	return false
}

// SetQuery rebinds one query parameter, used by the page walker to carry
// the continuation token between pages.
func (p *RequestPlan) SetQuery(name, value string) {
	p.Query.Set(name, value)
}

// URL expands the method's URL template with the plan's path bindings.
// Plain placeholders are path-escaped; reserved-expansion placeholders
// ("{+name}") keep their value verbatim.
func (p *RequestPlan) URL() string {
	expanded := placeholderRe.ReplaceAllStringFunc(p.Schema.PathTemplate, func(m string) string {
		groups := placeholderRe.FindStringSubmatch(m)
		value := p.Path[groups[2]]
		if groups[1] == "+" {
			return value
		}
		return url.PathEscape(value)
	})
	return p.Schema.BaseURL + expanded
}

// Request assembles the normalized transport request, cloning the query so
// later rebinding does not alias an in-flight request.
func (p *RequestPlan) Request(header http.Header) *Request {
	query := make(url.Values, len(p.Query))
	for k, vs := range p.Query {
		query[k] = append([]string(nil), vs...)
	}
	return &Request{
		Method: p.Schema.HTTPVerb,
		URL:    p.URL(),
		Query:  query,
		Header: header,
		Body:   p.Body,
	}
}

// scalarString coerces a scalar argument to its wire form.
func scalarString(value any) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported scalar type %T", value)
	}
}

// repeatedStrings coerces a repeated query argument. A single scalar is
// accepted as a one-element repetition, matching how callers naturally
// pass a single range or id.
func repeatedStrings(value any) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, err := scalarString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	default:
		s, err := scalarString(value)
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}
