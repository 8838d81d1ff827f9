package discovery

import (
	"fmt"
	"net/http"
	"sort"
)

// ParamLocation is the transport location an argument is routed to.
type ParamLocation int

const (
	// LocationPath substitutes the value into the URL template.
	LocationPath ParamLocation = iota
	// LocationQuery appends the value to the query string.
	LocationQuery
	// LocationBody places the value in the JSON request body.
	LocationBody
)

// String returns the location name as it appears in Discovery documents.
func (l ParamLocation) String() string {
	switch l {
	case LocationPath:
		return "path"
	case LocationQuery:
		return "query"
	case LocationBody:
		return "body"
	default:
		return fmt.Sprintf("location(%d)", int(l))
	}
}

// Parameter is one compiled parameter of a method: its name, where it
// travels, and whether a call may omit it.
type Parameter struct {
	Name     string
	Location ParamLocation
	Required bool
	Repeated bool
	Default  string
}

// MethodSchema is the compiled, immutable description of one remote
// operation. It is built once when the catalog loads and shared read-only
// across all calls.
type MethodSchema struct {
	// Service and Version identify the owning API ("drive", "v3").
	Service string
	Version string
	// Resource is the dotted resource path ("spreadsheets.values") and
	// Method the method name ("batchGet").
	Resource string
	Method   string
	// ID is the document's own method ID ("drive.files.list").
	ID string

	HTTPVerb     string
	BaseURL      string
	PathTemplate string
	Parameters   map[string]Parameter
	Scopes       []string

	// Pagination facts, resolved from the service conventions. A method is
	// paginated iff PageTokenParam is non-empty: the method declares the
	// service's continuation-token parameter.
	PageTokenParam string
	NextTokenField string
	ItemsField     string
	PageSizeParam  string

	// Batch facts. Batchable methods may be grouped into envelope calls
	// against BatchPath, at most BatchLimit sub-requests per call.
	Batchable  bool
	BatchPath  string
	BatchLimit int
}

// Ref returns the full method reference ("drive:v3.files.list").
func (m *MethodSchema) Ref() string {
	return m.Service + ":" + m.Version + "." + m.Resource + "." + m.Method
}

// SortedParameters returns the method's parameters ordered by name.
func (m *MethodSchema) SortedParameters() []Parameter {
	params := make([]Parameter, 0, len(m.Parameters))
	for _, p := range m.Parameters {
		params = append(params, p)
	}
	sort.Slice(params, func(i, j int) bool { return params[i].Name < params[j].Name })
	return params
}

// Paginated reports whether the method supports continuation-token paging.
func (m *MethodSchema) Paginated() bool {
	return m.PageTokenParam != ""
}

// Mutating reports whether the method changes remote state. GET and HEAD
// are the only read verbs the providers use.
func (m *MethodSchema) Mutating() bool {
	return m.HTTPVerb != http.MethodGet && m.HTTPVerb != http.MethodHead
}
