package discovery

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ServiceConventions captures the per-service facts the Discovery documents
// do not state uniformly: how pagination is spelled and where batch calls
// go. PageWalker and BatchCoordinator read only these values, never the
// service name, so adding a service is a data change.
type ServiceConventions struct {
	// PageTokenParam is the query parameter carrying the continuation
	// token on list-shaped methods. Empty means the service has no
	// paginated surface.
	PageTokenParam string `yaml:"page_token_param"`

	// NextTokenField is the response field carrying the next continuation
	// token; its absence in a response terminates the walk.
	NextTokenField string `yaml:"next_token_field"`

	// ItemsField is the response field carrying result items.
	ItemsField string `yaml:"items_field"`

	// ItemsFieldByMethod overrides ItemsField per method ID, for services
	// whose list methods name their collection after the resource
	// ("files", "permissions").
	ItemsFieldByMethod map[string]string `yaml:"items_field_by_method,omitempty"`

	// PageSizeParam is the query parameter bounding page size.
	PageSizeParam string `yaml:"page_size_param,omitempty"`

	// BatchPath is the service's batch endpoint path relative to the
	// scheme and host of the base URL. Empty means the service accepts no
	// envelope batching and its operations are always dispatched
	// individually.
	BatchPath string `yaml:"batch_path,omitempty"`

	// BatchLimit is the maximum sub-request count per batch call.
	BatchLimit int `yaml:"batch_limit,omitempty"`
}

// Conventions maps a service name to its conventions.
type Conventions map[string]ServiceConventions

// DefaultConventions returns the built-in table for the three supported
// API families. The batch limits are configuration, not provider-enforced
// constants; override them from YAML if a deployment needs different ones.
func DefaultConventions() Conventions {
	return Conventions{
		"drive": {
			PageTokenParam: "pageToken",
			NextTokenField: "nextPageToken",
			ItemsField:     "items",
			ItemsFieldByMethod: map[string]string{
				"drive.files.list":       "files",
				"drive.permissions.list": "permissions",
				"drive.revisions.list":   "revisions",
			},
			PageSizeParam: "pageSize",
			BatchPath:     "batch/drive/v3",
			BatchLimit:    100,
		},
		"sheets": {
			// The Sheets API has no token-paginated or envelope-batchable
			// surface; its batch-shaped methods (values.batchUpdate,
			// spreadsheets.batchUpdate) take their sub-requests in the
			// request body and are ordinary calls here.
		},
		"youtube": {
			PageTokenParam: "pageToken",
			NextTokenField: "nextPageToken",
			ItemsField:     "items",
			PageSizeParam:  "maxResults",
			BatchPath:      "batch/youtube/v3",
			BatchLimit:     50,
		},
	}
}

// LoadConventions reads a YAML conventions table. Entries replace the
// defaults wholesale for the services they name.
func LoadConventions(r io.Reader) (Conventions, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read conventions: %w", err)
	}
	var conv Conventions
	if err := yaml.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("failed to parse conventions: %w", err)
	}
	return conv, nil
}

// Merge overlays other onto c, returning a new table.
func (c Conventions) Merge(other Conventions) Conventions {
	merged := make(Conventions, len(c)+len(other))
	for name, sc := range c {
		merged[name] = sc
	}
	for name, sc := range other {
		merged[name] = sc
	}
	return merged
}
