package gapi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
)

func TestBuildPlanRoutesByLocation(t *testing.T) {
	schema := mustSchema(t, "sheets:v4.spreadsheets.values.append")

	plan, err := BuildPlan(schema, Args{
		"spreadsheetId":    "sheet-1",
		"range":            "Sheet1!A1:B2",
		"valueInputOption": "RAW",
		"values":           [][]any{{"a", "b"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "sheet-1", plan.Path["spreadsheetId"])
	assert.Equal(t, "Sheet1!A1:B2", plan.Path["range"])
	assert.Equal(t, "RAW", plan.Query.Get("valueInputOption"))
	assert.Contains(t, plan.Body, "values")

	// Every argument lands in exactly one bucket.
	total := len(plan.Path) + len(plan.Query) + len(plan.Body)
	assert.Equal(t, 4, total)
}

func TestBuildPlanBodyParameters(t *testing.T) {
	schema := mustSchema(t, "sheets:v4.spreadsheets.batchUpdate")

	plan, err := BuildPlan(schema, Args{
		"spreadsheetId": "sheet-1",
		"requests":      []map[string]any{{"addSheet": map[string]any{}}},
	})
	require.NoError(t, err)

	assert.Equal(t, "sheet-1", plan.Path["spreadsheetId"])
	assert.Contains(t, plan.Body, "requests")
	assert.Empty(t, plan.Query)
}

func TestBuildPlanDefaultsBindPerLocation(t *testing.T) {
	schema := &discovery.MethodSchema{
		Service:      "drive",
		Version:      "v3",
		Resource:     "files",
		Method:       "export",
		HTTPVerb:     "GET",
		BaseURL:      "https://www.googleapis.com/drive/v3/",
		PathTemplate: "files/{fileId}/export/{format}",
		Parameters: map[string]discovery.Parameter{
			"fileId":   {Name: "fileId", Location: discovery.LocationPath, Required: true},
			"format":   {Name: "format", Location: discovery.LocationPath, Required: true, Default: "pdf"},
			"alt":      {Name: "alt", Location: discovery.LocationQuery, Required: true, Default: "json"},
			"pageSize": {Name: "pageSize", Location: discovery.LocationQuery, Default: "100"},
		},
	}

	plan, err := BuildPlan(schema, Args{"fileId": "f-1"})
	require.NoError(t, err)

	// Required defaults land in their declared locations; the defaulted
	// path value satisfies the template placeholder.
	assert.Equal(t, "pdf", plan.Path["format"])
	assert.Equal(t, "json", plan.Query.Get("alt"))
	assert.Equal(t, "https://www.googleapis.com/drive/v3/files/f-1/export/pdf", plan.URL())

	// Optional defaults are the server's to fill.
	assert.False(t, plan.Query.Has("pageSize"))
}

func TestBuildPlanUnknownParameter(t *testing.T) {
	schema := mustSchema(t, "drive:v3.files.get")

	_, err := BuildPlan(schema, Args{
		"fileId": "f1",
		"zzz":    1,
		"aaa":    2,
	})
	var unknown *UnknownParameterError
	require.ErrorAs(t, err, &unknown)
	// Deterministic: the first unknown name in sorted order is reported.
	assert.Equal(t, "aaa", unknown.Name)
	assert.Equal(t, "drive:v3.files.get", unknown.Method)
}

func TestBuildPlanMissingRequired(t *testing.T) {
	tests := []struct {
		name string
		ref  string
		args Args
		want string
	}{
		{
			name: "missing path parameter",
			ref:  "drive:v3.files.get",
			args: Args{"fields": "id"},
			want: "fileId",
		},
		{
			name: "missing required query parameter",
			ref:  "youtube:v3.videos.list",
			args: Args{"id": "abc"},
			want: "part",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPlan(mustSchema(t, tt.ref), tt.args)
			var missing *MissingParameterError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tt.want, missing.Name)
		})
	}
}

func TestBuildPlanRepeatedQuery(t *testing.T) {
	schema := mustSchema(t, "sheets:v4.spreadsheets.values.batchGet")

	plan, err := BuildPlan(schema, Args{
		"spreadsheetId": "sheet-1",
		"ranges":        []string{"A1:B2", "Sheet2!A1:C3"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1:B2", "Sheet2!A1:C3"}, plan.Query["ranges"])

	// A lone scalar is accepted as a one-element repetition.
	plan, err = BuildPlan(schema, Args{
		"spreadsheetId": "sheet-1",
		"ranges":        "A1:B2",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"A1:B2"}, plan.Query["ranges"])
}

func TestBuildPlanScalarCoercion(t *testing.T) {
	schema := mustSchema(t, "drive:v3.files.list")

	plan, err := BuildPlan(schema, Args{
		"q":                 "trashed = false",
		"pageSize":          50,
		"supportsAllDrives": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "50", plan.Query.Get("pageSize"))
	assert.Equal(t, "true", plan.Query.Get("supportsAllDrives"))
}

func TestBuildPlanRejectsUnsupportedScalar(t *testing.T) {
	schema := mustSchema(t, "drive:v3.files.list")

	_, err := BuildPlan(schema, Args{"q": struct{}{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scalar type")
}

func TestPlanURLEscapesPathValues(t *testing.T) {
	schema := mustSchema(t, "drive:v3.files.get")

	plan, err := BuildPlan(schema, Args{"fileId": "a/b c"})
	require.NoError(t, err)
	assert.Equal(t, "https://www.googleapis.com/drive/v3/files/a%2Fb%20c", plan.URL())
}

func TestPlanRequestClonesQuery(t *testing.T) {
	schema := mustSchema(t, "drive:v3.files.list")

	plan, err := BuildPlan(schema, Args{"q": "trashed = false"})
	require.NoError(t, err)

	req := plan.Request(nil)
	plan.SetQuery("pageToken", "next")
	assert.False(t, req.Query.Has("pageToken"))
}
