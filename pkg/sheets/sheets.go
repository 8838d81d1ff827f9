package sheets

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

// ValueRange is one rectangular block of cell values, the unit both
// reads and writes travel in. Values is row-major unless MajorDimension
// says COLUMNS.
type ValueRange struct {
	Range          string  `mapstructure:"range" json:"range,omitempty"`
	MajorDimension string  `mapstructure:"majorDimension" json:"majorDimension,omitempty"`
	Values         [][]any `mapstructure:"values" json:"values,omitempty"`
}

// SheetInfo is the per-tab summary Info reports.
type SheetInfo struct {
	SheetID     int    `mapstructure:"sheetId"`
	Title       string `mapstructure:"title"`
	Index       int    `mapstructure:"index"`
	SheetType   string `mapstructure:"sheetType"`
	RowCount    int    `mapstructure:"rowCount"`
	ColumnCount int    `mapstructure:"columnCount"`
	Hidden      bool   `mapstructure:"hidden"`
}

// Service exposes Sheets helpers over a shared gapi client.
type Service struct {
	client *gapi.Client
}

// New builds a Sheets service over an existing client.
func New(client *gapi.Client) *Service {
	return &Service{client: client}
}

// ReadOption tunes how cell values are rendered in a BatchGet.
type ReadOption func(*readConfig)

type readConfig struct {
	valueRender    string
	dateTimeRender string
	majorDimension string
}

// WithValueRender selects FORMATTED_VALUE, UNFORMATTED_VALUE, or FORMULA.
func WithValueRender(option string) ReadOption {
	return func(cfg *readConfig) { cfg.valueRender = option }
}

// WithDateTimeRender selects SERIAL_NUMBER or FORMATTED_STRING.
func WithDateTimeRender(option string) ReadOption {
	return func(cfg *readConfig) { cfg.dateTimeRender = option }
}

// WithMajorDimension selects ROWS or COLUMNS.
func WithMajorDimension(dim string) ReadOption {
	return func(cfg *readConfig) { cfg.majorDimension = dim }
}

// BatchGet reads one or more A1-notation ranges in a single call.
// Values come back unformatted with serial-number dates unless options
// say otherwise.
func (s *Service) BatchGet(ctx context.Context, spreadsheetID string, ranges []string, opts ...ReadOption) ([]ValueRange, error) {
	cfg := readConfig{
		valueRender:    "UNFORMATTED_VALUE",
		dateTimeRender: "SERIAL_NUMBER",
		majorDimension: "ROWS",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.values.batchGet", gapi.Args{
		"spreadsheetId":        spreadsheetID,
		"ranges":               ranges,
		"valueRenderOption":    cfg.valueRender,
		"dateTimeRenderOption": cfg.dateTimeRender,
		"majorDimension":       cfg.majorDimension,
	})
	if err != nil {
		return nil, err
	}

	raw, _ := resp.Body["valueRanges"].([]any)
	out := make([]ValueRange, 0, len(raw))
	for _, item := range raw {
		var vr ValueRange
		if err := mapstructure.Decode(item, &vr); err != nil {
			return nil, fmt.Errorf("failed to decode value range: %w", err)
		}
		out = append(out, vr)
	}
	return out, nil
}

// WriteOption tunes how written values are interpreted.
type WriteOption func(*writeConfig)

type writeConfig struct {
	valueInput     string
	insertData     string
	includeInReply bool
}

// WithValueInput selects RAW or USER_ENTERED interpretation of written
// values.
func WithValueInput(option string) WriteOption {
	return func(cfg *writeConfig) { cfg.valueInput = option }
}

// WithInsertData selects INSERT_ROWS or OVERWRITE for appends.
func WithInsertData(option string) WriteOption {
	return func(cfg *writeConfig) { cfg.insertData = option }
}

// WithValuesInResponse echoes the written values back in the reply.
func WithValuesInResponse() WriteOption {
	return func(cfg *writeConfig) { cfg.includeInReply = true }
}

// BatchUpdateValues writes one or more ranges in a single call.
func (s *Service) BatchUpdateValues(ctx context.Context, spreadsheetID string, data []ValueRange, opts ...WriteOption) (map[string]any, error) {
	cfg := writeConfig{valueInput: "RAW"}
	for _, opt := range opts {
		opt(&cfg)
	}

	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.values.batchUpdate", gapi.Args{
		"spreadsheetId":           spreadsheetID,
		"valueInputOption":        cfg.valueInput,
		"data":                    data,
		"includeValuesInResponse": cfg.includeInReply,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Append appends rows after the last row of the table found in rangeA1.
func (s *Service) Append(ctx context.Context, spreadsheetID, rangeA1 string, values [][]any, opts ...WriteOption) (map[string]any, error) {
	cfg := writeConfig{valueInput: "RAW", insertData: "INSERT_ROWS"}
	for _, opt := range opts {
		opt(&cfg)
	}

	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.values.append", gapi.Args{
		"spreadsheetId":           spreadsheetID,
		"range":                   rangeA1,
		"valueInputOption":        cfg.valueInput,
		"insertDataOption":        cfg.insertData,
		"includeValuesInResponse": cfg.includeInReply,
		"values":                  values,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// BatchClear clears the values of the given ranges, leaving formatting
// and other cell properties intact.
func (s *Service) BatchClear(ctx context.Context, spreadsheetID string, ranges []string) ([]string, error) {
	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.values.batchClear", gapi.Args{
		"spreadsheetId": spreadsheetID,
		"ranges":        ranges,
	})
	if err != nil {
		return nil, err
	}
	raw, _ := resp.Body["clearedRanges"].([]any)
	cleared := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			cleared = append(cleared, s)
		}
	}
	return cleared, nil
}

// GetOption tunes a spreadsheet metadata fetch.
type GetOption func(*getConfig)

type getConfig struct {
	ranges          []string
	fields          string
	includeGridData bool
}

// WithRanges limits the response to the portions intersecting the given
// A1 ranges.
func WithRanges(ranges ...string) GetOption {
	return func(cfg *getConfig) { cfg.ranges = ranges }
}

// WithFields sets a field mask, which also disables grid data unless the
// mask requests it.
func WithFields(fields string) GetOption {
	return func(cfg *getConfig) { cfg.fields = fields }
}

// WithGridData includes cell-level grid data in the response.
func WithGridData() GetOption {
	return func(cfg *getConfig) { cfg.includeGridData = true }
}

// Get fetches spreadsheet metadata, optionally with grid data.
func (s *Service) Get(ctx context.Context, spreadsheetID string, opts ...GetOption) (map[string]any, error) {
	var cfg getConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	args := gapi.Args{"spreadsheetId": spreadsheetID}
	if len(cfg.ranges) > 0 {
		args["ranges"] = cfg.ranges
	}
	if cfg.fields != "" {
		args["fields"] = cfg.fields
	}
	if cfg.includeGridData {
		args["includeGridData"] = true
	}

	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.get", args)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Info summarizes each tab of a spreadsheet: id, title, position, type,
// grid dimensions, and visibility.
func (s *Service) Info(ctx context.Context, spreadsheetID string) ([]SheetInfo, error) {
	const mask = "sheets.properties(sheetId,title,index,sheetType,gridProperties(rowCount,columnCount),hidden)"
	body, err := s.Get(ctx, spreadsheetID, WithFields(mask))
	if err != nil {
		return nil, err
	}

	raw, _ := body["sheets"].([]any)
	out := make([]SheetInfo, 0, len(raw))
	for _, item := range raw {
		entry, _ := item.(map[string]any)
		props, _ := entry["properties"].(map[string]any)
		if grid, ok := props["gridProperties"].(map[string]any); ok {
			// Flatten so one decode covers the nested grid dimensions.
			props["rowCount"] = grid["rowCount"]
			props["columnCount"] = grid["columnCount"]
		}
		var info SheetInfo
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			Result:           &info,
			WeaklyTypedInput: true,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(props); err != nil {
			return nil, fmt.Errorf("failed to decode sheet properties: %w", err)
		}
		out = append(out, info)
	}
	return out, nil
}

// BatchUpdate applies structural requests (add sheets, recolor cells,
// resize grids) atomically, in order.
func (s *Service) BatchUpdate(ctx context.Context, spreadsheetID string, requests []map[string]any) (map[string]any, error) {
	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.batchUpdate", gapi.Args{
		"spreadsheetId":                spreadsheetID,
		"requests":                     requests,
		"includeSpreadsheetInResponse": true,
	})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// Create creates a spreadsheet with the given title and one tab per
// entry of sheetTitles, in order. The timezone defaults to GMT.
func (s *Service) Create(ctx context.Context, title string, sheetTitles []string) (map[string]any, error) {
	properties := map[string]any{"timeZone": "GMT"}
	if title != "" {
		properties["title"] = title
	}

	tabs := make([]map[string]any, 0, len(sheetTitles))
	for i, t := range sheetTitles {
		tabs = append(tabs, map[string]any{
			"properties": map[string]any{"title": t, "index": i},
		})
	}

	args := gapi.Args{"properties": properties}
	if len(tabs) > 0 {
		args["sheets"] = tabs
	}
	resp, err := s.client.Call(ctx, "sheets:v4.spreadsheets.create", args)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}
