package drive

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/mitchellh/mapstructure"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

const (
	// FolderMimeType marks a Drive folder.
	FolderMimeType = "application/vnd.google-apps.folder"
	// ShortcutMimeType marks a Drive shortcut.
	ShortcutMimeType = "application/vnd.google-apps.shortcut"
)

var (
	listFields = []string{
		"driveId", "id", "name", "mimeType", "createdTime",
		"modifiedTime", "size", "md5Checksum", "owners(emailAddress)", "trashed",
	}
	fileFields = []string{
		"driveId", "id", "name", "mimeType", "createdTime", "modifiedTime",
		"size", "md5Checksum", "owners(emailAddress)", "parents",
	}
	writeFields = []string{
		"driveId", "id", "name", "mimeType", "createdTime", "size",
		"md5Checksum", "parents",
	}
)

// Owner is the slice of a file owner the default field mask requests.
type Owner struct {
	EmailAddress string `mapstructure:"emailAddress"`
}

// File is the subset of Drive file metadata the default field masks
// cover. Size is a string on the wire.
type File struct {
	ID           string   `mapstructure:"id"`
	DriveID      string   `mapstructure:"driveId"`
	Name         string   `mapstructure:"name"`
	MimeType     string   `mapstructure:"mimeType"`
	CreatedTime  string   `mapstructure:"createdTime"`
	ModifiedTime string   `mapstructure:"modifiedTime"`
	Size         string   `mapstructure:"size"`
	MD5Checksum  string   `mapstructure:"md5Checksum"`
	Parents      []string `mapstructure:"parents"`
	Owners       []Owner  `mapstructure:"owners"`
	Trashed      bool     `mapstructure:"trashed"`
}

// Service exposes Drive verbs over a shared gapi client. Media transfers
// bypass the schema'd client and go out as raw authorized requests, so
// the service also carries a plain HTTP client for them.
type Service struct {
	client *gapi.Client
	http   *http.Client
}

// Option configures a Service.
type Option func(*Service)

// WithHTTPClient replaces the HTTP client used for media transfers.
func WithHTTPClient(h *http.Client) Option {
	return func(s *Service) { s.http = h }
}

// New builds a Drive service over an existing client.
func New(client *gapi.Client, opts ...Option) *Service {
	s := &Service{client: client, http: &http.Client{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOption tunes a Find or Ls traversal.
type FindOption func(*findConfig)

type findConfig struct {
	fields   []string
	pageSize int
	limit    int
}

// WithFields replaces the default per-file field selection.
func WithFields(fields ...string) FindOption {
	return func(cfg *findConfig) { cfg.fields = fields }
}

// WithPageSize sets the page size requested from the provider.
func WithPageSize(n int) FindOption {
	return func(cfg *findConfig) { cfg.pageSize = n }
}

// WithLimit caps the number of files returned; zero means unbounded.
func WithLimit(n int) FindOption {
	return func(cfg *findConfig) { cfg.limit = n }
}

// Find searches Drive with a files.list query expression, walking every
// result page. Query syntax is the provider's, e.g.
// "name contains 'report' and trashed = false".
func (s *Service) Find(ctx context.Context, q string, opts ...FindOption) ([]File, error) {
	cfg := findConfig{fields: listFields, pageSize: 1000}
	for _, opt := range opts {
		opt(&cfg)
	}

	args := gapi.Args{
		"q":                         q,
		"corpora":                   "allDrives",
		"includeItemsFromAllDrives": true,
		"supportsAllDrives":         true,
		"fields":                    "files(" + strings.Join(cfg.fields, ",") + "),nextPageToken",
	}
	it, err := s.client.Walk("drive:v3.files.list", args, gapi.WithPageSize(cfg.pageSize))
	if err != nil {
		return nil, err
	}

	var files []File
	for {
		item, err := it.Next(ctx)
		if err == gapi.Done {
			return files, nil
		}
		if err != nil {
			return files, err
		}
		f, err := decodeFile(item)
		if err != nil {
			return files, err
		}
		files = append(files, f)
		if cfg.limit > 0 && len(files) >= cfg.limit {
			return files, nil
		}
	}
}

// Ls lists the direct children of a folder, excluding trashed files.
func (s *Service) Ls(ctx context.Context, folderID string, opts ...FindOption) ([]File, error) {
	q := fmt.Sprintf("('%s' in parents) and trashed = false", folderID)
	return s.Find(ctx, q, opts...)
}

// Stat fetches one file's metadata.
func (s *Service) Stat(ctx context.Context, fileID string, fields ...string) (*File, error) {
	if len(fields) == 0 {
		fields = fileFields
	}
	resp, err := s.client.Call(ctx, "drive:v3.files.get", gapi.Args{
		"fileId":            fileID,
		"supportsAllDrives": true,
		"fields":            strings.Join(fields, ","),
	})
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Cp copies a file. Empty name keeps the source name; empty folderID
// keeps the source parent.
func (s *Service) Cp(ctx context.Context, fileID, name, folderID string) (*File, error) {
	args := gapi.Args{
		"fileId":            fileID,
		"supportsAllDrives": true,
		"fields":            strings.Join(fileFields, ","),
	}
	if name != "" {
		args["name"] = name
	}
	if folderID != "" {
		args["parents"] = []any{folderID}
	}
	resp, err := s.client.Call(ctx, "drive:v3.files.copy", args)
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Mv moves a file to another folder, detaching it from all current
// parents first.
func (s *Service) Mv(ctx context.Context, fileID, folderID string) (*File, error) {
	current, err := s.Stat(ctx, fileID, "parents")
	if err != nil {
		return nil, fmt.Errorf("failed to resolve current parents: %w", err)
	}
	resp, err := s.client.Call(ctx, "drive:v3.files.update", gapi.Args{
		"fileId":            fileID,
		"removeParents":     strings.Join(current.Parents, ","),
		"addParents":        folderID,
		"supportsAllDrives": true,
		"fields":            strings.Join(writeFields, ","),
	})
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Rename changes a file's display name.
func (s *Service) Rename(ctx context.Context, fileID, name string) (*File, error) {
	resp, err := s.client.Call(ctx, "drive:v3.files.update", gapi.Args{
		"fileId":            fileID,
		"name":              name,
		"supportsAllDrives": true,
		"fields":            strings.Join(writeFields, ","),
	})
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Mkdir creates a folder. Empty folderID places it under the Drive root.
func (s *Service) Mkdir(ctx context.Context, name, folderID string) (*File, error) {
	if folderID == "" {
		folderID = "root"
	}
	resp, err := s.client.Call(ctx, "drive:v3.files.create", gapi.Args{
		"name":              name,
		"mimeType":          FolderMimeType,
		"parents":           []any{folderID},
		"supportsAllDrives": true,
		"fields":            strings.Join(writeFields, ","),
	})
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Ln creates a shortcut pointing at targetID. Empty folderID places the
// shortcut under the Drive root.
func (s *Service) Ln(ctx context.Context, targetID, name, folderID string) (*File, error) {
	if folderID == "" {
		folderID = "root"
	}
	resp, err := s.client.Call(ctx, "drive:v3.files.create", gapi.Args{
		"name":              name,
		"mimeType":          ShortcutMimeType,
		"parents":           []any{folderID},
		"shortcutDetails":   map[string]any{"targetId": targetID},
		"supportsAllDrives": true,
		"fields":            strings.Join(writeFields, ","),
	})
	if err != nil {
		return nil, err
	}
	return decodeFilePtr(resp.Body)
}

// Rm permanently deletes a file, bypassing the trash.
func (s *Service) Rm(ctx context.Context, fileID string) error {
	_, err := s.client.Call(ctx, "drive:v3.files.delete", gapi.Args{
		"fileId":            fileID,
		"supportsAllDrives": true,
	})
	return err
}

// About reports information about the authenticated user and their Drive,
// e.g. fields "user,storageQuota".
func (s *Service) About(ctx context.Context, fields string) (map[string]any, error) {
	if fields == "" {
		fields = "user,storageQuota"
	}
	resp, err := s.client.Call(ctx, "drive:v3.about.get", gapi.Args{"fields": fields})
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

func decodeFile(item any) (File, error) {
	var f File
	if err := mapstructure.Decode(item, &f); err != nil {
		return File{}, fmt.Errorf("failed to decode file metadata: %w", err)
	}
	return f, nil
}

func decodeFilePtr(body map[string]any) (*File, error) {
	f, err := decodeFile(body)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
