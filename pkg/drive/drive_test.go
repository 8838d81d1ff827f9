package drive

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/auth"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/discovery"
	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

type fakeTransport struct {
	mu       sync.Mutex
	requests []*gapi.Request
	handler  func(req *gapi.Request) (*gapi.Response, error)
}

func (t *fakeTransport) RoundTrip(_ context.Context, req *gapi.Request) (*gapi.Response, error) {
	t.mu.Lock()
	t.requests = append(t.requests, req)
	t.mu.Unlock()
	return t.handler(req)
}

func newTestService(t *testing.T, handler func(req *gapi.Request) (*gapi.Response, error)) (*Service, *fakeTransport) {
	t.Helper()
	catalog, err := discovery.EmbeddedCatalog()
	require.NoError(t, err)
	capability, err := auth.StaticTokenCapability("tok", []string{
		"https://www.googleapis.com/auth/drive",
	})
	require.NoError(t, err)

	transport := &fakeTransport{handler: handler}
	client, err := gapi.NewClient(catalog, capability, gapi.WithTransport(transport))
	require.NoError(t, err)
	return New(client), transport
}

func TestLsBuildsQueryAndDecodes(t *testing.T) {
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"files": []any{
				map[string]any{
					"id":       "f1",
					"name":     "notes.txt",
					"mimeType": "text/plain",
					"size":     "42",
					"owners":   []any{map[string]any{"emailAddress": "a@b.com"}},
				},
				map[string]any{
					"id":       "d1",
					"name":     "archive",
					"mimeType": FolderMimeType,
				},
			},
		}}, nil
	})

	files, err := svc.Ls(context.Background(), "folder-1")
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "notes.txt", files[0].Name)
	assert.Equal(t, "42", files[0].Size)
	assert.Equal(t, "a@b.com", files[0].Owners[0].EmailAddress)
	assert.Equal(t, FolderMimeType, files[1].MimeType)

	req := transport.requests[0]
	assert.Equal(t, "('folder-1' in parents) and trashed = false", req.Query.Get("q"))
	assert.Equal(t, "allDrives", req.Query.Get("corpora"))
	assert.Equal(t, "1000", req.Query.Get("pageSize"))
	assert.Contains(t, req.Query.Get("fields"), "files(")
	assert.Contains(t, req.Query.Get("fields"), "nextPageToken")
}

func TestFindWalksPagesAndHonorsLimit(t *testing.T) {
	page := 0
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		page++
		if page == 1 {
			return &gapi.Response{StatusCode: 200, Body: map[string]any{
				"files":         []any{map[string]any{"id": "f1"}, map[string]any{"id": "f2"}},
				"nextPageToken": "t1",
			}}, nil
		}
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"files": []any{map[string]any{"id": "f3"}},
		}}, nil
	})

	files, err := svc.Find(context.Background(), "trashed = false")
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2", "f3"}, ids(files))

	// A limit stops mid-page without fetching further.
	page = 0
	transport.requests = nil
	files, err = svc.Find(context.Background(), "trashed = false", WithLimit(2))
	require.NoError(t, err)
	assert.Equal(t, []string{"f1", "f2"}, ids(files))
	assert.Len(t, transport.requests, 1)
}

func ids(files []File) []string {
	out := make([]string, len(files))
	for i, f := range files {
		out[i] = f.ID
	}
	return out
}

func TestMkdirSendsFolderBody(t *testing.T) {
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"id": "new-folder", "mimeType": FolderMimeType,
		}}, nil
	})

	folder, err := svc.Mkdir(context.Background(), "reports", "")
	require.NoError(t, err)
	assert.Equal(t, "new-folder", folder.ID)

	req := transport.requests[0]
	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "reports", req.Body["name"])
	assert.Equal(t, FolderMimeType, req.Body["mimeType"])
	assert.Equal(t, []any{"root"}, req.Body["parents"])
}

func TestMvDetachesCurrentParents(t *testing.T) {
	svc, transport := newTestService(t, func(req *gapi.Request) (*gapi.Response, error) {
		if req.Method == "GET" {
			return &gapi.Response{StatusCode: 200, Body: map[string]any{
				"id": "f1", "parents": []any{"old-1", "old-2"},
			}}, nil
		}
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"id": "f1", "parents": []any{"new-folder"},
		}}, nil
	})

	moved, err := svc.Mv(context.Background(), "f1", "new-folder")
	require.NoError(t, err)
	assert.Equal(t, []string{"new-folder"}, moved.Parents)

	require.Len(t, transport.requests, 2)
	update := transport.requests[1]
	assert.Equal(t, "PATCH", update.Method)
	assert.Equal(t, "old-1,old-2", update.Query.Get("removeParents"))
	assert.Equal(t, "new-folder", update.Query.Get("addParents"))
}

func TestLnSendsShortcutDetails(t *testing.T) {
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		return &gapi.Response{StatusCode: 200, Body: map[string]any{"id": "sc1"}}, nil
	})

	_, err := svc.Ln(context.Background(), "target-1", "shortcut", "folder-1")
	require.NoError(t, err)

	body := transport.requests[0].Body
	assert.Equal(t, ShortcutMimeType, body["mimeType"])
	assert.Equal(t, map[string]any{"targetId": "target-1"}, body["shortcutDetails"])
	assert.Equal(t, []any{"folder-1"}, body["parents"])
}

func TestRm(t *testing.T) {
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		return &gapi.Response{StatusCode: 204}, nil
	})

	require.NoError(t, svc.Rm(context.Background(), "f1"))
	req := transport.requests[0]
	assert.Equal(t, "DELETE", req.Method)
	assert.Contains(t, req.URL, "files/f1")
}

func TestStatRequiresReadScopeOnly(t *testing.T) {
	catalog, err := discovery.EmbeddedCatalog()
	require.NoError(t, err)
	capability, err := auth.NewResolver().Resolve(context.Background(), auth.APIKeyCredential("k"))
	require.NoError(t, err)

	transport := &fakeTransport{handler: func(*gapi.Request) (*gapi.Response, error) {
		return &gapi.Response{StatusCode: 200, Body: map[string]any{"id": "f1"}}, nil
	}}
	client, err := gapi.NewClient(catalog, capability, gapi.WithTransport(transport))
	require.NoError(t, err)
	svc := New(client)

	_, err = svc.Stat(context.Background(), "f1")
	require.NoError(t, err)

	// The same key cannot delete.
	err = svc.Rm(context.Background(), "f1")
	var cerr *auth.CapabilityError
	require.ErrorAs(t, err, &cerr)
	assert.Len(t, transport.requests, 1)
}
