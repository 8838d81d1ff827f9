package youtube

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

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
		"https://www.googleapis.com/auth/youtube.readonly",
	})
	require.NoError(t, err)

	transport := &fakeTransport{handler: handler}
	client, err := gapi.NewClient(catalog, capability, gapi.WithTransport(transport))
	require.NoError(t, err)
	return New(client), transport
}

// echoIDs answers a videos/channels list call with one item per
// requested id.
func echoIDs(req *gapi.Request) (*gapi.Response, error) {
	items := []any{}
	for _, id := range strings.Split(req.Query.Get("id"), ",") {
		items = append(items, map[string]any{"id": id})
	}
	return &gapi.Response{StatusCode: 200, Body: map[string]any{"items": items}}, nil
}

func TestVideosChunksLargeIDSets(t *testing.T) {
	svc, transport := newTestService(t, echoIDs)

	ids := make([]string, 120)
	for i := range ids {
		ids[i] = fmt.Sprintf("video-%03d", i)
	}

	items, err := svc.Videos(context.Background(), ids)
	require.NoError(t, err)
	require.Len(t, items, 120)

	// 120 ids at 50 per call is three calls, in order.
	require.Len(t, transport.requests, 3)
	first := strings.Split(transport.requests[0].Query.Get("id"), ",")
	assert.Len(t, first, 50)
	last := strings.Split(transport.requests[2].Query.Get("id"), ",")
	assert.Len(t, last, 20)

	// Items follow the caller's id order.
	for i, item := range items {
		assert.Equal(t, ids[i], item["id"])
	}
}

func TestVideosDeduplicatesAndDropsEmpties(t *testing.T) {
	svc, transport := newTestService(t, echoIDs)

	items, err := svc.Videos(context.Background(), []string{"a", "", "b", "a"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a,b", transport.requests[0].Query.Get("id"))
}

func TestVideosOmitsUnknownIDs(t *testing.T) {
	svc, _ := newTestService(t, func(req *gapi.Request) (*gapi.Response, error) {
		// The provider silently drops ids it does not know.
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"items": []any{map[string]any{"id": "known"}},
		}}, nil
	})

	items, err := svc.Videos(context.Background(), []string{"known", "unknown"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "known", items[0]["id"])
}

func TestChannelsUsesChannelParts(t *testing.T) {
	svc, transport := newTestService(t, echoIDs)

	_, err := svc.Channels(context.Background(), []string{"UC123"}, WithParts("snippet", "statistics"))
	require.NoError(t, err)
	assert.Equal(t, "snippet,statistics", transport.requests[0].Query.Get("part"))
	assert.Contains(t, transport.requests[0].URL, "/youtube/v3/channels")
}

func TestPlaylistItemsWalksPages(t *testing.T) {
	page := 0
	svc, _ := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		page++
		if page == 1 {
			return &gapi.Response{StatusCode: 200, Body: map[string]any{
				"items":         []any{map[string]any{"id": "p1"}},
				"nextPageToken": "t1",
			}}, nil
		}
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"items": []any{map[string]any{"id": "p2"}},
		}}, nil
	})

	it, err := svc.PlaylistItems(context.Background(), "PL123")
	require.NoError(t, err)
	items, err := it.Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func playlistItem(id, published string) map[string]any {
	return map[string]any{
		"id": id,
		"contentDetails": map[string]any{
			"videoId":          id,
			"videoPublishedAt": published,
		},
	}
}

func TestVideosBeforeStopsAtCutoff(t *testing.T) {
	svc, transport := newTestService(t, func(*gapi.Request) (*gapi.Response, error) {
		// Newest first, as the uploads playlist orders them.
		return &gapi.Response{StatusCode: 200, Body: map[string]any{
			"items": []any{
				playlistItem("v5", "2026-05-01T00:00:00Z"),
				playlistItem("v4", "2026-04-01T00:00:00Z"),
				playlistItem("v3", "2026-03-01T00:00:00Z"),
				playlistItem("v2", "2026-02-01T00:00:00Z"),
				playlistItem("v1", "2026-01-01T00:00:00Z"),
			},
			"nextPageToken": "more",
		}}, nil
	})

	cutoff := time.Date(2026, 4, 15, 0, 0, 0, 0, time.UTC)
	items, err := svc.VideosBefore(context.Background(), "PL123", cutoff, 2)
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "v4", items[0]["id"])
	assert.Equal(t, "v3", items[1]["id"])
	// The walk stopped inside the first page despite the pending token.
	assert.Len(t, transport.requests, 1)
}
