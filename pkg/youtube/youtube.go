package youtube

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/wilsonkkyip/google-apis-go-client/pkg/gapi"
)

// idChunkSize is the provider's per-call limit on comma-joined ids.
const idChunkSize = 50

var (
	defaultVideoParts = []string{
		"contentDetails", "id", "liveStreamingDetails",
		"localizations", "player", "recordingDetails",
		"snippet", "statistics", "status", "topicDetails",
	}
	defaultChannelParts = []string{
		"brandingSettings", "contentDetails",
		"contentOwnerDetails", "id", "localizations",
		"snippet", "statistics", "status", "topicDetails",
	}
	defaultPlaylistParts = []string{"contentDetails", "id", "snippet", "status"}
)

// Service exposes YouTube Data helpers over a shared gapi client.
type Service struct {
	client *gapi.Client
}

// New builds a YouTube service over an existing client.
func New(client *gapi.Client) *Service {
	return &Service{client: client}
}

// ListOption tunes which resource parts a list call requests.
type ListOption func(*listConfig)

type listConfig struct {
	parts []string
}

// WithParts replaces the default part selection.
func WithParts(parts ...string) ListOption {
	return func(cfg *listConfig) { cfg.parts = parts }
}

// Videos fetches metadata for a set of video ids, fanning the set out
// over as many 50-id calls as needed. Items come back in the caller's
// id order; ids the provider does not know are simply absent.
func (s *Service) Videos(ctx context.Context, ids []string, opts ...ListOption) ([]map[string]any, error) {
	return s.listByID(ctx, "youtube:v3.videos.list", ids, defaultVideoParts, opts)
}

// Channels fetches metadata for a set of channel ids, chunked the same
// way Videos is.
func (s *Service) Channels(ctx context.Context, ids []string, opts ...ListOption) ([]map[string]any, error) {
	return s.listByID(ctx, "youtube:v3.channels.list", ids, defaultChannelParts, opts)
}

func (s *Service) listByID(ctx context.Context, ref string, ids []string, defaultParts []string, opts []ListOption) ([]map[string]any, error) {
	cfg := listConfig{parts: defaultParts}
	for _, opt := range opts {
		opt(&cfg)
	}

	unique := dedupe(ids)
	byID := make(map[string]map[string]any, len(unique))
	for start := 0; start < len(unique); start += idChunkSize {
		end := start + idChunkSize
		if end > len(unique) {
			end = len(unique)
		}
		resp, err := s.client.Call(ctx, ref, gapi.Args{
			"part":       strings.Join(cfg.parts, ","),
			"id":         strings.Join(unique[start:end], ","),
			"maxResults": idChunkSize,
		})
		if err != nil {
			return nil, err
		}
		items, _ := resp.Body["items"].([]any)
		for _, raw := range items {
			item, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if id, ok := item["id"].(string); ok {
				byID[id] = item
			}
		}
	}

	out := make([]map[string]any, 0, len(byID))
	for _, id := range unique {
		if item, ok := byID[id]; ok {
			out = append(out, item)
		}
	}
	return out, nil
}

// PlaylistItems returns an iterator over the items of a playlist, newest
// first as the provider orders them.
func (s *Service) PlaylistItems(ctx context.Context, playlistID string, opts ...ListOption) (*gapi.PageIterator, error) {
	cfg := listConfig{parts: defaultPlaylistParts}
	for _, opt := range opts {
		opt(&cfg)
	}
	return s.client.Walk("youtube:v3.playlistItems.list", gapi.Args{
		"playlistId": playlistID,
		"part":       strings.Join(cfg.parts, ","),
	}, gapi.WithPageSize(idChunkSize))
}

// VideosBefore walks a playlist (typically a channel's uploads playlist)
// and returns up to k items published strictly before the cutoff, newest
// first. The walk stops as soon as k qualifying items are buffered, so
// deep playlists are not fetched past the cutoff window.
func (s *Service) VideosBefore(ctx context.Context, playlistID string, cutoff time.Time, k int) ([]map[string]any, error) {
	it, err := s.PlaylistItems(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	var qualifying []map[string]any
	for len(qualifying) < k {
		raw, err := it.Next(ctx)
		if err == gapi.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		published, ok := publishedAt(item)
		if !ok {
			continue
		}
		if published.Before(cutoff) {
			qualifying = append(qualifying, item)
		}
	}

	sort.SliceStable(qualifying, func(i, j int) bool {
		a, _ := publishedAt(qualifying[i])
		b, _ := publishedAt(qualifying[j])
		return a.After(b)
	})
	if len(qualifying) > k {
		qualifying = qualifying[:k]
	}
	return qualifying, nil
}

func publishedAt(item map[string]any) (time.Time, bool) {
	details, _ := item["contentDetails"].(map[string]any)
	raw, _ := details["videoPublishedAt"].(string)
	if raw == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// dedupe drops empty and repeated ids, keeping first-appearance order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
