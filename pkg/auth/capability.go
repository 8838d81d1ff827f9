package auth

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/oauth2"
)

// Family identifies one of the remote API families a capability may unlock.
type Family string

const (
	// FamilyDrive is the document store (Google Drive).
	FamilyDrive Family = "drive"
	// FamilySheets is the spreadsheet engine (Google Sheets).
	FamilySheets Family = "sheets"
	// FamilyYouTube is the media catalog (YouTube Data API).
	FamilyYouTube Family = "youtube"
)

// FamilyForService maps a Discovery service name to its family. The
// service names and family names coincide for the supported APIs.
func FamilyForService(service string) (Family, bool) {
	switch service {
	case "drive":
		return FamilyDrive, true
	case "sheets":
		return FamilySheets, true
	case "youtube":
		return FamilyYouTube, true
	default:
		return "", false
	}
}

// familiesForScopes derives the unlocked families from granted OAuth
// scopes. The broad drive scope also satisfies the Sheets API, which
// accepts it on every method.
func familiesForScopes(scopes []string) map[Family]bool {
	families := make(map[Family]bool)
	for _, scope := range scopes {
		switch {
		case strings.Contains(scope, "/auth/drive"):
			families[FamilyDrive] = true
			families[FamilySheets] = true
		case strings.Contains(scope, "/auth/spreadsheets"):
			families[FamilySheets] = true
		case strings.Contains(scope, "/auth/youtube"), strings.Contains(scope, "/auth/youtubepartner"):
			families[FamilyYouTube] = true
		}
	}
	return families
}

// Capability is the resolved, authenticated right to call a subset of the
// remote APIs. It owns the transport-level auth attached to every request
// and is shared read-only by all operations issued through it; the token
// refresh path is internally synchronized.
type Capability struct {
	kind     Kind
	families map[Family]bool
	scopes   []string

	apiKey string

	mu       sync.Mutex
	token    *oauth2.Token
	exchange func(ctx context.Context) (*oauth2.Token, []string, error)
}

// StaticTokenCapability wraps an already-minted bearer token, deriving
// the unlocked families from its scopes. No refresh is possible: when
// the token expires the capability expires with it.
func StaticTokenCapability(accessToken string, scopes []string) (*Capability, error) {
	families := familiesForScopes(scopes)
	if len(families) == 0 {
		return nil, &AuthError{Reason: "token scopes unlock no supported API family"}
	}
	return &Capability{
		kind:     KindOAuthToken,
		families: families,
		scopes:   scopes,
		token:    &oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"},
		exchange: func(context.Context) (*oauth2.Token, []string, error) {
			return nil, nil, &AuthError{Reason: "static token cannot be refreshed"}
		},
	}, nil
}

// Kind returns the credential kind this capability was resolved from.
func (c *Capability) Kind() Kind { return c.kind }

// Families returns the unlocked API families, sorted for stable output.
func (c *Capability) Families() []Family {
	out := make([]Family, 0, len(c.families))
	for f := range c.families {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Scopes returns the granted OAuth scopes; empty for API keys. A token
// refresh may rewrite the scope set, so the read is synchronized and the
// result is a copy.
func (c *Capability) Scopes() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.scopes...)
}

// ReadOnly reports whether the capability permits only non-mutating calls.
func (c *Capability) ReadOnly() bool { return c.kind == KindAPIKey }

// Allows checks that the capability unlocks the family and, when the
// operation mutates remote state, that mutation is permitted. It performs
// no I/O; callers gate on it before building any request.
func (c *Capability) Allows(family Family, op string, mutating bool) error {
	if !c.families[family] {
		return &CapabilityError{Family: family, Op: op, Reason: "credential grants no scope for this API family"}
	}
	if mutating && c.ReadOnly() {
		return &CapabilityError{Family: family, Op: op, Reason: "api_key credentials permit read-only operations"}
	}
	return nil
}

// Headers returns the auth headers for one request. For token-backed
// capabilities an expired token is re-exchanged here, between calls; a
// request carries a single token for all of its retry attempts.
func (c *Capability) Headers(ctx context.Context) (http.Header, error) {
	h := make(http.Header)
	if c.kind == KindAPIKey {
		h.Set("X-Goog-Api-Key", c.apiKey)
		return h, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.token.Valid() {
		tok, scopes, err := c.exchange(ctx)
		if err != nil {
			return nil, err
		}
		c.token = tok
		if len(scopes) > 0 {
			c.scopes = scopes
		}
	}
	h.Set("Authorization", c.token.Type()+" "+c.token.AccessToken)
	return h, nil
}
