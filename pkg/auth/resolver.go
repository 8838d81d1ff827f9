package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/oauth2"
)

const defaultTokenURI = "https://oauth2.googleapis.com/token"

// DefaultScopes are requested for service accounts when the caller does
// not name its own: full Drive (which also covers Sheets) and YouTube.
func DefaultScopes() []string {
	return []string{
		"https://www.googleapis.com/auth/drive",
		"https://www.googleapis.com/auth/youtube",
	}
}

// expirySafetyFactor shaves a margin off the provider's expires_in so a
// token is refreshed before the provider would start rejecting it.
const expirySafetyFactor = 0.97

// Resolver turns a Credential into a Capability. Resolution performs
// exactly the token exchange the credential kind requires and caches the
// result for the Capability's lifetime.
type Resolver struct {
	client *http.Client
	logger hclog.Logger
	scopes []string
	now    func() time.Time
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithHTTPClient sets the client used for token exchanges.
func WithHTTPClient(c *http.Client) ResolverOption {
	return func(r *Resolver) { r.client = c }
}

// WithLogger sets the resolver's logger.
func WithLogger(l hclog.Logger) ResolverOption {
	return func(r *Resolver) { r.logger = l }
}

// WithScopes overrides the scopes requested for service accounts.
func WithScopes(scopes []string) ResolverOption {
	return func(r *Resolver) { r.scopes = scopes }
}

// NewResolver builds a resolver with sensible defaults.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		client: &http.Client{Timeout: 30 * time.Second},
		logger: hclog.NewNullLogger(),
		scopes: DefaultScopes(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve exchanges the credential for a Capability. API keys resolve
// without any network call; service accounts and OAuth tokens perform one
// token exchange and fail with an AuthError when the exchange is rejected
// or the granted scopes unlock no API family.
func (r *Resolver) Resolve(ctx context.Context, cred Credential) (*Capability, error) {
	switch cred.Kind() {
	case KindAPIKey:
		// An API key can reach the public, read-only surface of all
		// three families; mutation gating happens in Capability.Allows.
		return &Capability{
			kind:   KindAPIKey,
			apiKey: cred.apiKey,
			families: map[Family]bool{
				FamilyDrive:   true,
				FamilySheets:  true,
				FamilyYouTube: true,
			},
		}, nil

	case KindServiceAccount:
		key := *cred.serviceAccount
		scopes := r.scopes
		exchange := func(ctx context.Context) (*oauth2.Token, []string, error) {
			return r.exchangeServiceAccount(ctx, key, scopes)
		}
		return r.resolveTokenBacked(ctx, KindServiceAccount, scopes, exchange)

	case KindOAuthToken:
		tok := *cred.oauthToken
		exchange := func(ctx context.Context) (*oauth2.Token, []string, error) {
			return r.exchangeRefreshToken(ctx, tok)
		}
		return r.resolveTokenBacked(ctx, KindOAuthToken, nil, exchange)

	default:
		return nil, &AuthError{Reason: fmt.Sprintf("unrecognized credential kind %v", cred.Kind())}
	}
}

func (r *Resolver) resolveTokenBacked(
	ctx context.Context,
	kind Kind,
	requestedScopes []string,
	exchange func(ctx context.Context) (*oauth2.Token, []string, error),
) (*Capability, error) {
	token, grantedScopes, err := exchange(ctx)
	if err != nil {
		return nil, err
	}

	scopes := grantedScopes
	if len(scopes) == 0 {
		scopes = requestedScopes
	}
	families := familiesForScopes(scopes)
	if len(families) == 0 {
		return nil, &AuthError{
			Reason: fmt.Sprintf("granted scopes unlock no supported API family: %v", scopes),
		}
	}

	r.logger.Debug("resolved credential", "kind", kind.String(), "families", len(families))
	return &Capability{
		kind:     kind,
		families: families,
		scopes:   scopes,
		token:    token,
		exchange: exchange,
	}, nil
}

// exchangeServiceAccount signs a JWT assertion with the account's private
// key and trades it for an access token.
func (r *Resolver) exchangeServiceAccount(ctx context.Context, key ServiceAccountKey, scopes []string) (*oauth2.Token, []string, error) {
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(key.PrivateKey))
	if err != nil {
		return nil, nil, &AuthError{Reason: "failed to parse service account private key", Err: err}
	}

	tokenURI := key.TokenURI
	if tokenURI == "" {
		tokenURI = defaultTokenURI
	}

	now := r.now()
	claims := jwt.MapClaims{
		"iss":   key.ClientEmail,
		"scope": strings.Join(scopes, " "),
		"aud":   tokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if key.PrivateKeyID != "" {
		tok.Header["kid"] = key.PrivateKeyID
	}
	assertion, err := tok.SignedString(privateKey)
	if err != nil {
		return nil, nil, &AuthError{Reason: "failed to sign service account assertion", Err: err}
	}

	form := url.Values{
		"grant_type": {"urn:ietf:params:oauth:grant-type:jwt-bearer"},
		"assertion":  {assertion},
	}
	return r.postTokenForm(ctx, tokenURI, form)
}

// exchangeRefreshToken performs the OAuth refresh-token grant.
func (r *Resolver) exchangeRefreshToken(ctx context.Context, tok OAuthClientToken) (*oauth2.Token, []string, error) {
	tokenURI := tok.TokenURI
	if tokenURI == "" {
		tokenURI = defaultTokenURI
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {tok.ClientID},
		"client_secret": {tok.ClientSecret},
		"refresh_token": {tok.RefreshToken},
	}
	return r.postTokenForm(ctx, tokenURI, form)
}

func (r *Resolver) postTokenForm(ctx context.Context, tokenURI string, form url.Values) (*oauth2.Token, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, &AuthError{Reason: "failed to build token request", Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, nil, &AuthError{Reason: "token exchange failed", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, &AuthError{Reason: "failed to read token response", Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, nil, &AuthError{
			Reason: fmt.Sprintf("token endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))),
		}
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
		Scope       string `json:"scope"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, nil, &AuthError{Reason: "failed to decode token response", Err: err}
	}
	if payload.AccessToken == "" {
		return nil, nil, &AuthError{Reason: "token response carries no access_token"}
	}

	expiry := r.now().Add(time.Duration(float64(payload.ExpiresIn) * expirySafetyFactor * float64(time.Second)))
	token := &oauth2.Token{
		AccessToken: payload.AccessToken,
		TokenType:   payload.TokenType,
		Expiry:      expiry,
	}

	var scopes []string
	if payload.Scope != "" {
		scopes = strings.Fields(payload.Scope)
	}
	return token, scopes, nil
}
