package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func generateTestKey(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})
	return key, string(pemBytes)
}

func TestResolveServiceAccount(t *testing.T) {
	key, pemKey := generateTestKey(t)

	var gotAssertion string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "urn:ietf:params:oauth:grant-type:jwt-bearer", r.Form.Get("grant_type"))
		gotAssertion = r.Form.Get("assertion")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "sa-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "https://www.googleapis.com/auth/drive",
		})
	}))
	defer server.Close()

	cred, err := ServiceAccountCredential(ServiceAccountKey{
		ClientEmail:  "robot@project.iam.gserviceaccount.com",
		PrivateKey:   pemKey,
		PrivateKeyID: "kid-1",
		TokenURI:     server.URL,
	})
	require.NoError(t, err)

	resolver := NewResolver(WithHTTPClient(server.Client()))
	capability, err := resolver.Resolve(context.Background(), cred)
	require.NoError(t, err)

	// The assertion verifies against the account's own key and carries
	// the expected claims.
	parsed, err := jwt.Parse(gotAssertion, func(*jwt.Token) (any, error) {
		return &key.PublicKey, nil
	}, jwt.WithValidMethods([]string{"RS256"}))
	require.NoError(t, err)
	claims := parsed.Claims.(jwt.MapClaims)
	assert.Equal(t, "robot@project.iam.gserviceaccount.com", claims["iss"])
	assert.Equal(t, server.URL, claims["aud"])
	assert.Contains(t, claims["scope"], "auth/drive")
	assert.Equal(t, "kid-1", parsed.Header["kid"])

	// Granted scopes drive the families: drive also unlocks sheets.
	assert.Equal(t, []Family{FamilyDrive, FamilySheets}, capability.Families())
	assert.Equal(t, KindServiceAccount, capability.Kind())

	h, err := capability.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer sa-token", h.Get("Authorization"))
}

func TestResolveOAuthToken(t *testing.T) {
	exchanges := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		exchanges++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		assert.Equal(t, "client-id", r.Form.Get("client_id"))
		assert.Equal(t, "client-secret", r.Form.Get("client_secret"))
		assert.Equal(t, "1//refresh", r.Form.Get("refresh_token"))
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "refreshed-token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "https://www.googleapis.com/auth/youtube",
		})
	}))
	defer server.Close()

	cred, err := OAuthTokenCredential(OAuthClientToken{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "1//refresh",
		TokenURI:     server.URL,
	})
	require.NoError(t, err)

	capability, err := NewResolver(WithHTTPClient(server.Client())).
		Resolve(context.Background(), cred)
	require.NoError(t, err)
	assert.Equal(t, 1, exchanges)
	assert.Equal(t, []Family{FamilyYouTube}, capability.Families())

	// A valid token is reused between calls without a new exchange.
	_, err = capability.Headers(context.Background())
	require.NoError(t, err)
	_, err = capability.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, exchanges)
}

func TestResolveRefreshesExpiredToken(t *testing.T) {
	issued := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		issued++
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token",
			"token_type":   "Bearer",
			// Zero expiry means the token is already stale on arrival.
			"expires_in": 0,
			"scope":      "https://www.googleapis.com/auth/drive",
		})
	}))
	defer server.Close()

	cred, err := OAuthTokenCredential(OAuthClientToken{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "1//refresh",
		TokenURI:     server.URL,
	})
	require.NoError(t, err)

	capability, err := NewResolver(WithHTTPClient(server.Client())).
		Resolve(context.Background(), cred)
	require.NoError(t, err)
	require.Equal(t, 1, issued)

	// The stale token forces a re-exchange on each use.
	_, err = capability.Headers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, issued)
}

func TestResolveExpiryUsesSafetyFactor(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token",
			"token_type":   "Bearer",
			"expires_in":   1000,
		})
	}))
	defer server.Close()

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	resolver := NewResolver(WithHTTPClient(server.Client()))
	resolver.now = func() time.Time { return fixed }

	token, _, err := resolver.postTokenForm(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, fixed.Add(970*time.Second), token.Expiry)
}

func TestResolveTokenEndpointRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error": "invalid_grant"}`, http.StatusBadRequest)
	}))
	defer server.Close()

	cred, err := OAuthTokenCredential(OAuthClientToken{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "1//expired",
		TokenURI:     server.URL,
	})
	require.NoError(t, err)

	_, err = NewResolver(WithHTTPClient(server.Client())).
		Resolve(context.Background(), cred)
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Error(), "400")
}

func TestResolveRejectsUselessGrantedScopes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token",
			"token_type":   "Bearer",
			"expires_in":   3600,
			"scope":        "https://www.googleapis.com/auth/calendar",
		})
	}))
	defer server.Close()

	cred, err := OAuthTokenCredential(OAuthClientToken{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RefreshToken: "1//refresh",
		TokenURI:     server.URL,
	})
	require.NoError(t, err)

	_, err = NewResolver(WithHTTPClient(server.Client())).
		Resolve(context.Background(), cred)
	var aerr *AuthError
	require.ErrorAs(t, err, &aerr)
	assert.Contains(t, aerr.Error(), "no supported API family")
}
