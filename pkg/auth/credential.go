package auth

import (
	"encoding/json"
	"fmt"
	"os"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mitchellh/mapstructure"
)

// Kind tags the credential union.
type Kind int

const (
	// KindAPIKey is a developer/API key: public, read-only access.
	KindAPIKey Kind = iota
	// KindServiceAccount is a service account key (client_email plus an
	// RSA private key), exchanged for a token via a signed JWT assertion.
	KindServiceAccount
	// KindOAuthToken is a pre-issued OAuth client token (client id/secret
	// plus refresh token), exchanged via the refresh-token grant.
	KindOAuthToken
)

// String returns the credential kind name.
func (k Kind) String() string {
	switch k {
	case KindAPIKey:
		return "api_key"
	case KindServiceAccount:
		return "service_account"
	case KindOAuthToken:
		return "oauth_token"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ServiceAccountKey is the material of a service_account.json file.
type ServiceAccountKey struct {
	ClientEmail  string `mapstructure:"client_email" json:"client_email"`
	PrivateKey   string `mapstructure:"private_key" json:"private_key"`
	PrivateKeyID string `mapstructure:"private_key_id" json:"private_key_id"`
	TokenURI     string `mapstructure:"token_uri" json:"token_uri"`
}

// Validate checks the key material is complete enough to sign an assertion.
func (k ServiceAccountKey) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.ClientEmail, validation.Required, is.Email),
		validation.Field(&k.PrivateKey, validation.Required),
		validation.Field(&k.TokenURI, is.URL),
	)
}

// OAuthClientToken is the material of a client_token.json file: an OAuth
// client with a previously issued refresh token.
type OAuthClientToken struct {
	ClientID     string `mapstructure:"client_id" json:"client_id"`
	ClientSecret string `mapstructure:"client_secret" json:"client_secret"`
	RefreshToken string `mapstructure:"refresh_token" json:"refresh_token"`
	TokenURI     string `mapstructure:"token_uri" json:"token_uri"`
}

// Validate checks the token material is complete enough to refresh.
func (t OAuthClientToken) Validate() error {
	return validation.ValidateStruct(&t,
		validation.Field(&t.ClientID, validation.Required),
		validation.Field(&t.ClientSecret, validation.Required),
		validation.Field(&t.RefreshToken, validation.Required),
		validation.Field(&t.TokenURI, is.URL),
	)
}

// Credential is the tagged union of the three supported credential shapes.
// It is immutable once constructed and carries no network state; resolving
// it into a Capability is the Resolver's job.
type Credential struct {
	kind           Kind
	apiKey         string
	serviceAccount *ServiceAccountKey
	oauthToken     *OAuthClientToken
}

// Kind returns the union tag.
func (c Credential) Kind() Kind { return c.kind }

// APIKeyCredential wraps a developer key.
func APIKeyCredential(key string) Credential {
	return Credential{kind: KindAPIKey, apiKey: key}
}

// ServiceAccountCredential wraps validated service account key material.
func ServiceAccountCredential(key ServiceAccountKey) (Credential, error) {
	if err := key.Validate(); err != nil {
		return Credential{}, &AuthError{Reason: "malformed service account key", Err: err}
	}
	return Credential{kind: KindServiceAccount, serviceAccount: &key}, nil
}

// OAuthTokenCredential wraps validated OAuth client token material.
func OAuthTokenCredential(tok OAuthClientToken) (Credential, error) {
	if err := tok.Validate(); err != nil {
		return Credential{}, &AuthError{Reason: "malformed oauth client token", Err: err}
	}
	return Credential{kind: KindOAuthToken, oauthToken: &tok}, nil
}

// ParseCredential detects the credential shape from an opaque value:
//
//   - a string naming an existing file: the file's JSON content is parsed
//   - any other string: an API key
//   - a map or JSON bytes: "client_email" marks a service account,
//     "refresh_token" marks an OAuth client token
//
// Anything else fails with an AuthError.
func ParseCredential(secret any) (Credential, error) {
	switch v := secret.(type) {
	case Credential:
		return v, nil
	case string:
		if info, err := os.Stat(v); err == nil && !info.IsDir() {
			data, err := os.ReadFile(v)
			if err != nil {
				return Credential{}, &AuthError{Reason: "failed to read credential file", Err: err}
			}
			return ParseCredential(data)
		}
		if v == "" {
			return Credential{}, &AuthError{Reason: "empty credential"}
		}
		return APIKeyCredential(v), nil
	case []byte:
		var m map[string]any
		if err := json.Unmarshal(v, &m); err != nil {
			return Credential{}, &AuthError{Reason: "credential is neither a key string nor JSON", Err: err}
		}
		return ParseCredential(m)
	case map[string]any:
		return credentialFromMap(v)
	default:
		return Credential{}, &AuthError{Reason: fmt.Sprintf("unsupported credential type %T", secret)}
	}
}

func credentialFromMap(m map[string]any) (Credential, error) {
	if _, ok := m["client_email"]; ok {
		var key ServiceAccountKey
		if err := mapstructure.Decode(m, &key); err != nil {
			return Credential{}, &AuthError{Reason: "malformed service account key", Err: err}
		}
		return ServiceAccountCredential(key)
	}
	if _, ok := m["refresh_token"]; ok {
		var tok OAuthClientToken
		if err := mapstructure.Decode(m, &tok); err != nil {
			return Credential{}, &AuthError{Reason: "malformed oauth client token", Err: err}
		}
		return OAuthTokenCredential(tok)
	}
	return Credential{}, &AuthError{Reason: "credential JSON matches no known shape (no client_email or refresh_token)"}
}
