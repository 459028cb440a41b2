package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	credentialsServiceAccount = "service_account"
	credentialsAuthorizedUser = "authorized_user"
)

// ErrNoToken is returned when user credentials are configured but no token
// has been stored yet.
var ErrNoToken = errors.New("no Google OAuth token found")

// Config describes where Google credentials come from.
type Config struct {
	// CredentialsJSON holds a service account key or OAuth client secret.
	CredentialsJSON string
	// CredentialsFile is read when CredentialsJSON is empty.
	CredentialsFile string
	// Subject is the user a service account impersonates.
	Subject string
	// TokenFile stores the user token for OAuth client credentials.
	TokenFile string
}

// Credentials returns the configured key material, or nil when none is set.
func (c Config) Credentials() ([]byte, error) {
	if c.CredentialsJSON != "" {
		return []byte(c.CredentialsJSON), nil
	}
	if c.CredentialsFile == "" {
		return nil, nil
	}
	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}
	return data, nil
}

// credentialsType reports the "type" field of a key file. OAuth client
// secrets have no type and report "".
func credentialsType(data []byte) (string, error) {
	var f struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return "", fmt.Errorf("failed to parse Google credentials: %w", err)
	}
	return f.Type, nil
}

// TokenSource returns a token source for cfg.
func TokenSource(ctx context.Context, cfg Config) (oauth2.TokenSource, error) {
	data, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	if data == nil {
		ts, err := google.DefaultTokenSource(ctx, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to find default Google credentials: %w", err)
		}
		return ts, nil
	}

	typ, err := credentialsType(data)
	if err != nil {
		return nil, err
	}

	switch typ {
	case credentialsServiceAccount:
		jwt, err := google.JWTConfigFromJSON(data, Scopes...)
		if err != nil {
			return nil, fmt.Errorf("failed to parse service account key: %w", err)
		}
		jwt.Subject = cfg.Subject
		return jwt.TokenSource(ctx), nil
	case credentialsAuthorizedUser, "":
		conf, err := OAuthConfig(data)
		if err != nil {
			return nil, err
		}
		if cfg.TokenFile == "" {
			return nil, fmt.Errorf("%w: token file not configured", ErrNoToken)
		}
		tok, err := LoadToken(cfg.TokenFile)
		if err != nil {
			return nil, err
		}
		return conf.TokenSource(ctx, tok), nil
	default:
		return nil, fmt.Errorf("unsupported Google credentials type %q", typ)
	}
}

// OAuthConfig parses an OAuth client secret file.
func OAuthConfig(data []byte) (*oauth2.Config, error) {
	conf, err := google.ConfigFromJSON(data, Scopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OAuth client credentials: %w", err)
	}
	return conf, nil
}

// HTTPClient returns an authenticated HTTP client for cfg.
func HTTPClient(ctx context.Context, cfg Config) (*http.Client, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return oauth2.NewClient(ctx, ts), nil
}

// ClientOptions returns the options to pass to a Google API service
// constructor.
func ClientOptions(ctx context.Context, cfg Config) ([]option.ClientOption, error) {
	ts, err := TokenSource(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return []option.ClientOption{option.WithTokenSource(ts)}, nil
}
