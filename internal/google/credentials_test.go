package google

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const clientSecret = `{"installed":{"client_id":"123.apps.googleusercontent.com","client_secret":"s3cret","auth_uri":"https://accounts.google.com/o/oauth2/auth","token_uri":"https://oauth2.googleapis.com/token","redirect_uris":["http://localhost"]}}`

func TestCredentialsType(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		want    string
		wantErr bool
	}{
		{"service account", `{"type":"service_account","client_email":"a@b"}`, credentialsServiceAccount, false},
		{"authorized user", `{"type":"authorized_user"}`, credentialsAuthorizedUser, false},
		{"client secret", clientSecret, "", false},
		{"garbage", `not json`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := credentialsType([]byte(tt.data))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTokenSource(t *testing.T) {
	ctx := context.Background()

	t.Run("service account", func(t *testing.T) {
		ts, err := TokenSource(ctx, Config{
			CredentialsJSON: `{"type":"service_account","client_email":"bot@project.iam.gserviceaccount.com","private_key":"key","token_uri":"https://oauth2.googleapis.com/token"}`,
			Subject:         "exec@example.com",
		})
		require.NoError(t, err)
		assert.NotNil(t, ts)
	})

	t.Run("client secret without token", func(t *testing.T) {
		_, err := TokenSource(ctx, Config{
			CredentialsJSON: clientSecret,
			TokenFile:       filepath.Join(t.TempDir(), "missing.token"),
		})
		assert.True(t, errors.Is(err, ErrNoToken))
	})

	t.Run("client secret with stored token", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "google.token")
		require.NoError(t, SaveToken(path, &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}))

		ts, err := TokenSource(ctx, Config{CredentialsJSON: clientSecret, TokenFile: path})
		require.NoError(t, err)
		tok, err := ts.Token()
		require.NoError(t, err)
		assert.Equal(t, "at", tok.AccessToken)
	})

	t.Run("credentials file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "credentials.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"type":"external_account"}`), 0o600))

		_, err := TokenSource(ctx, Config{CredentialsFile: path})
		assert.ErrorContains(t, err, "unsupported")
	})

	t.Run("missing credentials file", func(t *testing.T) {
		_, err := TokenSource(ctx, Config{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")})
		assert.ErrorContains(t, err, "failed to read credentials file")
	})
}

func TestTokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "google.token")

	_, err := LoadToken(path)
	assert.True(t, errors.Is(err, ErrNoToken))

	require.NoError(t, SaveToken(path, &oauth2.Token{RefreshToken: "rt"}))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	tok, err := LoadToken(path)
	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)

	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o600))
	_, err = LoadToken(path)
	assert.ErrorContains(t, err, "no access or refresh token")
}

func TestAuthURL(t *testing.T) {
	u, err := AuthURL([]byte(clientSecret), "state-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(u, "https://accounts.google.com/o/oauth2/auth?"))
	assert.Contains(t, u, "access_type=offline")
	assert.Contains(t, u, "state=state-1")

	_, err = AuthURL([]byte(`{}`), "x")
	assert.Error(t, err)
}

func TestDefaultTokenFile(t *testing.T) {
	assert.Equal(t, "google.token", filepath.Base(DefaultTokenFile()))
}
