// Package config loads execassist settings from defaults, an optional YAML
// file, .env files, the environment and command-line flags, in increasing
// order of precedence.
//
// Environment variables use the EXECASSIST_ prefix with dots replaced by
// underscores, for example EXECASSIST_SERVER_ADDR. The names used by earlier
// deployments (GEMINI_API_KEY, GOOGLE_CREDENTIALS_JSON, FROM_EMAIL) are
// accepted as well.
package config
