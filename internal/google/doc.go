// Package google builds authenticated HTTP clients for the Google Calendar and
// Gmail APIs.
//
// Credentials come either from a service account key (optionally impersonating a
// Workspace user through domain-wide delegation) or from an OAuth client secret
// combined with a stored user token. When neither is configured the
// application default credentials are used.
package google
