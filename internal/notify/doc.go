// Package notify delivers outgoing email and urgent-mail alerts.
//
// Mailer implementations send through Gmail (the default, mail appears in the
// executive's Sent folder) or Amazon SES. Alerter publishes urgent inbox
// items to an SNS topic so they reach a phone or a chat integration.
package notify
