// Package triage sorts the executive's inbox.
//
// Classifier asks the language model what kind of email a message is and how
// urgent it is. Processor walks unread mail, hands meeting requests to the
// scheduling pipeline, raises alerts for high priority mail, answers what can
// be answered automatically and marks each handled message read.
package triage
