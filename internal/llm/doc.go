// Package llm wraps the language model used for extraction, classification
// and text generation.
//
// Callers depend on the Completer interface. Gemini implements it through
// google.golang.org/genai; Limited throttles any Completer with a token
// bucket so bursts of inbox processing stay inside the API quota.
package llm
