// Package gemini implements [analyst.Completer] for the Google Gemini API.
//
// It wraps the google.golang.org/genai SDK. Requests are single-turn
// GenerateContent calls; the JSON response hint maps to the
// application/json response MIME type.
package gemini

const (
	defaultModel     = "gemini-2.5-flash"
	defaultMaxTokens = 1024
	jsonMIMEType     = "application/json"
)
