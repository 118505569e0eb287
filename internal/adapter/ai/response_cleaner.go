// Package ai adapts the external generative judge: prompt construction,
// defensive response cleaning, and coercion of loosely-typed judge output
// into a sanitized AIJudgment.
package ai

import (
	"encoding/json"
	"regexp"
	"strings"
)

// ResponseCleaner sanitizes raw judge responses before JSON decoding.
// Judges routinely wrap JSON in markdown fences or surround it with prose.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

var trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)

// Clean strips markdown fences, extracts the first balanced JSON object from
// mixed content, and repairs trailing commas. The result is not guaranteed
// to be valid JSON; use CleanAndValidate for a hard guarantee.
func (rc *ResponseCleaner) Clean(response string) string {
	response = rc.stripMarkdownFences(response)
	response = rc.extractBalancedObject(response)
	if !rc.IsValidJSON(response) {
		response = trailingCommaRe.ReplaceAllString(response, "$1")
	}
	return response
}

// CleanAndValidate cleans the response and fails with a JSONValidationError
// when the result still does not parse.
func (rc *ResponseCleaner) CleanAndValidate(response string) (string, error) {
	cleaned := rc.Clean(response)
	if !rc.IsValidJSON(cleaned) {
		return "", &JSONValidationError{
			Original: response,
			Cleaned:  cleaned,
			Message:  "cleaned response is still not valid JSON",
		}
	}
	return cleaned, nil
}

// IsValidJSON reports whether a string parses as JSON.
func (rc *ResponseCleaner) IsValidJSON(response string) bool {
	var v interface{}
	return json.Unmarshal([]byte(response), &v) == nil
}

func (rc *ResponseCleaner) stripMarkdownFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractBalancedObject returns the first balanced {...} block, leaving the
// input untouched when no such block exists.
func (rc *ResponseCleaner) extractBalancedObject(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}
	depth := 0
	for i := start; i < len(response); i++ {
		switch response[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return response[start : i+1]
			}
		}
	}
	return response
}

// JSONValidationError reports a judge response that could not be coerced
// into valid JSON.
type JSONValidationError struct {
	Original string
	Cleaned  string
	Message  string
}

func (e *JSONValidationError) Error() string {
	return e.Message
}
