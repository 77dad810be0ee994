package ai

import (
	"fmt"
	"regexp"
)

var (
	objectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	arrayPattern  = regexp.MustCompile(`(?s)\[.*\]`)
)

// extractObject pulls the outermost JSON object out of model text, which
// often arrives wrapped in prose or code fences.
func extractObject(text string) ([]byte, error) {
	match := objectPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON object in response", ErrMalformedPayload)
	}
	return []byte(match), nil
}

func extractArray(text string) ([]byte, error) {
	match := arrayPattern.FindString(text)
	if match == "" {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrMalformedPayload)
	}
	return []byte(match), nil
}
