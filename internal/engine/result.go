package engine

import (
	"encoding/json"
	"errors"
	"strings"
)

const textMarker = `"text" : "`

var ErrNoText = errors.New("recognizer result has no text field")

// ExtractText returns the "text" field of a recognizer result payload. Vosk
// emits well-formed JSON, so the structured decode is authoritative; the
// marker scan only covers payloads that fail to decode.
func ExtractText(payload string) (string, error) {
	var result struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal([]byte(payload), &result); err == nil {
		if result.Text == nil {
			return "", ErrNoText
		}
		return *result.Text, nil
	}

	return scanText(payload)
}

func scanText(payload string) (string, error) {
	_, rest, ok := strings.Cut(payload, textMarker)
	if !ok {
		return "", ErrNoText
	}
	text, _, _ := strings.Cut(rest, `"`)
	return text, nil
}
