package repository

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSONObject pulls a JSON object out of an AI response that may wrap
// it in markdown fences or surrounding prose. It returns the largest
// brace-delimited substring.
func ExtractJSONObject(raw string) (string, error) {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```json"); idx >= 0 {
		s = s[idx+len("```json"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	} else if idx := strings.Index(s, "```"); idx >= 0 {
		s = s[idx+len("```"):]
		if end := strings.Index(s, "```"); end >= 0 {
			s = s[:end]
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object found in response")
	}
	return s[start : end+1], nil
}

// UnmarshalAIResponse extracts and decodes the JSON object in raw into
// result.
func UnmarshalAIResponse(raw string, result interface{}) error {
	jsonStr, err := ExtractJSONObject(raw)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(jsonStr), result); err != nil {
		return fmt.Errorf("failed to unmarshal AI response: %w", err)
	}
	return nil
}
