// Package logging provides utilities for secure logging with data masking.
package logging

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SensitiveFields are the JSON fields MicroTales request and response bodies
// use for credentials. Passwords are fully redacted; the rest keep their last
// four characters so a log line can still be matched to a support request.
var SensitiveFields = []string{"password", "secret", "token", "claim_token"}

// MaskHeader redacts sensitive header values based on header name.
// Returns the redacted value suitable for logging.
//
// Rules:
// - Cookie/password/secret headers: "[REDACTED]" (no partial reveal)
// - Authorization: "****" + last4chars (e.g., "****ab3f")
// - Other headers: returned unchanged
func MaskHeader(name, value string) string {
	lowerName := strings.ToLower(name)

	if lowerName == "cookie" ||
		lowerName == "set-cookie" ||
		strings.Contains(lowerName, "password") ||
		strings.Contains(lowerName, "secret") {
		return "[REDACTED]"
	}

	if lowerName == "authorization" {
		return MaskToken(value)
	}

	return value
}

// MaskToken keeps only the last four characters of a credential.
func MaskToken(value string) string {
	r := []rune(value)
	if len(r) < 4 {
		return "****"
	}
	return "****" + string(r[len(r)-4:])
}

// MaskPath masks the credential in token-bearing URL paths such as
// /api/guest/edit/{token}. Other paths are returned unchanged.
func MaskPath(path string) string {
	const marker = "/edit/"
	i := strings.Index(path, marker)
	if i < 0 {
		return path
	}
	rest := path[i+len(marker):]
	if rest == "" {
		return path
	}
	tail := ""
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		rest, tail = rest[:j], rest[j:]
	}
	return path[:i+len(marker)] + MaskToken(rest) + tail
}

// MaskJSONBody masks the named fields wherever they appear in a JSON body.
// Fields named "password" are fully redacted, other named string fields keep
// their last four characters.
//
// If fields is empty, returns the body unchanged.
// Returns the original body if it is not valid JSON.
func MaskJSONBody(body []byte, fields []string) []byte {
	if len(fields) == 0 || len(body) == 0 {
		return body
	}

	var data interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return body
	}

	sensitive := make(map[string]bool, len(fields))
	for _, field := range fields {
		sensitive[field] = true
	}

	result, err := json.Marshal(maskJSONValue(data, sensitive))
	if err != nil {
		return body
	}
	return result
}

// maskJSONValue recursively masks sensitive fields.
func maskJSONValue(value interface{}, sensitive map[string]bool) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			if !sensitive[key] {
				result[key] = maskJSONValue(val, sensitive)
				continue
			}
			s, ok := val.(string)
			switch {
			case !ok:
				result[key] = maskJSONValue(val, sensitive)
			case key == "password":
				result[key] = "[REDACTED]"
			default:
				result[key] = MaskToken(s)
			}
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = maskJSONValue(item, sensitive)
		}
		return result
	default:
		return value
	}
}

// FormatBinaryData formats binary data for logging.
// Returns a human-readable size indicator.
func FormatBinaryData(data []byte) string {
	return fmt.Sprintf("[BINARY: %d bytes]", len(data))
}
