package remote

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/DoyleJ11/moonlit-client/pkg/types"
)

// Error is a non-2xx answer from the game service.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("service returned %d: %s", e.StatusCode, e.Message)
}

// parseError extracts a readable message: the structured detail first, then
// the status text, then a generic fallback.
func parseError(status int, body []byte) *Error {
	msg := detailMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &Error{StatusCode: status, Message: msg}
}

func detailMessage(body []byte) string {
	var eb types.ErrorBody
	if len(body) == 0 || json.Unmarshal(body, &eb) != nil {
		return ""
	}
	switch d := eb.Detail.(type) {
	case string:
		return strings.TrimSpace(d)
	case []any:
		// validation errors: [{"loc": [...], "msg": "...", "type": "..."}]
		var parts []string
		for _, item := range d {
			switch it := item.(type) {
			case map[string]any:
				if m, ok := it["msg"].(string); ok && m != "" {
					parts = append(parts, m)
				}
			case string:
				parts = append(parts, it)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}

// Rejected exposes the status and message to error classifiers.
func (e *Error) Rejected() (int, string) { return e.StatusCode, e.Message }
