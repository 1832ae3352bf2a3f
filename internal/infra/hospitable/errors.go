package hospitable

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var ErrMissingToken = errors.New("hospitable: api token not configured")

// UpstreamError is a non-2xx answer from the provider. Body is kept verbatim so
// the HTTP layer can pass it through.
type UpstreamError struct {
	Op         string
	StatusCode int
	Body       []byte
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("hospitable: %s returned %d: %s", e.Op, e.StatusCode, e.Snippet())
}

// Snippet is the first part of the body, cut on a rune boundary. Logs only.
func (e *UpstreamError) Snippet() string {
	s := strings.TrimSpace(string(e.Body))
	if len(s) > 1024 {
		cut := 1024
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}
	return s
}

// JSONBody reports whether Body is valid JSON and can be re-emitted as is.
func (e *UpstreamError) JSONBody() bool {
	return len(e.Body) > 0 && json.Valid(e.Body)
}

// AsUpstream unwraps err into an UpstreamError if it carries one.
func AsUpstream(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}
