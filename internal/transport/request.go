package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/slink-ws/asciidoc2confluence/pkg/constants"
	"github.com/slink-ws/asciidoc2confluence/pkg/errors"
)

// maxErrorBody caps how much of an error response ends up in messages.
const maxErrorBody = 512

// DecodeResponse decodes a JSON response into the target structure. Any
// non-2xx status is returned as *errors.APIError. A nil target discards the body.
func DecodeResponse(resp *http.Response, target any) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		endpoint := ""
		if resp.Request != nil && resp.Request.URL != nil {
			endpoint = resp.Request.URL.String()
		}
		return &errors.APIError{
			Service:    constants.ServiceName,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(resp.StatusCode, body),
			Endpoint:   endpoint,
		}
	}

	if target == nil || len(body) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", "response", err)
	}

	return nil
}

func errorMessage(status int, body []byte) string {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}
