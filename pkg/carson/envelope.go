package carson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

// Envelope keys. All four must be present in every response.
const (
	keyCode   = "code"
	keyStatus = "status"
	keyData   = "data"
	keyMsg    = "msg"
)

// ResponseHandler consumes a response. The caller closes the body.
type ResponseHandler func(resp *http.Response) error

// Envelope returns a handler that unwraps the response envelope and decodes
// its data into target. A nil target only checks the envelope.
func Envelope(target any) ResponseHandler {
	return func(resp *http.Response) error {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return carsonerr.Wrap(carsonerr.KindCommunication, err,
				"unable to read response for %s", describe(resp))
		}

		data, err := UnwrapEnvelope(body)
		if err != nil {
			var e *carsonerr.Error
			if errors.As(err, &e) {
				e.StatusCode = resp.StatusCode
				if e.Kind == carsonerr.KindCommunication {
					e.Message = fmt.Sprintf("%s for %s", e.Message, describe(resp))
				}
			}
			return err
		}

		if target == nil {
			return nil
		}
		if err := json.Unmarshal(data, target); err != nil {
			return carsonerr.Wrap(carsonerr.KindCommunication, err,
				"unexpected data in response for %s", describe(resp))
		}
		return nil
	}
}

// UnwrapEnvelope checks a {code, status, data, msg} envelope and returns the
// raw data. Extra keys are ignored. A body that is not a JSON object or lacks
// a key fails with carsonerr.ErrCommunication; a non-zero code fails with
// carsonerr.ErrAPI.
func UnwrapEnvelope(body []byte) (json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, carsonerr.Wrap(carsonerr.KindCommunication, err, "unable to handle response payload")
	}

	for _, k := range []string{keyCode, keyStatus, keyData, keyMsg} {
		if _, ok := fields[k]; !ok {
			return nil, carsonerr.Communication("response does not contain all expected keys, missing %q", k)
		}
	}

	var code int
	if err := json.Unmarshal(fields[keyCode], &code); err != nil {
		return nil, carsonerr.Wrap(carsonerr.KindCommunication, err, "response code is not a number")
	}

	if code != 0 {
		status := textField(fields[keyStatus], "<no status>")
		msg := textField(fields[keyMsg], "<no msg>")
		return nil, &carsonerr.Error{
			Kind:    carsonerr.KindAPI,
			Message: fmt.Sprintf("unsuccessful state, status: %s, message: %s", status, msg),
			Code:    code,
			Status:  status,
		}
	}

	return fields[keyData], nil
}

// textField renders an envelope field for error messages. Strings are
// unquoted; other JSON values are kept verbatim.
func textField(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func describe(resp *http.Response) string {
	if resp.Request == nil {
		return "response"
	}
	return resp.Request.Method + " " + resp.Request.URL.Path
}
