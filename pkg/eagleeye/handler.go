package eagleeye

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

// ResponseHandler consumes a successful response. The caller closes the body.
type ResponseHandler func(resp *http.Response) error

// DecodeJSON decodes the body into target. A nil target discards the body.
func DecodeJSON(target any) ResponseHandler {
	return func(resp *http.Response) error {
		if target == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return carsonerr.Wrap(carsonerr.KindCommunication, err,
				"unable to decode response for %s", describe(resp))
		}
		return nil
	}
}

// StreamTo copies the raw body into w.
func StreamTo(w io.Writer) ResponseHandler {
	return func(resp *http.Response) error {
		if _, err := io.Copy(w, resp.Body); err != nil {
			return fmt.Errorf("stream %s: %w", describe(resp), err)
		}
		return nil
	}
}

// describe names the request behind resp for error messages. A Doer may
// return responses without the originating request.
func describe(resp *http.Response) string {
	if resp.Request == nil || resp.Request.URL == nil {
		return "response"
	}
	return resp.Request.Method + " " + resp.Request.URL.Path
}
