package eagleeye

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

// CameraPayload is the state of a camera. The device list fills the
// identity fields; the device detail endpoint adds settings, parameters
// and info.
type CameraPayload struct {
	ID          string          `json:"id"`
	AccountID   string          `json:"account_id"`
	Name        string          `json:"name"`
	Bridges     json.RawMessage `json:"bridges,omitempty"`
	Permissions string          `json:"permissions"`
	Tags        []string        `json:"tags"`
	GUID        string          `json:"guid"`
	Timezone    string          `json:"timezone"`
	UTCOffset   int             `json:"utcOffset"`

	Settings                   json.RawMessage `json:"settings,omitempty"`
	CameraParametersStatusCode int             `json:"camera_parameters_status_code,omitempty"`
	CameraParameters           json.RawMessage `json:"camera_parameters,omitempty"`
	CameraInfoStatusCode       int             `json:"camera_info_status_code,omitempty"`
	CameraInfo                 json.RawMessage `json:"camera_info,omitempty"`
}

func (p *CameraPayload) validate() error {
	if p.ID == "" {
		return carsonerr.Communication("eagle eye camera payload has no id")
	}
	return nil
}

// Positions within a device list row.
const (
	colAccountID   = 0
	colID          = 1
	colName        = 2
	colKind        = 3
	colBridges     = 4
	colPermissions = 6
	colTags        = 7
	colGUID        = 8
	colTimezone    = 11
	colUTCOffset   = 12

	deviceRowMinLen = colUTCOffset + 1
)

// ListCameras fetches the device list and returns every camera keyed by its
// Eagle Eye id. Other device kinds (bridges) are skipped.
func (s *Session) ListCameras(ctx context.Context) (map[string]CameraPayload, error) {
	var rows [][]json.RawMessage
	err := s.Query(ctx, Request{Method: http.MethodGet, Path: EndpointDeviceList}, DecodeJSON(&rows))
	if err != nil {
		return nil, err
	}

	cameras := make(map[string]CameraPayload, len(rows))
	for i, row := range rows {
		if len(row) < deviceRowMinLen {
			return nil, carsonerr.Communication(
				"device list row %d has %d columns, expected at least %d", i, len(row), deviceRowMinLen)
		}

		var kind string
		if err := json.Unmarshal(row[colKind], &kind); err != nil {
			return nil, carsonerr.Wrap(carsonerr.KindCommunication, err, "device list row %d: kind", i)
		}
		if kind != deviceKindCamera {
			continue
		}

		p, err := cameraFromRow(row)
		if err != nil {
			return nil, carsonerr.Wrap(carsonerr.KindCommunication, err, "device list row %d", i)
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		cameras[p.ID] = p
	}

	return cameras, nil
}

func cameraFromRow(row []json.RawMessage) (CameraPayload, error) {
	var p CameraPayload

	fields := []struct {
		col    int
		target any
	}{
		{colAccountID, &p.AccountID},
		{colID, &p.ID},
		{colName, &p.Name},
		{colPermissions, &p.Permissions},
		{colTags, &p.Tags},
		{colGUID, &p.GUID},
		{colTimezone, &p.Timezone},
		{colUTCOffset, &p.UTCOffset},
	}
	for _, f := range fields {
		if err := json.Unmarshal(row[f.col], f.target); err != nil {
			return CameraPayload{}, err
		}
	}

	if string(row[colBridges]) != "null" {
		p.Bridges = append(json.RawMessage(nil), row[colBridges]...)
	}

	return p, nil
}

// CameraDetail fetches the full detail of one camera.
func (s *Session) CameraDetail(ctx context.Context, id string) (*CameraPayload, error) {
	var p CameraPayload
	req := Request{
		Method: http.MethodGet,
		Path:   EndpointDevice,
		Query:  map[string][]string{"id": {id}},
	}
	if err := s.Query(ctx, req, DecodeJSON(&p)); err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
