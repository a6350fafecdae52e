package eagleeye_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const deviceListJSON = `[
  ["00001106", "100d4c41", "Main Gate", "camera", [["100f1bd6", "ATTD"]], "ATTD", "RWVA", ["gate"], "4e5e9f2a", null, null, "America/Chicago", -18000],
  ["00001106", "100f1bd6", "Bridge 1", "bridge", null, "ONLINE", "RW", [], "c0ffee01", null, null, "America/Chicago", -18000],
  ["00001106", "1007bb0a", "Lobby", "camera", [["100f1bd6", "ATTD"]], "ATTD", "R", [], "9a1c7b11", null, null, "America/Chicago", -18000]
]`

const cameraDetailJSON = `{
  "id": "100d4c41",
  "account_id": "00001106",
  "name": "Main Gate",
  "bridges": {"100f1bd6": "ATTD"},
  "permissions": "RWVA",
  "tags": ["gate"],
  "guid": "4e5e9f2a",
  "timezone": "America/Chicago",
  "utcOffset": -18000,
  "settings": {"motion": true},
  "camera_parameters_status_code": 200,
  "camera_parameters": {"active_settings": {}},
  "camera_info_status_code": 404,
  "camera_info": null
}`

func deviceAPI(t *testing.T, list string) *fakeEEN {
	return newFakeEEN(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case eagleeye.EndpointDeviceList:
			_, _ = w.Write([]byte(list))
		case eagleeye.EndpointDevice:
			if r.URL.Query().Get("id") != "100d4c41" {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write([]byte(cameraDetailJSON))
		default:
			http.NotFound(w, r)
		}
	})
}

func TestListCameras(t *testing.T) {
	t.Parallel()

	f := deviceAPI(t, deviceListJSON)
	s := newTestSession(f, validSource())

	cameras, err := s.ListCameras(context.Background())
	require.NoError(t, err)
	require.Len(t, cameras, 2)
	require.NotContains(t, cameras, "100f1bd6")

	gate := cameras["100d4c41"]
	assert.Equal(t, "100d4c41", gate.ID)
	assert.Equal(t, "00001106", gate.AccountID)
	assert.Equal(t, "Main Gate", gate.Name)
	assert.Equal(t, "RWVA", gate.Permissions)
	assert.Equal(t, []string{"gate"}, gate.Tags)
	assert.Equal(t, "4e5e9f2a", gate.GUID)
	assert.Equal(t, "America/Chicago", gate.Timezone)
	assert.Equal(t, -18000, gate.UTCOffset)
	assert.JSONEq(t, `[["100f1bd6", "ATTD"]]`, string(gate.Bridges))

	require.Equal(t, "Lobby", cameras["1007bb0a"].Name)
}

func TestListCamerasRejectsMalformedRows(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		list string
	}{
		{name: "short row", list: `[["00001106", "100d4c41", "Main Gate", "camera"]]`},
		{name: "wrong kind type", list: `[["a", "b", "c", 3, null, null, "R", [], "g", null, null, "UTC", 0]]`},
		{name: "missing id", list: `[["a", "", "c", "camera", null, null, "R", [], "g", null, null, "UTC", 0]]`},
		{name: "not a list", list: `{"cameras": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s := newTestSession(deviceAPI(t, tt.list), validSource())
			_, err := s.ListCameras(context.Background())
			require.ErrorIs(t, err, carsonerr.ErrCommunication)
		})
	}
}

func TestNewCameraFetchesDetail(t *testing.T) {
	t.Parallel()

	f := deviceAPI(t, deviceListJSON)
	s := newTestSession(f, validSource())

	cam, err := eagleeye.NewCamera(context.Background(), s, "100d4c41", nil)
	require.NoError(t, err)

	require.Equal(t, "100d4c41", cam.EntityID())
	require.Equal(t, "eagleeye_camera_100d4c41", cam.UniqueEntityID())
	require.Equal(t, "Main Gate", cam.Name())
	require.Equal(t, 200, cam.CameraParametersStatusCode())
	require.Equal(t, 404, cam.CameraInfoStatusCode())
	require.JSONEq(t, `{"motion": true}`, string(cam.Settings()))
	require.Same(t, s, cam.Session())

	require.Len(t, f.Requests(), 1)
	require.Equal(t, "100d4c41", f.Requests()[0].URL.Query().Get("id"))
}

func TestCameraUpdate(t *testing.T) {
	t.Parallel()

	f := deviceAPI(t, deviceListJSON)
	s := newTestSession(f, validSource())

	cameras, err := s.ListCameras(context.Background())
	require.NoError(t, err)

	p := cameras["1007bb0a"]
	cam, err := eagleeye.NewCamera(context.Background(), s, "1007bb0a", &p)
	require.NoError(t, err)
	require.Equal(t, "Lobby", cam.Name())

	renamed := p
	renamed.Name = "Lobby East"
	require.NoError(t, cam.Update(context.Background(), &renamed))
	require.Equal(t, "Lobby East", cam.Name())

	other := cameras["100d4c41"]
	err = cam.Update(context.Background(), &other)
	require.ErrorIs(t, err, carsonerr.ErrCommunication)
	require.Equal(t, "Lobby East", cam.Name())

	// The detail endpoint only knows 100d4c41.
	err = cam.Update(context.Background(), nil)
	require.ErrorIs(t, err, carsonerr.ErrAPI)
	require.Equal(t, http.StatusNotFound, carsonerr.StatusCode(err))
	require.Equal(t, "Lobby East", cam.Name())
}
