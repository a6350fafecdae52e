package carson_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/carson/pkg/carson"
	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

func TestUnwrapEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantData string
		wantErr  error
	}{
		{
			name:     "success",
			body:     `{"code": 0, "status": "ok", "data": {"token": "abc"}, "msg": ""}`,
			wantData: `{"token": "abc"}`,
		},
		{
			name:     "extra keys",
			body:     `{"code": 0, "status": "ok", "data": [1, 2], "msg": "", "trace": "x"}`,
			wantData: `[1, 2]`,
		},
		{
			name:     "null data",
			body:     `{"code": 0, "status": "ok", "data": null, "msg": null}`,
			wantData: `null`,
		},
		{
			name:    "missing msg",
			body:    `{"code": 0, "status": "ok", "data": {}}`,
			wantErr: carsonerr.ErrCommunication,
		},
		{
			name:    "not json",
			body:    `Internal Server Error`,
			wantErr: carsonerr.ErrCommunication,
		},
		{
			name:    "not an object",
			body:    `[0, "ok", {}, ""]`,
			wantErr: carsonerr.ErrCommunication,
		},
		{
			name:    "code not a number",
			body:    `{"code": "0", "status": "ok", "data": {}, "msg": ""}`,
			wantErr: carsonerr.ErrCommunication,
		},
		{
			name:    "api failure",
			body:    `{"code": 1003, "status": "error", "data": null, "msg": "door offline"}`,
			wantErr: carsonerr.ErrAPI,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data, err := carson.UnwrapEnvelope([]byte(tt.body))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.JSONEq(t, tt.wantData, string(data))
		})
	}
}

func TestUnwrapEnvelopeFailureDetails(t *testing.T) {
	t.Parallel()

	_, err := carson.UnwrapEnvelope([]byte(`{"code": 1003, "status": "error", "data": null, "msg": "door offline"}`))

	var e *carsonerr.Error
	require.True(t, errors.As(err, &e))
	require.Equal(t, carsonerr.KindAPI, e.Kind)
	require.Equal(t, 1003, e.Code)
	require.Equal(t, "error", e.Status)
	require.Contains(t, e.Error(), "door offline")
	require.NotErrorIs(t, err, carsonerr.ErrAuthentication)
}
