package eagleeye

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/entity"
)

// CameraKind prefixes camera unique entity ids.
const CameraKind = "eagleeye_camera"

// Camera is an Eagle Eye camera. Its id is the Eagle Eye device id, which the
// Carson API reports as the camera's externalId.
type Camera struct {
	id      string
	session *Session
	payload CameraPayload
}

var (
	_ entity.Identifiable[string]         = (*Camera)(nil)
	_ entity.PayloadBacked[CameraPayload] = (*Camera)(nil)
	_ entity.Updatable[CameraPayload]     = (*Camera)(nil)
)

// NewCamera returns the camera id served through session. A nil payload is
// fetched from the device detail endpoint.
func NewCamera(ctx context.Context, session *Session, id string, payload *CameraPayload) (*Camera, error) {
	c := &Camera{id: id, session: session}
	if err := c.Update(ctx, payload); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Camera) EntityID() string { return c.id }

func (c *Camera) UniqueEntityID() string { return entity.UniqueID(CameraKind, c.id) }

// Payload returns the current state.
func (c *Camera) Payload() CameraPayload { return c.payload }

// Session returns the session the camera is served through.
func (c *Camera) Session() *Session { return c.session }

// Update replaces the payload. With a nil payload the device detail is fetched.
// On failure the previous payload stays in place.
func (c *Camera) Update(ctx context.Context, payload *CameraPayload) error {
	p, err := entity.Resolve(ctx, c.UniqueEntityID(), payload, c.fetchDetail)
	if err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	if p.ID != c.id {
		return carsonerr.Communication("payload for %s carries id %q", c.UniqueEntityID(), p.ID)
	}

	c.payload = *p
	return nil
}

func (c *Camera) fetchDetail(ctx context.Context) (*CameraPayload, error) {
	return c.session.CameraDetail(ctx, c.id)
}

func (c *Camera) Name() string                      { return c.payload.Name }
func (c *Camera) AccountID() string                 { return c.payload.AccountID }
func (c *Camera) Bridges() json.RawMessage          { return c.payload.Bridges }
func (c *Camera) Permissions() string               { return c.payload.Permissions }
func (c *Camera) Tags() []string                    { return c.payload.Tags }
func (c *Camera) GUID() string                      { return c.payload.GUID }
func (c *Camera) Timezone() string                  { return c.payload.Timezone }
func (c *Camera) Settings() json.RawMessage         { return c.payload.Settings }
func (c *Camera) CameraParameters() json.RawMessage { return c.payload.CameraParameters }
func (c *Camera) CameraInfo() json.RawMessage       { return c.payload.CameraInfo }

// UTCOffset is the signed offset of the camera's timezone, in seconds.
func (c *Camera) UTCOffset() int { return c.payload.UTCOffset }

// CameraParametersStatusCode is 200 when the parameters could be read, 404 otherwise.
func (c *Camera) CameraParametersStatusCode() int { return c.payload.CameraParametersStatusCode }

// CameraInfoStatusCode is 200 when the info could be read, 404 otherwise.
func (c *Camera) CameraInfoStatusCode() int { return c.payload.CameraInfoStatusCode }

func (c *Camera) String() string {
	return fmt.Sprintf("id: %s\nname: %s\nguid: %s\ntimezone: %s\ntags: %v",
		c.id, c.payload.Name, c.payload.GUID, c.payload.Timezone, c.payload.Tags)
}
