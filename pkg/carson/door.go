package carson

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/entity"
)

// DoorKind prefixes door unique entity ids.
const DoorKind = "carson_door"

// DoorPayload is a door as listed in its building.
type DoorPayload struct {
	ID                int64  `json:"id"`
	Name              string `json:"name"`
	Provider          string `json:"provider"`
	IsActive          bool   `json:"isActive"`
	Disabled          bool   `json:"disabled"`
	IsUnitDoor        bool   `json:"isUnitDoor"`
	StaffOnly         bool   `json:"staffOnly"`
	DefaultInBuilding bool   `json:"defaultInBuilding"`
	ExternalID        string `json:"externalId"`
	Available         bool   `json:"available"`
	Order             int    `json:"order"`
}

func (p *DoorPayload) validate() error {
	if p.ID == 0 {
		return carsonerr.Communication("door payload has no id")
	}
	return nil
}

// Door is an entrance that can be unlocked remotely.
type Door struct {
	id      int64
	auth    *Auth
	payload DoorPayload
}

var (
	_ entity.Identifiable[int64]        = (*Door)(nil)
	_ entity.PayloadBacked[DoorPayload] = (*Door)(nil)
	_ entity.Updatable[DoorPayload]     = (*Door)(nil)
)

// NewDoor returns the door id with its first payload. Doors are only ever
// refreshed through their building, so payload is required.
func NewDoor(ctx context.Context, auth *Auth, id int64, payload *DoorPayload) (*Door, error) {
	d := &Door{id: id, auth: auth}
	if err := d.Update(ctx, payload); err != nil {
		return nil, err
	}
	return d, nil
}

func (d *Door) EntityID() int64 { return d.id }

func (d *Door) UniqueEntityID() string { return entity.UniqueID(DoorKind, d.id) }

func (d *Door) Payload() DoorPayload { return d.payload }

// Update replaces the payload. Doors have no update callback, so a nil
// payload fails with carsonerr.ErrCarson.
func (d *Door) Update(ctx context.Context, payload *DoorPayload) error {
	p, err := entity.Resolve(ctx, d.UniqueEntityID(), payload, nil)
	if err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	if p.ID != d.id {
		return carsonerr.Communication("payload for %s carries id %d", d.UniqueEntityID(), p.ID)
	}

	d.payload = *p
	return nil
}

// Open unlocks the door.
func (d *Door) Open(ctx context.Context) error {
	req := Request{Method: http.MethodPost, Path: fmt.Sprintf(EndpointDoorOpen, d.id)}
	return d.auth.Query(ctx, req, nil)
}

func (d *Door) Name() string            { return d.payload.Name }
func (d *Door) Provider() string        { return d.payload.Provider }
func (d *Door) IsActive() bool          { return d.payload.IsActive }
func (d *Door) Disabled() bool          { return d.payload.Disabled }
func (d *Door) IsUnitDoor() bool        { return d.payload.IsUnitDoor }
func (d *Door) StaffOnly() bool         { return d.payload.StaffOnly }
func (d *Door) DefaultInBuilding() bool { return d.payload.DefaultInBuilding }
func (d *Door) ExternalID() string      { return d.payload.ExternalID }
func (d *Door) Available() bool         { return d.payload.Available }

// Order is the position of the door within its building.
func (d *Door) Order() int { return d.payload.Order }

func (d *Door) String() string {
	return fmt.Sprintf("id: %d\nname: %s\nprovider: %s\nis_active: %t\nis_unit_door: %t\ndefault_in_building: %t",
		d.id, d.payload.Name, d.payload.Provider, d.payload.IsActive, d.payload.IsUnitDoor, d.payload.DefaultInBuilding)
}
