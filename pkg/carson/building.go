package carson

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/aussiebroadwan/carson/pkg/entity"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

// BuildingKind prefixes building unique entity ids.
const BuildingKind = "carson_building"

// Area locates a building.
type Area struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
}

type Unit struct {
	Name            string `json:"name"`
	PaymentsEnabled bool   `json:"paymentsEnabled"`
}

// CameraRef is a camera as listed by Carson Living. Only cameras whose
// provider is ProviderEagleEye are managed; their ExternalID is the Eagle Eye
// camera id.
type CameraRef struct {
	Name       string `json:"name"`
	Provider   string `json:"provider"`
	ExternalID string `json:"externalId"`
}

// BuildingPayload is one entry of the properties list of /me/.
type BuildingPayload struct {
	ID                     int64         `json:"id"`
	Name                   string        `json:"name"`
	Type                   string        `json:"type"`
	Area                   *Area         `json:"area"`
	Units                  []Unit        `json:"units"`
	PMCName                string        `json:"pmcName"`
	PaymentsEnabled        bool          `json:"paymentsEnabled"`
	VisitorInviteEnabled   bool          `json:"visitorInviteEnabled"`
	VisitorInvitesLeft     int           `json:"visitorInvitesLeft"`
	DoorsAvailable         bool          `json:"doorsAvailable"`
	ServiceRequestsEnabled bool          `json:"serviceRequestsEnabled"`
	Country                string        `json:"country"`
	State                  string        `json:"state"`
	Timezone               string        `json:"timezone"`
	Doors                  []DoorPayload `json:"doors"`
	Cameras                []CameraRef   `json:"cameras"`
}

func (p *BuildingPayload) validate() error {
	if p.ID == 0 {
		return carsonerr.Communication("building payload has no id")
	}

	seen := make(map[int64]struct{}, len(p.Doors))
	for i := range p.Doors {
		if err := p.Doors[i].validate(); err != nil {
			return err
		}
		if _, dup := seen[p.Doors[i].ID]; dup {
			return carsonerr.Communication("building %d lists door %d twice", p.ID, p.Doors[i].ID)
		}
		seen[p.Doors[i].ID] = struct{}{}
	}

	for _, c := range p.Cameras {
		if c.Provider == ProviderEagleEye && c.ExternalID == "" {
			return carsonerr.Communication("building %d lists an eagle eye camera without external id", p.ID)
		}
	}
	return nil
}

// eagleEyeCameraIDs returns the Eagle Eye ids of the listed cameras.
func (p *BuildingPayload) eagleEyeCameraIDs() []string {
	var ids []string
	for _, c := range p.Cameras {
		if c.Provider == ProviderEagleEye {
			ids = append(ids, c.ExternalID)
		}
	}
	return ids
}

// Building is a property the user has access to. It owns its doors and
// cameras, and an Eagle Eye session authorised through the Carson Living API.
type Building struct {
	id       int64
	auth     *Auth
	eagleEye *eagleeye.Session
	logger   *slog.Logger

	payload BuildingPayload
	doors   map[int64]*Door
	cameras map[string]*eagleeye.Camera
}

var (
	_ entity.Identifiable[int64]            = (*Building)(nil)
	_ entity.PayloadBacked[BuildingPayload] = (*Building)(nil)
	_ entity.Updatable[BuildingPayload]     = (*Building)(nil)
)

// NewBuilding returns the building id. The Eagle Eye session is bound to id
// before payload is applied, since applying it may already list cameras.
// opts configure that session.
func NewBuilding(ctx context.Context, auth *Auth, id int64, payload *BuildingPayload, opts ...eagleeye.Option) (*Building, error) {
	b := &Building{
		id:      id,
		auth:    auth,
		logger:  auth.logger,
		doors:   make(map[int64]*Door),
		cameras: make(map[string]*eagleeye.Camera),
	}
	b.eagleEye = eagleeye.NewSession(b.eagleEyeSession, opts...)

	if err := b.Update(ctx, payload); err != nil {
		return nil, err
	}
	return b, nil
}

type eagleEyeSessionPayload struct {
	SessionID            string `json:"sessionId"`
	ActiveBrandSubdomain string `json:"activeBrandSubdomain"`
}

// eagleEyeSession obtains an Eagle Eye auth key and brand subdomain for the
// building.
func (b *Building) eagleEyeSession(ctx context.Context) (string, string, error) {
	var out eagleEyeSessionPayload
	req := Request{Path: fmt.Sprintf(EndpointEagleEyeSession, b.id)}
	if err := b.auth.Query(ctx, req, Envelope(&out)); err != nil {
		return "", "", err
	}
	return out.SessionID, out.ActiveBrandSubdomain, nil
}

func (b *Building) EntityID() int64 { return b.id }

func (b *Building) UniqueEntityID() string { return entity.UniqueID(BuildingKind, b.id) }

func (b *Building) Payload() BuildingPayload { return b.payload }

// Update applies payload and reconciles the doors and cameras it lists.
// Buildings are refreshed through Client.Update, so payload is required.
//
// Everything that can fail runs before the first change: on error the
// building keeps its previous payload, doors and cameras.
func (b *Building) Update(ctx context.Context, payload *BuildingPayload) error {
	p, err := entity.Resolve(ctx, b.UniqueEntityID(), payload, nil)
	if err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	if p.ID != b.id {
		return carsonerr.Communication("payload for %s carries id %d", b.UniqueEntityID(), p.ID)
	}

	cameras, err := b.listCameras(ctx, p.eagleEyeCameraIDs())
	if err != nil {
		return err
	}

	doors := make(map[int64]DoorPayload, len(p.Doors))
	for _, d := range p.Doors {
		doors[d.ID] = d
	}

	// Payloads are validated, so neither reconciliation can fail past this point.
	err = entity.Reconcile(ctx, b.doors, doors, func(ctx context.Context, id int64, dp DoorPayload) (*Door, error) {
		return NewDoor(ctx, b.auth, id, &dp)
	})
	if err != nil {
		return err
	}

	err = entity.Reconcile(ctx, b.cameras, cameras, func(ctx context.Context, id string, cp eagleeye.CameraPayload) (*eagleeye.Camera, error) {
		return eagleeye.NewCamera(ctx, b.eagleEye, id, &cp)
	})
	if err != nil {
		return err
	}

	b.payload = *p
	return nil
}

// listCameras fetches the Eagle Eye device list and keeps the cameras in ids.
// Listed cameras Eagle Eye does not report are skipped.
func (b *Building) listCameras(ctx context.Context, ids []string) (map[string]eagleeye.CameraPayload, error) {
	out := make(map[string]eagleeye.CameraPayload, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	all, err := b.eagleEye.ListCameras(ctx)
	if err != nil {
		return nil, fmt.Errorf("list cameras of %s: %w", b.UniqueEntityID(), err)
	}

	for _, id := range ids {
		p, ok := all[id]
		if !ok {
			slogx.Pick(ctx, b.logger).Warn("camera not reported by eagle eye",
				"building", b.id, "camera", id)
			continue
		}
		out[id] = p
	}
	return out, nil
}

// EagleEye returns the session used for the building's cameras.
func (b *Building) EagleEye() *eagleeye.Session { return b.eagleEye }

// Doors returns the doors ordered by id.
func (b *Building) Doors() []*Door {
	return sortedValues(b.doors, func(d *Door) int64 { return d.id })
}

// Door returns the door with the given id.
func (b *Building) Door(id int64) (*Door, bool) {
	d, ok := b.doors[id]
	return d, ok
}

// Cameras returns the cameras ordered by Eagle Eye id.
func (b *Building) Cameras() []*eagleeye.Camera {
	return sortedValues(b.cameras, (*eagleeye.Camera).EntityID)
}

// Camera returns the camera with the given Eagle Eye id.
func (b *Building) Camera(id string) (*eagleeye.Camera, bool) {
	c, ok := b.cameras[id]
	return c, ok
}

func (b *Building) Name() string                 { return b.payload.Name }
func (b *Building) Type() string                 { return b.payload.Type }
func (b *Building) PMCName() string              { return b.payload.PMCName }
func (b *Building) PaymentsEnabled() bool        { return b.payload.PaymentsEnabled }
func (b *Building) VisitorInviteEnabled() bool   { return b.payload.VisitorInviteEnabled }
func (b *Building) VisitorInvitesLeft() int      { return b.payload.VisitorInvitesLeft }
func (b *Building) DoorsAvailable() bool         { return b.payload.DoorsAvailable }
func (b *Building) ServiceRequestsEnabled() bool { return b.payload.ServiceRequestsEnabled }
func (b *Building) Country() string              { return b.payload.Country }
func (b *Building) State() string                { return b.payload.State }
func (b *Building) Timezone() string             { return b.payload.Timezone }

// Area returns the building location, or the zero Area.
func (b *Building) Area() Area {
	if b.payload.Area == nil {
		return Area{}
	}
	return *b.payload.Area
}

func (b *Building) Units() []Unit {
	return append([]Unit(nil), b.payload.Units...)
}

func (b *Building) String() string {
	return fmt.Sprintf("id: %d\nname: %s\nnumber of cameras: %d\nnumber of doors: %d\nnumber of units: %d\npmc: %s",
		b.id, b.payload.Name, len(b.cameras), len(b.doors), len(b.payload.Units), b.payload.PMCName)
}

func sortedValues[K comparable, V any, O cmp.Ordered](m map[K]V, key func(V) O) []V {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b V) int { return cmp.Compare(key(a), key(b)) })
	return out
}
