package carson

import (
	"context"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
	"github.com/aussiebroadwan/carson/pkg/entity"
)

// UserKind prefixes user unique entity ids.
const UserKind = "carson_user"

// ContactInfo is one way of reaching the user.
type ContactInfo struct {
	ContactInfo string `json:"contactInfo"`
	Type        string `json:"type"`
	Primary     bool   `json:"primary"`
	Verified    bool   `json:"verified"`
}

type Photo struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// UserPayload is the account part of the /me/ response.
type UserPayload struct {
	ID          int64         `json:"id"`
	FirstName   string        `json:"firstName"`
	LastName    string        `json:"lastName"`
	ContactInfo []ContactInfo `json:"contactInfo"`
	Photo       *Photo        `json:"photo"`
	Verified    bool          `json:"verified"`
	IsAdmin     bool          `json:"isAdmin"`
	IsService   bool          `json:"isService"`
}

func (p *UserPayload) validate() error {
	if p.ID == 0 {
		return carsonerr.Communication("user payload has no id")
	}
	return nil
}

// User is the account the client is logged in as.
type User struct {
	fetch   entity.Fetcher[UserPayload]
	payload UserPayload
}

var (
	_ entity.Identifiable[int64]        = (*User)(nil)
	_ entity.PayloadBacked[UserPayload] = (*User)(nil)
	_ entity.Updatable[UserPayload]     = (*User)(nil)
)

// NewUser returns a user from payload, or from fetch when payload is nil.
// fetch is kept for later updates without a payload and may be nil.
func NewUser(ctx context.Context, payload *UserPayload, fetch entity.Fetcher[UserPayload]) (*User, error) {
	u := &User{fetch: fetch}
	if err := u.Update(ctx, payload); err != nil {
		return nil, err
	}
	return u, nil
}

func (u *User) EntityID() int64 { return u.payload.ID }

// UniqueEntityID is UserKind alone until the first payload names the user.
func (u *User) UniqueEntityID() string {
	if u.payload.ID == 0 {
		return UserKind
	}
	return entity.UniqueID(UserKind, u.payload.ID)
}

func (u *User) Payload() UserPayload { return u.payload }

// Update replaces the payload, fetching it when payload is nil.
func (u *User) Update(ctx context.Context, payload *UserPayload) error {
	p, err := entity.Resolve(ctx, u.UniqueEntityID(), payload, u.fetch)
	if err != nil {
		return err
	}
	if err := p.validate(); err != nil {
		return err
	}
	if u.payload.ID != 0 && p.ID != u.payload.ID {
		return carsonerr.Communication("payload for %s carries id %d", u.UniqueEntityID(), p.ID)
	}

	u.payload = *p
	return nil
}

func (u *User) FirstName() string { return u.payload.FirstName }
func (u *User) LastName() string  { return u.payload.LastName }
func (u *User) Verified() bool    { return u.payload.Verified }
func (u *User) IsAdmin() bool     { return u.payload.IsAdmin }
func (u *User) IsService() bool   { return u.payload.IsService }

// ContactInfo returns a copy of the user's contact details.
func (u *User) ContactInfo() []ContactInfo {
	return append([]ContactInfo(nil), u.payload.ContactInfo...)
}

// Photo returns the profile photo, or the zero Photo.
func (u *User) Photo() Photo {
	if u.payload.Photo == nil {
		return Photo{}
	}
	return *u.payload.Photo
}

func (u *User) String() string {
	contacts := make([]string, 0, len(u.payload.ContactInfo))
	for _, c := range u.payload.ContactInfo {
		contacts = append(contacts, c.Type+": "+c.ContactInfo)
	}
	return fmt.Sprintf("id: %d\nfirst name: %s\nlast name: %s\ncontact info: %s\nverified: %t\nis_admin: %t",
		u.payload.ID, u.payload.FirstName, u.payload.LastName,
		strings.Join(contacts, ", "), u.payload.Verified, u.payload.IsAdmin)
}
