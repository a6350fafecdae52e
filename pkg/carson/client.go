package carson

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/carson/pkg/eagleeye"
	"github.com/aussiebroadwan/carson/pkg/entity"
	"github.com/aussiebroadwan/carson/pkg/slogx"
)

// mePayload is the data of /me/: the user plus the buildings it has access to.
type mePayload struct {
	UserPayload
	Properties []BuildingPayload `json:"properties"`
}

// Client is the root of a Carson Living account. It holds the user and the
// buildings, each refreshed in place by Update.
//
// Client is not safe for concurrent use.
type Client struct {
	auth      *Auth
	logger    *slog.Logger
	eagleEye  []eagleeye.Option
	user      *User
	buildings map[int64]*Building
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEagleEyeURL overrides eagleeye.DefaultURLTemplate for every building.
func WithEagleEyeURL(tmpl string) ClientOption {
	return func(c *Client) { c.eagleEye = append(c.eagleEye, eagleeye.WithURLTemplate(tmpl)) }
}

// WithEagleEyeOptions adds options to every building's Eagle Eye session.
func WithEagleEyeOptions(opts ...eagleeye.Option) ClientOption {
	return func(c *Client) { c.eagleEye = append(c.eagleEye, opts...) }
}

// NewClient returns a client for the account of auth. The Eagle Eye sessions
// share the transport, logger and clock of auth. Nothing is fetched until
// Update.
func NewClient(auth *Auth, opts ...ClientOption) *Client {
	c := &Client{
		auth:      auth,
		logger:    auth.logger,
		buildings: make(map[int64]*Building),
		eagleEye: []eagleeye.Option{
			eagleeye.WithHTTPClient(auth.client),
			eagleeye.WithHeaders(BaseHeaders()),
			eagleeye.WithLogger(auth.logger),
			eagleeye.WithClock(auth.now),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Auth() *Auth { return c.auth }

// User returns the account user, or nil before the first Update.
func (c *Client) User() *User { return c.user }

// Buildings returns the buildings ordered by id.
func (c *Client) Buildings() []*Building {
	return sortedValues(c.buildings, (*Building).EntityID)
}

// Building returns the building with the given id.
func (c *Client) Building(id int64) (*Building, bool) {
	b, ok := c.buildings[id]
	return b, ok
}

// Update fetches /me/ and refreshes the user and every building in place.
// Buildings that are gone are dropped; new ones are created.
func (c *Client) Update(ctx context.Context) error {
	slogx.Pick(ctx, c.logger).Debug("updating carson living account")

	me, err := c.fetchMe(ctx)
	if err != nil {
		return err
	}

	latest := make(map[int64]BuildingPayload, len(me.Properties))
	for _, p := range me.Properties {
		latest[p.ID] = p
	}

	err = entity.Reconcile(ctx, c.buildings, latest, func(ctx context.Context, id int64, p BuildingPayload) (*Building, error) {
		return NewBuilding(ctx, c.auth, id, &p, c.eagleEye...)
	})
	if err != nil {
		return err
	}

	if c.user == nil {
		u, err := NewUser(ctx, &me.UserPayload, c.fetchUser)
		if err != nil {
			return err
		}
		c.user = u
		return nil
	}
	return c.user.Update(ctx, &me.UserPayload)
}

func (c *Client) fetchMe(ctx context.Context) (*mePayload, error) {
	var me mePayload
	if err := c.auth.Query(ctx, Request{Path: EndpointMe}, Envelope(&me)); err != nil {
		return nil, err
	}
	return &me, nil
}

func (c *Client) fetchUser(ctx context.Context) (*UserPayload, error) {
	me, err := c.fetchMe(ctx)
	if err != nil {
		return nil, err
	}
	return &me.UserPayload, nil
}
