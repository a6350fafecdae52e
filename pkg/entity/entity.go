// Package entity holds the contracts shared by every long-lived domain object
// of the SDK, and the reconciliation that keeps keyed collections of them in
// step with freshly fetched payloads.
//
// An entity's visible state is a projection of a single payload value. The
// payload is replaced wholesale on update; accessors never cache anything
// beside it.
package entity

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/carson/pkg/carsonerr"
)

// Identifiable is implemented by every entity.
type Identifiable[K comparable] interface {
	// EntityID is the id within the entity's own domain.
	EntityID() K

	// UniqueEntityID is unique across all entity kinds, see UniqueID.
	UniqueEntityID() string
}

// PayloadBacked exposes the payload an entity projects its state from.
type PayloadBacked[P any] interface {
	Payload() P
}

// Updatable entities replace their payload in place. A nil payload asks the
// entity to fetch one through its update callback.
type Updatable[P any] interface {
	Update(ctx context.Context, payload *P) error
}

// Fetcher produces a fresh payload for an entity.
type Fetcher[P any] func(ctx context.Context) (*P, error)

// UniqueID namespaces id by kind, e.g. UniqueID("carson_door", 7) is "carson_door_7".
func UniqueID(kind string, id any) string {
	return fmt.Sprintf("%s_%v", kind, id)
}

// Resolve picks the payload an update should apply: payload when given,
// otherwise the result of fetch. uid names the entity in errors.
func Resolve[P any](ctx context.Context, uid string, payload *P, fetch Fetcher[P]) (*P, error) {
	if payload != nil {
		return payload, nil
	}

	if fetch == nil {
		return nil, carsonerr.Carson(
			"trying to update entity %s without external payload or a callback function", uid)
	}

	p, err := fetch(ctx)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, carsonerr.Carson("update callback for entity %s returned an empty payload", uid)
	}
	return p, nil
}
