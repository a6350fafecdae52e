package entity

import "context"

// Constructor builds a new entity for key from its first payload.
type Constructor[K comparable, E any, P any] func(ctx context.Context, key K, payload P) (E, error)

// Reconcile brings current in line with latest:
//
//   - keys in both are updated in place, so references held elsewhere stay valid;
//   - keys only in latest are constructed;
//   - keys only in current are dropped.
//
// Key sets are snapshotted before current is touched. Removal runs last, so an
// error from an update or a constructor returns before anything is discarded;
// entities already updated keep their new payload.
func Reconcile[K comparable, E Updatable[P], P any](
	ctx context.Context,
	current map[K]E,
	latest map[K]P,
	construct Constructor[K, E, P],
) error {
	var keep, add, drop []K
	for k := range current {
		if _, ok := latest[k]; ok {
			keep = append(keep, k)
		} else {
			drop = append(drop, k)
		}
	}
	for k := range latest {
		if _, ok := current[k]; !ok {
			add = append(add, k)
		}
	}

	for _, k := range keep {
		p := latest[k]
		if err := current[k].Update(ctx, &p); err != nil {
			return err
		}
	}

	for _, k := range add {
		e, err := construct(ctx, k, latest[k])
		if err != nil {
			return err
		}
		current[k] = e
	}

	for _, k := range drop {
		delete(current, k)
	}

	return nil
}
