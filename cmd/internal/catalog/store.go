package catalog

import "context"

// Store is the persistence boundary for the sticker catalog.
type Store interface {
	Insert(ctx context.Context, s Sticker) error
	Get(ctx context.Context, id string) (Sticker, error)
	List(ctx context.Context, includeInactive bool) ([]Sticker, error)
	Update(ctx context.Context, s Sticker) (Sticker, error)
	Delete(ctx context.Context, id string) error
}
