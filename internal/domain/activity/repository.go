package activity

import "context"

type ActivityRepository interface {
	Create(ctx context.Context, a Activity) error
	ListRecent(ctx context.Context, companyID string, limit int) ([]Activity, error)
}

// Publisher forwards activities to downstream consumers.
type Publisher interface {
	Publish(ctx context.Context, a Activity) error
}
