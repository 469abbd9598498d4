package activity

import "context"

// Recorder is fire-and-forget: implementations never report failure to the caller.
type Recorder interface {
	Record(ctx context.Context, a Activity)
}

type ActivityService interface {
	Recorder
	ListRecent(ctx context.Context, companyID string, limit int) ([]Activity, error)
	// Subscribe streams activities of a company recorded from now on until
	// ctx ends or cleanup is called.
	Subscribe(ctx context.Context, companyID string) (<-chan Activity, func())
}
