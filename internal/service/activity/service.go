package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/validator"
	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type ActivityServiceImpl struct {
	activityRepo activity.ActivityRepository
	publishers   []activity.Publisher
	hub          *sse.Hub
	now          func() time.Time
}

func NewActivityService(activityRepo activity.ActivityRepository, hub *sse.Hub, publishers ...activity.Publisher) activity.ActivityService {
	return &ActivityServiceImpl{
		activityRepo: activityRepo,
		publishers:   publishers,
		hub:          hub,
		now:          time.Now,
	}
}

// Record persists a and forwards it to every publisher. Failures are logged only.
func (s *ActivityServiceImpl) Record(ctx context.Context, a activity.Activity) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = s.now().UTC()
	}

	if err := s.activityRepo.Create(ctx, a); err != nil {
		slog.ErrorContext(ctx, "failed to store activity",
			"company_id", a.CompanyID, "type", a.Type, "error", err)
	}

	for _, p := range s.publishers {
		if err := p.Publish(ctx, a); err != nil {
			slog.ErrorContext(ctx, "failed to publish activity",
				"company_id", a.CompanyID, "type", a.Type, "error", err)
		}
	}
}

func (s *ActivityServiceImpl) ListRecent(ctx context.Context, companyID string, limit int) ([]activity.Activity, error) {
	if validator.IsEmpty(companyID) {
		return nil, activity.ErrCompanyIDRequired
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return s.activityRepo.ListRecent(ctx, companyID, limit)
}

func (s *ActivityServiceImpl) Subscribe(ctx context.Context, companyID string) (<-chan activity.Activity, func()) {
	ch, cleanup := s.hub.Subscribe(companyID)

	out := make(chan activity.Activity, 10)

	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				if a, ok := event.Data.(activity.Activity); ok {
					select {
					case out <- a:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}
