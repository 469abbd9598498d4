package postgresql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine-go/internal/domain/activity"
	"github.com/cmlabs-hris/payroll-engine-go/internal/pkg/database"
)

type activityRepository struct {
	db *database.DB
}

func NewActivityRepository(db *database.DB) activity.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, a activity.Activity) error {
	q := GetQuerier(ctx, r.db)

	var metadata []byte
	if len(a.Metadata) > 0 {
		var err error
		metadata, err = json.Marshal(a.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal activity metadata: %w", err)
		}
	}

	query := `
		INSERT INTO recent_activities (id, company_id, type, title, description, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	if _, err := q.Exec(ctx, query, a.ID, a.CompanyID, a.Type, a.Title, a.Description, metadata, a.CreatedAt); err != nil {
		return fmt.Errorf("failed to create activity: %w", err)
	}

	return nil
}

func (r *activityRepository) ListRecent(ctx context.Context, companyID string, limit int) ([]activity.Activity, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, company_id, type, title, description, metadata, created_at
		FROM recent_activities
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, companyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	activities := []activity.Activity{}
	for rows.Next() {
		var a activity.Activity
		var metadata []byte
		if err := rows.Scan(&a.ID, &a.CompanyID, &a.Type, &a.Title, &a.Description, &metadata, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &a.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal activity metadata: %w", err)
			}
		}
		activities = append(activities, a)
	}

	return activities, rows.Err()
}
