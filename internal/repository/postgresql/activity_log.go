package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-leave-go/internal/domain/activitylog"
	"github.com/cmlabs-hris/hris-leave-go/internal/pkg/database"
)

type activityLogRepositoryImpl struct {
	db *database.DB
}

func NewActivityLogRepository(db *database.DB) activitylog.Repository {
	return &activityLogRepositoryImpl{db: db}
}

// Create implements activitylog.Repository.
func (r *activityLogRepositoryImpl) Create(ctx context.Context, entry activitylog.Entry) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details, correlation_id)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := q.Exec(ctx, query,
		entry.UserID, entry.Action, entry.EntityType, entry.EntityID, entry.Details, entry.CorrelationID,
	); err != nil {
		return fmt.Errorf("failed to create activity log: %w", err)
	}
	return nil
}

// ListByEntity implements activitylog.Repository.
func (r *activityLogRepositoryImpl) ListByEntity(ctx context.Context, entityType string, entityID int64) ([]activitylog.Entry, error) {
	q := GetQuerier(ctx, r.db)

	rows, err := q.Query(ctx, `
		SELECT id, user_id, action, entity_type, entity_id, details, correlation_id, created_at
		FROM activity_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, id DESC
	`, entityType, entityID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activity logs: %w", err)
	}
	defer rows.Close()

	var entries []activitylog.Entry
	for rows.Next() {
		var e activitylog.Entry
		if err := rows.Scan(
			&e.ID, &e.UserID, &e.Action, &e.EntityType, &e.EntityID, &e.Details, &e.CorrelationID, &e.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan activity log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
