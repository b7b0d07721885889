package repository

import (
	"context"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// ActivityRepository stores the append-only audit trail. Entries are never
// updated or deleted once written.
type ActivityRepository interface {
	Create(ctx context.Context, entry *domain.Activity) error
	ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Activity, error)
}

type activityRepository struct {
	db DB
}

// NewActivityRepository builds repository.
func NewActivityRepository(db DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, entry *domain.Activity) error {
	const query = `
        INSERT INTO work_item_activity (work_item_id, user_id, action, changes, change_count)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.WorkItemID,
		entry.UserID,
		entry.Action,
		entry.Changes,
		entry.ChangeCount,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityRepository) ListByWorkItem(ctx context.Context, workItemID string) ([]domain.Activity, error) {
	const query = `
        SELECT id, work_item_id, user_id, action, changes, change_count, created_at
        FROM work_item_activity WHERE work_item_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, workItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Activity
	for rows.Next() {
		var entry domain.Activity
		if err := rows.Scan(
			&entry.ID,
			&entry.WorkItemID,
			&entry.UserID,
			&entry.Action,
			&entry.Changes,
			&entry.ChangeCount,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
