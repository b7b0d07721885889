package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// ModeSwitchRepository manages view mode switch requests.
type ModeSwitchRepository interface {
	Create(ctx context.Context, request *domain.ModeSwitchRequest) error
	GetByID(ctx context.Context, id string) (*domain.ModeSwitchRequest, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	ListPending(ctx context.Context) ([]domain.ModeSwitchRequest, error)
	ListAll(ctx context.Context) ([]domain.ModeSwitchRequest, error)
	Decide(ctx context.Context, id string, status domain.ModeSwitchStatus, decidedBy string) error
}

type modeSwitchRepository struct {
	db DB
}

// NewModeSwitchRepository constructs repository.
func NewModeSwitchRepository(db DB) ModeSwitchRepository {
	return &modeSwitchRepository{db: db}
}

const modeSwitchColumns = `id, user_id, requested_mode, reason, status, decided_by, created_at, decided_at`

func (r *modeSwitchRepository) Create(ctx context.Context, request *domain.ModeSwitchRequest) error {
	const query = `
        INSERT INTO mode_switch_requests (user_id, requested_mode, reason, status)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		request.UserID,
		request.RequestedMode,
		request.Reason,
		request.Status,
	).Scan(&request.ID, &request.CreatedAt)
}

func (r *modeSwitchRepository) GetByID(ctx context.Context, id string) (*domain.ModeSwitchRequest, error) {
	var request domain.ModeSwitchRequest
	if err := r.db.QueryRow(ctx, `SELECT `+modeSwitchColumns+` FROM mode_switch_requests WHERE id=$1`, id).Scan(
		&request.ID,
		&request.UserID,
		&request.RequestedMode,
		&request.Reason,
		&request.Status,
		&request.DecidedBy,
		&request.CreatedAt,
		&request.DecidedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *modeSwitchRepository) HasPending(ctx context.Context, userID string) (bool, error) {
	var count int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM mode_switch_requests WHERE user_id=$1 AND status=$2`,
		userID, domain.ModeSwitchPending).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *modeSwitchRepository) ListPending(ctx context.Context) ([]domain.ModeSwitchRequest, error) {
	return r.list(ctx,
		`SELECT `+modeSwitchColumns+` FROM mode_switch_requests WHERE status=$1 ORDER BY created_at ASC`,
		domain.ModeSwitchPending)
}

// ListAll returns the full decision history, newest first.
func (r *modeSwitchRepository) ListAll(ctx context.Context) ([]domain.ModeSwitchRequest, error) {
	return r.list(ctx, `SELECT `+modeSwitchColumns+` FROM mode_switch_requests ORDER BY created_at DESC`)
}

func (r *modeSwitchRepository) list(ctx context.Context, query string, args ...any) ([]domain.ModeSwitchRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ModeSwitchRequest
	for rows.Next() {
		var request domain.ModeSwitchRequest
		if err := rows.Scan(
			&request.ID,
			&request.UserID,
			&request.RequestedMode,
			&request.Reason,
			&request.Status,
			&request.DecidedBy,
			&request.CreatedAt,
			&request.DecidedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}

func (r *modeSwitchRepository) Decide(ctx context.Context, id string, status domain.ModeSwitchStatus, decidedBy string) error {
	const query = `
        UPDATE mode_switch_requests SET status=$1, decided_by=$2, decided_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err := r.db.Exec(ctx, query, status, decidedBy, id, domain.ModeSwitchPending)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
