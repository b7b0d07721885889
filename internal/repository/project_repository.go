package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// OwnerProjectCount is one row of the per-owner project breakdown.
type OwnerProjectCount struct {
	Username string
	Email    string
	Projects int
}

// ProjectRepository manages persistence for projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *domain.Project) error
	Update(ctx context.Context, project *domain.Project) error
	SetActive(ctx context.Context, id string, active bool) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context) ([]domain.Project, error)
	ListOwnedBy(ctx context.Context, userID string) ([]domain.Project, error)
	ListForContributor(ctx context.Context, userID string) ([]domain.Project, error)
	Count(ctx context.Context) (int, error)
	CountByOwner(ctx context.Context) ([]OwnerProjectCount, error)
	CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error)
}

type projectRepository struct {
	db DB
}

// NewProjectRepository constructs repository.
func NewProjectRepository(db DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `id, name, prefix, owner_user_id, is_active, created_at, updated_at`

func (r *projectRepository) Create(ctx context.Context, project *domain.Project) error {
	const query = `
        INSERT INTO projects (name, prefix, owner_user_id, is_active)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		project.Name,
		project.Prefix,
		project.OwnerID,
		project.IsActive,
	).Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, project *domain.Project) error {
	const query = `
        UPDATE projects SET name=$1, prefix=$2, owner_user_id=$3, updated_at=NOW()
        WHERE id=$4`
	cmd, err := r.db.Exec(ctx, query,
		project.Name,
		project.Prefix,
		project.OwnerID,
		project.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.db.Exec(ctx, `UPDATE projects SET is_active=$1, updated_at=NOW() WHERE id=$2`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	var project domain.Project
	if err := r.db.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id=$1`, id).Scan(
		&project.ID,
		&project.Name,
		&project.Prefix,
		&project.OwnerID,
		&project.IsActive,
		&project.CreatedAt,
		&project.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context) ([]domain.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects ORDER BY name ASC`)
}

func (r *projectRepository) ListOwnedBy(ctx context.Context, userID string) ([]domain.Project, error) {
	return r.list(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_user_id=$1 ORDER BY name ASC`, userID)
}

// ListForContributor returns projects the user is a team member or lead of,
// or holds an assignment in.
func (r *projectRepository) ListForContributor(ctx context.Context, userID string) ([]domain.Project, error) {
	const query = `
        SELECT ` + projectColumns + ` FROM projects p
        WHERE p.id IN (SELECT t.project_id FROM teams t WHERE t.lead_user_id=$1)
           OR p.id IN (SELECT t.project_id FROM teams t JOIN team_members tm ON tm.team_id=t.id WHERE tm.user_id=$1)
           OR p.id IN (SELECT DISTINCT w.project_id FROM work_items w WHERE w.assignee_user_id=$1)
        ORDER BY p.name ASC`
	return r.list(ctx, query, userID)
}

func (r *projectRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(1) FROM projects`).Scan(&count)
	return count, err
}

// CountByOwner groups project counts by owning admin. Ownerless projects are
// excluded; they have nobody to attribute them to.
func (r *projectRepository) CountByOwner(ctx context.Context) ([]OwnerProjectCount, error) {
	const query = `
        SELECT u.username, u.email, COUNT(p.id)
        FROM users u JOIN projects p ON p.owner_user_id = u.id
        GROUP BY u.id ORDER BY u.username ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []OwnerProjectCount
	for rows.Next() {
		var row OwnerProjectCount
		if err := rows.Scan(&row.Username, &row.Email, &row.Projects); err != nil {
			return nil, err
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (r *projectRepository) CountCreatedBetween(ctx context.Context, from, to time.Time) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(1) FROM projects WHERE created_at >= $1 AND created_at < $2`,
		from, to).Scan(&count)
	return count, err
}

func (r *projectRepository) list(ctx context.Context, query string, args ...any) ([]domain.Project, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Project
	for rows.Next() {
		var project domain.Project
		if err := rows.Scan(
			&project.ID,
			&project.Name,
			&project.Prefix,
			&project.OwnerID,
			&project.IsActive,
			&project.CreatedAt,
			&project.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, project)
	}
	return result, rows.Err()
}
