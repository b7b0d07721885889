package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// TeamRepository manages persistence for teams and their memberships.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.Team, error)
	ReplaceMembers(ctx context.Context, teamID string, memberIDs []string) error
	LeadsAnyTeamInProject(ctx context.Context, projectID, userID string) (bool, error)
}

type teamRepository struct {
	db DB
}

// NewTeamRepository constructs repository.
func NewTeamRepository(db DB) TeamRepository {
	return &teamRepository{db: db}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	const query = `
        INSERT INTO teams (project_id, name, lead_user_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	if err := r.db.QueryRow(ctx, query,
		team.ProjectID,
		team.Name,
		team.LeadID,
	).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt); err != nil {
		return err
	}
	if len(team.MemberIDs) > 0 {
		return r.ReplaceMembers(ctx, team.ID, team.MemberIDs)
	}
	return nil
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, lead_user_id=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := r.db.Exec(ctx, query,
		team.Name,
		team.LeadID,
		team.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM teams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, project_id, name, lead_user_id, created_at, updated_at
        FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.db.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.ProjectID,
		&team.Name,
		&team.LeadID,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	members, err := r.memberIDs(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	team.MemberIDs = members
	return &team, nil
}

func (r *teamRepository) ListByProject(ctx context.Context, projectID string) ([]domain.Team, error) {
	const query = `
        SELECT id, project_id, name, lead_user_id, created_at, updated_at
        FROM teams WHERE project_id=$1 ORDER BY name ASC`
	rows, err := r.db.Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.ProjectID, &team.Name, &team.LeadID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		members, err := r.memberIDs(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].MemberIDs = members
	}
	return result, nil
}

func (r *teamRepository) ReplaceMembers(ctx context.Context, teamID string, memberIDs []string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM team_members WHERE team_id=$1`, teamID); err != nil {
		return err
	}
	for _, userID := range memberIDs {
		if _, err := r.db.Exec(ctx,
			`INSERT INTO team_members (team_id, user_id) VALUES ($1,$2) ON CONFLICT DO NOTHING`,
			teamID, userID); err != nil {
			return err
		}
	}
	return nil
}

func (r *teamRepository) LeadsAnyTeamInProject(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM teams WHERE project_id=$1 AND lead_user_id=$2`
	var count int
	if err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *teamRepository) memberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT user_id FROM team_members WHERE team_id=$1`, teamID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
