package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/issue-tracker/internal/domain"
)

// WorkItemRepository encapsulates work item persistence. Deleting an item
// cascades to its descendants through the self-referential parent FK.
type WorkItemRepository interface {
	Create(ctx context.Context, item *domain.WorkItem) error
	Update(ctx context.Context, item *domain.WorkItem) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.WorkItem, error)
	GetByCode(ctx context.Context, code string) (*domain.WorkItem, error)
	ListByProject(ctx context.Context, projectID string) ([]domain.WorkItem, error)
	ListAll(ctx context.Context, projectID *string) ([]domain.WorkItem, error)
	ListOwnerScope(ctx context.Context, userID string, projectID *string) ([]domain.WorkItem, error)
	ListContributorScope(ctx context.Context, userID string, projectID *string) ([]domain.WorkItem, error)
	ListChildren(ctx context.Context, parentID string) ([]domain.WorkItem, error)
	ListSummariesByTypes(ctx context.Context, projectID string, types []domain.IssueType) ([]domain.IssueSummary, error)
	HasAssignmentInProject(ctx context.Context, projectID, userID string) (bool, error)
	ListCodesByPrefix(ctx context.Context, prefix string) ([]string, error)
	AcquirePrefixLock(ctx context.Context, prefix string) error
}

type workItemRepository struct {
	db DB
}

// NewWorkItemRepository instantiates repository.
func NewWorkItemRepository(db DB) WorkItemRepository {
	return &workItemRepository{db: db}
}

const workItemColumns = `id, project_id, code, team_id, assignee_user_id, reviewer, title, description,
               issue_type, priority, status, parent_id, sprint_number, release_number,
               start_date, end_date, created_by, created_at, updated_at`

func (r *workItemRepository) Create(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        INSERT INTO work_items (project_id, code, team_id, assignee_user_id, reviewer, title, description,
                                issue_type, priority, status, parent_id, sprint_number, release_number,
                                start_date, end_date, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		item.ProjectID,
		item.Code,
		item.TeamID,
		item.AssigneeID,
		item.Reviewer,
		item.Title,
		item.Description,
		item.IssueType,
		item.Priority,
		item.Status,
		item.ParentID,
		item.SprintNumber,
		item.ReleaseNumber,
		item.StartDate,
		item.EndDate,
		item.CreatedBy,
	).Scan(&item.ID, &item.CreatedAt, &item.UpdatedAt)
}

// Update writes every mutable column. ProjectID and Code are immutable after
// creation and deliberately absent.
func (r *workItemRepository) Update(ctx context.Context, item *domain.WorkItem) error {
	const query = `
        UPDATE work_items SET team_id=$1, assignee_user_id=$2, reviewer=$3, title=$4, description=$5,
            issue_type=$6, priority=$7, status=$8, parent_id=$9, sprint_number=$10, release_number=$11,
            start_date=$12, end_date=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.db.Exec(ctx, query,
		item.TeamID,
		item.AssigneeID,
		item.Reviewer,
		item.Title,
		item.Description,
		item.IssueType,
		item.Priority,
		item.Status,
		item.ParentID,
		item.SprintNumber,
		item.ReleaseNumber,
		item.StartDate,
		item.EndDate,
		item.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workItemRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM work_items WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workItemRepository) GetByID(ctx context.Context, id string) (*domain.WorkItem, error) {
	return r.fetchSingle(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE id=$1`, id)
}

func (r *workItemRepository) GetByCode(ctx context.Context, code string) (*domain.WorkItem, error) {
	return r.fetchSingle(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE code=$1`, code)
}

func (r *workItemRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.WorkItem, error) {
	var item domain.WorkItem
	if err := r.db.QueryRow(ctx, query, arg).Scan(scanTargets(&item)...); err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *workItemRepository) ListByProject(ctx context.Context, projectID string) ([]domain.WorkItem, error) {
	return r.list(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE project_id=$1 ORDER BY code ASC`, projectID)
}

// ListAll returns every work item, optionally narrowed to one project. Used
// for admins and the master admin, whose reach is unscoped.
func (r *workItemRepository) ListAll(ctx context.Context, projectID *string) ([]domain.WorkItem, error) {
	if projectID != nil {
		return r.ListByProject(ctx, *projectID)
	}
	return r.list(ctx, `SELECT `+workItemColumns+` FROM work_items ORDER BY code ASC`)
}

// ListOwnerScope narrows to projects the user owns (ADMIN view mode).
func (r *workItemRepository) ListOwnerScope(ctx context.Context, userID string, projectID *string) ([]domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items
        WHERE project_id IN (SELECT id FROM projects WHERE owner_user_id=$1)`
	args := []any{userID}
	if projectID != nil {
		args = append(args, *projectID)
		query += fmt.Sprintf(" AND project_id=$%d", len(args))
	}
	return r.list(ctx, query+" ORDER BY code ASC", args...)
}

// ListContributorScope narrows to items reachable as assignee, team member,
// team lead, or contributor elsewhere in the same project (DEVELOPER mode).
func (r *workItemRepository) ListContributorScope(ctx context.Context, userID string, projectID *string) ([]domain.WorkItem, error) {
	query := `SELECT ` + workItemColumns + ` FROM work_items w
        WHERE (w.assignee_user_id=$1
           OR w.team_id IN (SELECT team_id FROM team_members WHERE user_id=$1)
           OR w.project_id IN (SELECT project_id FROM teams WHERE lead_user_id=$1)
           OR w.project_id IN (SELECT DISTINCT project_id FROM work_items WHERE assignee_user_id=$1))`
	args := []any{userID}
	if projectID != nil {
		args = append(args, *projectID)
		query += fmt.Sprintf(" AND w.project_id=$%d", len(args))
	}
	return r.list(ctx, query+" ORDER BY w.code ASC", args...)
}

func (r *workItemRepository) ListChildren(ctx context.Context, parentID string) ([]domain.WorkItem, error) {
	return r.list(ctx, `SELECT `+workItemColumns+` FROM work_items WHERE parent_id=$1 ORDER BY code ASC`, parentID)
}

func (r *workItemRepository) ListSummariesByTypes(ctx context.Context, projectID string, types []domain.IssueType) ([]domain.IssueSummary, error) {
	if len(types) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(types))
	args := []any{projectID}
	for i, t := range types {
		args = append(args, t)
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}
	query := fmt.Sprintf(`
        SELECT id, code, title, issue_type, status FROM work_items
        WHERE project_id=$1 AND issue_type IN (%s) ORDER BY code ASC`, strings.Join(placeholders, ","))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssueSummary
	for rows.Next() {
		var summary domain.IssueSummary
		if err := rows.Scan(&summary.ID, &summary.Code, &summary.Title, &summary.IssueType, &summary.Status); err != nil {
			return nil, err
		}
		result = append(result, summary)
	}
	return result, rows.Err()
}

func (r *workItemRepository) HasAssignmentInProject(ctx context.Context, projectID, userID string) (bool, error) {
	const query = `SELECT COUNT(1) FROM work_items WHERE project_id=$1 AND assignee_user_id=$2`
	var count int
	if err := r.db.QueryRow(ctx, query, projectID, userID).Scan(&count); err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *workItemRepository) ListCodesByPrefix(ctx context.Context, prefix string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT code FROM work_items WHERE code LIKE $1 || '-%'`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, err
		}
		codes = append(codes, code)
	}
	return codes, rows.Err()
}

// AcquirePrefixLock takes a transaction-scoped advisory lock on the prefix,
// serializing concurrent code allocations. Released on commit or rollback.
func (r *workItemRepository) AcquirePrefixLock(ctx context.Context, prefix string) error {
	_, err := r.db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, prefix)
	return err
}

func (r *workItemRepository) list(ctx context.Context, query string, args ...any) ([]domain.WorkItem, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkItems(rows)
}

func scanTargets(item *domain.WorkItem) []any {
	return []any{
		&item.ID,
		&item.ProjectID,
		&item.Code,
		&item.TeamID,
		&item.AssigneeID,
		&item.Reviewer,
		&item.Title,
		&item.Description,
		&item.IssueType,
		&item.Priority,
		&item.Status,
		&item.ParentID,
		&item.SprintNumber,
		&item.ReleaseNumber,
		&item.StartDate,
		&item.EndDate,
		&item.CreatedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	}
}

func scanWorkItems(rows pgx.Rows) ([]domain.WorkItem, error) {
	var result []domain.WorkItem
	for rows.Next() {
		var item domain.WorkItem
		if err := rows.Scan(scanTargets(&item)...); err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	return result, rows.Err()
}
