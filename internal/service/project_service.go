package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/pkg/errorutil"
)

// ProjectService manages project lifecycle. Archiving freezes every mutation
// under the project; reactivation is the one mutation an archived project
// accepts.
type ProjectService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(store repository.Store, logger *zap.Logger) *ProjectService {
	return &ProjectService{store: store, logger: logger}
}

// ProjectCreateInput describes project creation payload.
type ProjectCreateInput struct {
	Name   string
	Prefix string
}

// ProjectPatch carries partial project updates.
type ProjectPatch struct {
	Name   *string
	Prefix *string
}

// CreateProject creates a project owned by the actor. Admin roles only.
func (s *ProjectService) CreateProject(ctx context.Context, actor *domain.User, input ProjectCreateInput) (*domain.Project, error) {
	if !actor.IsMasterAdmin && actor.Role != domain.RoleAdmin {
		return nil, errorutil.NewPermissionDenied("Only Admins can create projects.")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errorutil.NewValidationError("project name is required", nil)
	}
	project := &domain.Project{
		Name:     name,
		Prefix:   strings.ToUpper(strings.TrimSpace(input.Prefix)),
		OwnerID:  &actor.ID,
		IsActive: true,
	}
	if err := s.store.Projects().Create(ctx, project); err != nil {
		return nil, err
	}
	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("owner_id", actor.ID))
	return project, nil
}

// UpdateProject renames a project or changes its code prefix. Existing issue
// codes keep the prefix they were allocated under.
func (s *ProjectService) UpdateProject(ctx context.Context, actor *domain.User, projectID string, patch ProjectPatch) (*domain.Project, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !s.canManage(actor, project) {
		return nil, errorutil.NewPermissionDenied("Only Admins or the project owner can modify this project.")
	}
	if !project.IsActive {
		return nil, errorutil.NewProjectInactive()
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, errorutil.NewValidationError("project name is required", nil)
		}
		project.Name = name
	}
	if patch.Prefix != nil {
		project.Prefix = strings.ToUpper(strings.TrimSpace(*patch.Prefix))
	}
	if err := s.store.Projects().Update(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}

// ArchiveProject deactivates a project.
func (s *ProjectService) ArchiveProject(ctx context.Context, actor *domain.User, projectID string) error {
	return s.setActive(ctx, actor, projectID, false)
}

// ReactivateProject restores an archived project.
func (s *ProjectService) ReactivateProject(ctx context.Context, actor *domain.User, projectID string) error {
	return s.setActive(ctx, actor, projectID, true)
}

func (s *ProjectService) setActive(ctx context.Context, actor *domain.User, projectID string, active bool) error {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return err
	}
	if !s.canManage(actor, project) {
		return errorutil.NewPermissionDenied("Only Admins or the project owner can modify this project.")
	}
	if project.IsActive == active {
		return nil
	}
	if err := s.store.Projects().SetActive(ctx, projectID, active); err != nil {
		return err
	}
	s.logger.Info("project active flag changed",
		zap.String("project_id", projectID),
		zap.Bool("active", active),
		zap.String("actor_id", actor.ID))
	return nil
}

// GetProject returns a project with its teams.
func (s *ProjectService) GetProject(ctx context.Context, actor *domain.User, projectID string) (*domain.Project, []domain.Team, error) {
	project, err := s.getProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	teams, err := s.store.Teams().ListByProject(ctx, projectID)
	if err != nil {
		return nil, nil, err
	}
	return project, teams, nil
}

// ListProjects returns the projects visible under the actor's view mode.
func (s *ProjectService) ListProjects(ctx context.Context, actor *domain.User) ([]domain.Project, error) {
	projects := s.store.Projects()
	if actor.IsMasterAdmin || actor.Role == domain.RoleAdmin {
		return projects.List(ctx)
	}
	if actor.EffectiveViewMode() == domain.ViewModeAdmin {
		return projects.ListOwnedBy(ctx, actor.ID)
	}
	return projects.ListForContributor(ctx, actor.ID)
}

func (s *ProjectService) getProject(ctx context.Context, projectID string) (*domain.Project, error) {
	project, err := s.store.Projects().GetByID(ctx, projectID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewNotFound("Project", nil)
	}
	return project, err
}

func (s *ProjectService) canManage(actor *domain.User, project *domain.Project) bool {
	if actor.IsMasterAdmin || actor.Role == domain.RoleAdmin {
		return true
	}
	return project.OwnerID != nil && *project.OwnerID == actor.ID
}
