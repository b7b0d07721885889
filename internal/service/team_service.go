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

// TeamService manages teams and their memberships. Team mutations obey the
// same inactive-project freeze as issue mutations.
type TeamService struct {
	store  repository.Store
	logger *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(store repository.Store, logger *zap.Logger) *TeamService {
	return &TeamService{store: store, logger: logger}
}

// TeamCreateInput describes team creation payload.
type TeamCreateInput struct {
	ProjectID string
	Name      string
	LeadID    *string
	MemberIDs []string
}

// TeamPatch carries partial team updates. MemberIDs, when present, replaces
// the full membership.
type TeamPatch struct {
	Name      *string
	LeadID    *string
	MemberIDs []string
}

// CreateTeam creates a team under a project. Admins and the project owner
// only.
func (s *TeamService) CreateTeam(ctx context.Context, actor *domain.User, input TeamCreateInput) (*domain.Team, error) {
	var team *domain.Team
	err := s.store.InTx(ctx, func(st repository.Store) error {
		project, err := st.Projects().GetByID(ctx, input.ProjectID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Project", nil)
		}
		if err != nil {
			return err
		}
		if !s.canManageProject(actor, project) {
			return errorutil.NewPermissionDenied("Only Admins or the project owner can manage teams.")
		}
		if !project.IsActive {
			return errorutil.NewProjectInactive()
		}
		name := strings.TrimSpace(input.Name)
		if name == "" {
			return errorutil.NewValidationError("team name is required", nil)
		}
		if input.LeadID != nil {
			if err := s.checkUserExists(ctx, st, *input.LeadID); err != nil {
				return err
			}
		}
		team = &domain.Team{
			ProjectID: project.ID,
			Name:      name,
			LeadID:    input.LeadID,
			MemberIDs: withLead(input.MemberIDs, input.LeadID),
		}
		return st.Teams().Create(ctx, team)
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// UpdateTeam renames a team, changes its lead, or replaces its membership.
// Admins, the project owner, or the current team lead.
func (s *TeamService) UpdateTeam(ctx context.Context, actor *domain.User, teamID string, patch TeamPatch) (*domain.Team, error) {
	var team *domain.Team
	err := s.store.InTx(ctx, func(st repository.Store) error {
		var err error
		team, err = st.Teams().GetByID(ctx, teamID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Team", nil)
		}
		if err != nil {
			return err
		}
		project, err := st.Projects().GetByID(ctx, team.ProjectID)
		if err != nil {
			return err
		}
		if !s.canManageProject(actor, project) && !team.IsLead(actor.ID) {
			return errorutil.NewPermissionDenied("Only Admins, the project owner, or the team lead can modify this team.")
		}
		if !project.IsActive {
			return errorutil.NewProjectInactive()
		}
		if patch.Name != nil {
			name := strings.TrimSpace(*patch.Name)
			if name == "" {
				return errorutil.NewValidationError("team name is required", nil)
			}
			team.Name = name
		}
		if patch.LeadID != nil {
			if *patch.LeadID == "" {
				team.LeadID = nil
			} else {
				if err := s.checkUserExists(ctx, st, *patch.LeadID); err != nil {
					return err
				}
				team.LeadID = patch.LeadID
			}
		}
		if err := st.Teams().Update(ctx, team); err != nil {
			return err
		}
		if patch.MemberIDs != nil {
			team.MemberIDs = withLead(patch.MemberIDs, team.LeadID)
			return st.Teams().ReplaceMembers(ctx, team.ID, team.MemberIDs)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

// DeleteTeam removes a team. Issues keep their rows; their team reference is
// cleared by the schema.
func (s *TeamService) DeleteTeam(ctx context.Context, actor *domain.User, teamID string) error {
	return s.store.InTx(ctx, func(st repository.Store) error {
		team, err := st.Teams().GetByID(ctx, teamID)
		if errors.Is(err, pgx.ErrNoRows) {
			return errorutil.NewNotFound("Team", nil)
		}
		if err != nil {
			return err
		}
		project, err := st.Projects().GetByID(ctx, team.ProjectID)
		if err != nil {
			return err
		}
		if !s.canManageProject(actor, project) {
			return errorutil.NewPermissionDenied("Only Admins or the project owner can manage teams.")
		}
		if !project.IsActive {
			return errorutil.NewProjectInactive()
		}
		s.logger.Info("team deleted",
			zap.String("team_id", teamID),
			zap.String("actor_id", actor.ID))
		return st.Teams().Delete(ctx, teamID)
	})
}

// GetTeam fetches one team with its membership.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*domain.Team, error) {
	team, err := s.store.Teams().GetByID(ctx, teamID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, errorutil.NewNotFound("Team", nil)
	}
	return team, err
}

// ListTeams lists teams under a project.
func (s *TeamService) ListTeams(ctx context.Context, projectID string) ([]domain.Team, error) {
	return s.store.Teams().ListByProject(ctx, projectID)
}

func (s *TeamService) canManageProject(actor *domain.User, project *domain.Project) bool {
	if actor.IsMasterAdmin || actor.Role == domain.RoleAdmin {
		return true
	}
	return project.OwnerID != nil && *project.OwnerID == actor.ID
}

func (s *TeamService) checkUserExists(ctx context.Context, st repository.Store, userID string) error {
	_, err := st.Users().GetByID(ctx, userID)
	if errors.Is(err, pgx.ErrNoRows) {
		return errorutil.NewNotFound("User", nil)
	}
	return err
}

// withLead ensures the lead is always part of the membership list.
func withLead(memberIDs []string, leadID *string) []string {
	result := make([]string, 0, len(memberIDs)+1)
	seen := make(map[string]struct{}, len(memberIDs)+1)
	for _, id := range memberIDs {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	if leadID != nil && *leadID != "" {
		if _, dup := seen[*leadID]; !dup {
			result = append(result, *leadID)
		}
	}
	return result
}
