package services

import (
	"context"

	"github.com/upb/task-tracker/models"
	"github.com/upb/task-tracker/repositories"
	"go.uber.org/zap"
)

const maxProjectNameLength = 100

// CreateProjectInput holds the fields of a new project
type CreateProjectInput struct {
	Name        string
	Description *string
	StartDate   *models.Date
	EndDate     *models.Date
	OwnerID     *int64
}

// ProjectPatch is a partial project update
type ProjectPatch struct {
	Name        Field[string]
	Description Field[string]
	StartDate   Field[models.Date]
	EndDate     Field[models.Date]
	OwnerID     Field[int64]
}

func (p ProjectPatch) changes() map[string]interface{} {
	changes := make(map[string]interface{})
	p.Name.apply(changes, "name")
	p.Description.apply(changes, "description")
	p.StartDate.apply(changes, "start_date")
	p.EndDate.apply(changes, "end_date")
	p.OwnerID.apply(changes, "owner_id")
	return changes
}

// ProjectService manages projects
type ProjectService struct {
	projects repositories.ProjectRepository
	logger   *zap.Logger
}

// NewProjectService creates a new ProjectService
func NewProjectService(projects repositories.ProjectRepository, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projects: projects,
		logger:   logger,
	}
}

// List returns every project ordered by ID
func (s *ProjectService) List(ctx context.Context) ([]*models.Project, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, translateRepoError(err, ErrProjectNotFound)
	}
	return projects, nil
}

// Get returns a single project
func (s *ProjectService) Get(ctx context.Context, id int64) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, translateRepoError(err, ErrProjectNotFound)
	}
	return project, nil
}

// Create stores a new project
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	if err := requireText("name", SetTo(input.Name), maxProjectNameLength); err != nil {
		return nil, err
	}

	project := models.NewProject(input.Name)
	project.Description = input.Description
	project.StartDate = input.StartDate
	project.EndDate = input.EndDate
	project.OwnerID = input.OwnerID

	if err := s.projects.Create(ctx, project); err != nil {
		return nil, translateRepoError(err, ErrProjectNotFound)
	}

	s.logger.Info("project created", zap.Int64("project_id", project.ID))
	return project, nil
}

// Update applies patch to the project
func (s *ProjectService) Update(ctx context.Context, id int64, patch ProjectPatch) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := requireText("name", patch.Name, maxProjectNameLength); err != nil {
		return err
	}

	if err := s.projects.Update(ctx, id, patch.changes()); err != nil {
		return translateRepoError(err, ErrProjectNotFound)
	}

	s.logger.Info("project updated", zap.Int64("project_id", id))
	return nil
}

// Delete removes the project; its tasks are detached
func (s *ProjectService) Delete(ctx context.Context, id int64) error {
	if err := s.projects.Delete(ctx, id); err != nil {
		return translateRepoError(err, ErrProjectNotFound)
	}

	s.logger.Info("project deleted", zap.Int64("project_id", id))
	return nil
}
