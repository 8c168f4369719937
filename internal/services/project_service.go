package services

import (
	"context"

	"hoa-backend/internal/cache"
	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

type ProjectService struct {
	projects ProjectStore
	audit    AuditLogger
	cache    *cache.Cache
}

func NewProjectService(projects ProjectStore, audit AuditLogger, c *cache.Cache) *ProjectService {
	return &ProjectService{projects: projects, audit: audit, cache: c}
}

// GetProjects lists every project with its derived figures.
func (s *ProjectService) GetProjects(ctx context.Context) ([]*models.ProjectSummary, error) {
	projects, err := s.projects.List(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]*models.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		summaries = append(summaries, models.NewProjectSummary(p))
	}
	return summaries, nil
}

func (s *ProjectService) GetProject(ctx context.Context, id int) (*models.ProjectSummary, error) {
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return models.NewProjectSummary(p), nil
}

func (s *ProjectService) CreateProject(ctx context.Context, actor models.Actor, req models.ProjectRequest) (*models.ProjectSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	p := &models.Project{CreatedBy: actor.ID}
	if err := applyProjectRequest(p, req); err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = models.ProjectStatusPlanned
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, err
	}
	invalidateFinance(ctx, s.cache)
	return models.NewProjectSummary(p), nil
}

// UpdateProject rewrites a project if it still carries req.ExpectedVersion.
func (s *ProjectService) UpdateProject(ctx context.Context, actor models.Actor, id int, req models.ProjectRequest) (*models.ProjectSummary, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if req.ExpectedVersion == 0 {
		return nil, utils.NewValidationError("expected_version", "expected_version is required")
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := applyProjectRequest(p, req); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p, req.ExpectedVersion); err != nil {
		countConflict("project", err)
		return nil, err
	}
	invalidateFinance(ctx, s.cache)
	return models.NewProjectSummary(p), nil
}

func (s *ProjectService) DeleteProject(ctx context.Context, actor models.Actor, id int) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	p, err := s.projects.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.projects.Delete(ctx, id); err != nil {
		return err
	}
	audit(ctx, s.audit, actor, models.ActionProjectDelete, "project", id, "Deleted project "+p.Name)
	invalidateFinance(ctx, s.cache)
	return nil
}

func applyProjectRequest(p *models.Project, req models.ProjectRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return err
	}
	budget, err := parseOptionalAmount("budget", req.Budget)
	if err != nil {
		return err
	}
	allocated, err := parseOptionalAmount("funds_allocated", req.FundsAllocated)
	if err != nil {
		return err
	}
	spent, err := parseOptionalAmount("funds_spent", req.FundsSpent)
	if err != nil {
		return err
	}
	start, err := parseOptionalDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseOptionalDate("end_date", req.EndDate)
	if err != nil {
		return err
	}
	if start != nil && end != nil && end.Before(*start) {
		return utils.NewValidationError("end_date", "End date must not be before the start date")
	}

	p.Name = req.Name
	p.Description = req.Description
	p.Budget = budget
	// omitted amounts keep their stored value; contributions move funds_allocated
	if req.FundsAllocated != "" {
		p.FundsAllocated = allocated
	}
	if req.FundsSpent != "" {
		p.FundsSpent = spent
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	p.StartDate = start
	p.EndDate = end
	return nil
}
