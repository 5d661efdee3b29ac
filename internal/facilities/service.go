package facilities

import (
	"context"
	"fmt"
	"strings"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Service contains facility business rules.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries facility create/update fields.
type Input struct {
	Name        string
	Summary     string
	Description string
	Location    string
}

func (s *Service) List(ctx context.Context) ([]Facility, error) {
	return s.repo.List(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Facility, error) {
	return s.repo.Find(ctx, id)
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (*Facility, error) {
	return s.repo.FindBySlug(ctx, slug)
}

func (s *Service) Create(ctx context.Context, in Input) (*Facility, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	f := &Facility{
		Name:        name,
		Slug:        shared.Slugify(name),
		Summary:     strings.TrimSpace(in.Summary),
		Description: in.Description,
		Location:    strings.TrimSpace(in.Location),
	}
	id, err := s.repo.Create(ctx, f)
	if err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, id)
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Facility, error) {
	f, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if name != f.Name {
		f.Slug = shared.Slugify(name)
	}
	f.Name = name
	f.Summary = strings.TrimSpace(in.Summary)
	f.Description = in.Description
	f.Location = strings.TrimSpace(in.Location)
	if err := s.repo.Update(ctx, f); err != nil {
		return nil, err
	}
	return s.repo.Find(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}
