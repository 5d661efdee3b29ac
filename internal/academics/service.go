package academics

import (
	"context"
	"fmt"
	"strings"

	"github.com/LevyMwanawasaMedicalUniversity/lmmuwebsite-sub002/internal/shared"
)

// Service contains academics business rules.
type Service struct {
	repo Repository
}

// NewService builds a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SchoolInput carries school create/update fields.
type SchoolInput struct {
	Name        string
	Description string
}

// ProgrammeInput carries programme create/update fields.
type ProgrammeInput struct {
	SchoolID      int64
	Name          string
	Level         string
	DurationYears int
	Description   string
}

func (s *Service) ListSchools(ctx context.Context) ([]School, error) {
	return s.repo.ListSchools(ctx)
}

func (s *Service) GetSchool(ctx context.Context, id int64) (*School, error) {
	return s.repo.FindSchool(ctx, id)
}

func (s *Service) GetSchoolBySlug(ctx context.Context, slug string) (*School, error) {
	return s.repo.FindSchoolBySlug(ctx, slug)
}

func (s *Service) CreateSchool(ctx context.Context, in SchoolInput) (*School, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	school := &School{Name: name, Slug: shared.Slugify(name), Description: strings.TrimSpace(in.Description)}
	id, err := s.repo.CreateSchool(ctx, school)
	if err != nil {
		return nil, err
	}
	return s.repo.FindSchool(ctx, id)
}

func (s *Service) UpdateSchool(ctx context.Context, id int64, in SchoolInput) (*School, error) {
	school, err := s.repo.FindSchool(ctx, id)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if name != school.Name {
		school.Slug = shared.Slugify(name)
	}
	school.Name = name
	school.Description = strings.TrimSpace(in.Description)
	if err := s.repo.UpdateSchool(ctx, school); err != nil {
		return nil, err
	}
	return s.repo.FindSchool(ctx, id)
}

func (s *Service) DeleteSchool(ctx context.Context, id int64) error {
	return s.repo.DeleteSchool(ctx, id)
}

func (s *Service) ListProgrammes(ctx context.Context, schoolID int64) ([]Programme, error) {
	return s.repo.ListProgrammes(ctx, schoolID)
}

func (s *Service) GetProgramme(ctx context.Context, id int64) (*Programme, error) {
	return s.repo.FindProgramme(ctx, id)
}

func (s *Service) CreateProgramme(ctx context.Context, in ProgrammeInput) (*Programme, error) {
	if err := validateProgramme(in); err != nil {
		return nil, err
	}
	p := &Programme{
		SchoolID:      in.SchoolID,
		Name:          strings.TrimSpace(in.Name),
		Slug:          shared.Slugify(in.Name),
		Level:         in.Level,
		DurationYears: in.DurationYears,
		Description:   strings.TrimSpace(in.Description),
	}
	id, err := s.repo.CreateProgramme(ctx, p)
	if err != nil {
		return nil, err
	}
	return s.repo.FindProgramme(ctx, id)
}

func (s *Service) UpdateProgramme(ctx context.Context, id int64, in ProgrammeInput) (*Programme, error) {
	p, err := s.repo.FindProgramme(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateProgramme(in); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name != p.Name {
		p.Slug = shared.Slugify(name)
	}
	p.Name = name
	p.Level = in.Level
	p.DurationYears = in.DurationYears
	p.Description = strings.TrimSpace(in.Description)
	if err := s.repo.UpdateProgramme(ctx, p); err != nil {
		return nil, err
	}
	return s.repo.FindProgramme(ctx, id)
}

func (s *Service) DeleteProgramme(ctx context.Context, id int64) error {
	return s.repo.DeleteProgramme(ctx, id)
}

func validateProgramme(in ProgrammeInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	if !ValidLevel(in.Level) {
		return fmt.Errorf("%w: unknown programme level %q", shared.ErrValidation, in.Level)
	}
	if in.DurationYears <= 0 || in.DurationYears > 10 {
		return fmt.Errorf("%w: duration out of range", shared.ErrValidation)
	}
	return nil
}
