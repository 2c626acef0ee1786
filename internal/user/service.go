package user

import "context"

// Service provides user statistics.
type Service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Counts runs the total and active count queries. The first error is
// returned as is.
func (s *Service) Counts(ctx context.Context) (Counts, error) {
	total, err := s.repo.Count(ctx)
	if err != nil {
		return Counts{}, err
	}

	active, err := s.repo.CountActive(ctx)
	if err != nil {
		return Counts{}, err
	}

	return Counts{Total: total, Active: active}, nil
}
