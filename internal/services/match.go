package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"lovehour-backend/internal/models"
	"lovehour-backend/internal/repository"
)

// ErrSelfMatch is returned when a user submits their own friend code.
var ErrSelfMatch = errors.New("cannot match with yourself")

// MatchService handles mutual matching between two users
type MatchService struct {
	userRepo *repository.UserRepository
}

// NewMatchService creates a new match service
func NewMatchService(userRepo *repository.UserRepository) *MatchService {
	return &MatchService{userRepo: userRepo}
}

// validateMatch applies the pre-conditions the match transaction also
// re-checks under lock.
func validateMatch(userID string, partner *models.User) error {
	if partner.ID == userID {
		return ErrSelfMatch
	}
	if partner.PartnerID != nil {
		return repository.ErrPartnerTaken
	}
	return nil
}

// Match pairs the user with the owner of partnerCode. Both user rows end
// up referencing each other, or neither changes.
func (s *MatchService) Match(ctx context.Context, userID, partnerCode string) (*models.User, error) {
	code := strings.ToUpper(strings.TrimSpace(partnerCode))
	if len(code) != codeLength {
		return nil, fmt.Errorf("partner code must be %d characters: %w", codeLength, repository.ErrNotFound)
	}

	partner, err := s.userRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := validateMatch(userID, partner); err != nil {
		return nil, err
	}

	if err := s.userRepo.Match(ctx, userID, partner.ID); err != nil {
		return nil, err
	}

	partner.PartnerID = &userID
	return partner, nil
}

// Unmatch dissolves the user's match and returns the former partner.
func (s *MatchService) Unmatch(ctx context.Context, userID string) (*models.User, error) {
	partnerID, err := s.userRepo.Unmatch(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, partnerID)
}
