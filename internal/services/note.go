package services

import (
	"context"
	"errors"
	"time"

	"lovehour-backend/internal/models"
	"lovehour-backend/internal/repository"

	"github.com/google/uuid"
)

const maxNoteLen = 500

// ErrNoteTooLong is returned when a note body exceeds the limit.
var ErrNoteTooLong = errors.New("note body is too long")

// NoteService handles the shared note board of a matched pair
type NoteService struct {
	noteRepo *repository.NoteRepository
	userRepo *repository.UserRepository
}

// NewNoteService creates a new note service
func NewNoteService(noteRepo *repository.NoteRepository, userRepo *repository.UserRepository) *NoteService {
	return &NoteService{
		noteRepo: noteRepo,
		userRepo: userRepo,
	}
}

// List returns the pair's notes, newest first.
func (s *NoteService) List(ctx context.Context, userID string) ([]*models.Note, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.PartnerID == nil {
		return nil, repository.ErrNotMatched
	}
	return s.noteRepo.GetByPairKey(ctx, PairKey(userID, *user.PartnerID))
}

// Add appends a note to the pair's board, evicting the oldest entry once
// the board is full. Returns the note and the partner's ID.
func (s *NoteService) Add(ctx context.Context, userID, body string) (*models.Note, string, error) {
	if len(body) > maxNoteLen {
		return nil, "", ErrNoteTooLong
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user.PartnerID == nil {
		return nil, "", repository.ErrNotMatched
	}

	note := &models.Note{
		ID:        uuid.New().String(),
		PairKey:   PairKey(userID, *user.PartnerID),
		AuthorID:  userID,
		Body:      body,
		CreatedAt: time.Now(),
	}

	if err := s.noteRepo.Create(ctx, note); err != nil {
		return nil, "", err
	}
	return note, *user.PartnerID, nil
}
