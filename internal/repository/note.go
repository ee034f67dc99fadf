package repository

import (
	"context"
	"fmt"

	"lovehour-backend/internal/models"
)

// NoteCap is the maximum number of entries a pair's note board keeps.
const NoteCap = 10

// NoteRepository handles database operations for shared notes
type NoteRepository struct {
	db DB
}

// NewNoteRepository creates a new note repository
func NewNoteRepository(db DB) *NoteRepository {
	return &NoteRepository{db: db}
}

// Create inserts a note and evicts the oldest entries beyond the cap in
// the same transaction.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin note transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO notes (id, pair_key, author_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = tx.Exec(ctx, query,
		note.ID, note.PairKey, note.AuthorID, note.Body, note.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create note: %w", err)
	}

	evict := `
		DELETE FROM notes
		WHERE id IN (
			SELECT id FROM notes
			WHERE pair_key = $1
			ORDER BY created_at DESC, id
			OFFSET $2
		)
	`
	if _, err := tx.Exec(ctx, evict, note.PairKey, NoteCap); err != nil {
		return fmt.Errorf("failed to evict old notes: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit note transaction: %w", err)
	}
	return nil
}

// GetByPairKey retrieves a pair's notes, newest first.
func (r *NoteRepository) GetByPairKey(ctx context.Context, pairKey string) ([]*models.Note, error) {
	query := `
		SELECT id, pair_key, author_id, body, created_at
		FROM notes
		WHERE pair_key = $1
		ORDER BY created_at DESC, id
	`
	rows, err := r.db.Query(ctx, query, pairKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get notes: %w", err)
	}
	defer rows.Close()

	var notes []*models.Note
	for rows.Next() {
		var note models.Note
		err := rows.Scan(&note.ID, &note.PairKey, &note.AuthorID, &note.Body, &note.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan note: %w", err)
		}
		notes = append(notes, &note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notes: %w", err)
	}

	return notes, nil
}
