package repository

import (
	"context"
	"errors"
	"fmt"

	"lovehour-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// PhotoRepository handles database operations for photos
type PhotoRepository struct {
	db DB
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db DB) *PhotoRepository {
	return &PhotoRepository{db: db}
}

// Create inserts a photo and stamps the owner's last upload time in the
// same transaction, so the upload gate and the feed can never disagree.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin photo transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO photos (id, user_id, s3_key, caption, taken_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = tx.Exec(ctx, query,
		photo.ID, photo.UserID, photo.S3Key, photo.Caption, photo.TakenAt, photo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}

	_, err = tx.Exec(ctx, `UPDATE users SET last_upload_at = $1 WHERE id = $2`,
		photo.CreatedAt, photo.UserID)
	if err != nil {
		return fmt.Errorf("failed to stamp last upload time: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit photo transaction: %w", err)
	}
	return nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.Photo, error) {
	query := `
		SELECT id, user_id, s3_key, caption, taken_at, created_at
		FROM photos
		WHERE id = $1
	`
	var photo models.Photo
	err := r.db.QueryRow(ctx, query, id).Scan(
		&photo.ID, &photo.UserID, &photo.S3Key, &photo.Caption,
		&photo.TakenAt, &photo.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return &photo, nil
}

// GetFeed retrieves the merged photo feed for the given users, newest
// first, with pagination.
func (r *PhotoRepository) GetFeed(ctx context.Context, userIDs []string, limit, offset int) ([]*models.Photo, int, error) {
	countQuery := `SELECT COUNT(*) FROM photos WHERE user_id = ANY($1)`
	var total int
	err := r.db.QueryRow(ctx, countQuery, userIDs).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count photos: %w", err)
	}

	query := `
		SELECT id, user_id, s3_key, caption, taken_at, created_at
		FROM photos
		WHERE user_id = ANY($1)
		ORDER BY taken_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.db.Query(ctx, query, userIDs, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.Photo
	for rows.Next() {
		var photo models.Photo
		err := rows.Scan(
			&photo.ID, &photo.UserID, &photo.S3Key, &photo.Caption,
			&photo.TakenAt, &photo.CreatedAt,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, &photo)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating photos: %w", err)
	}

	return photos, total, nil
}
