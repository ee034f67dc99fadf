package repository

import (
	"context"
	"errors"
	"fmt"

	"lovehour-backend/internal/models"

	"github.com/jackc/pgx/v5"
)

// Errors surfaced by repositories so handlers can map them to status codes.
var (
	ErrNotFound       = errors.New("not found")
	ErrAlreadyMatched = errors.New("user already has a partner")
	ErrPartnerTaken   = errors.New("partner already has a partner")
	ErrNotMatched     = errors.New("user has no partner")
)

const userColumns = `id, name, code, partner_id, awake, last_upload_at, interval_hours, tos_accepted, push_token, created_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	err := row.Scan(
		&user.ID, &user.Name, &user.Code, &user.PartnerID, &user.Awake,
		&user.LastUploadAt, &user.IntervalHours, &user.TOSAccepted,
		&user.PushToken, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, code, awake, interval_hours, tos_accepted, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Code, user.Awake, user.IntervalHours,
		user.TOSAccepted, user.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, id))
}

// GetByCode retrieves a user by friend code
func (r *UserRepository) GetByCode(ctx context.Context, code string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE code = $1`
	return scanUser(r.db.QueryRow(ctx, query, code))
}

// CodeExists checks if a friend code already exists
func (r *UserRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE code = $1)`
	var exists bool
	err := r.db.QueryRow(ctx, query, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return exists, nil
}

// UpdateProfile updates the mutable profile fields of a user
func (r *UserRepository) UpdateProfile(ctx context.Context, userID, name string, awake bool, intervalHours int, tosAccepted bool) error {
	query := `
		UPDATE users
		SET name = $1, awake = $2, interval_hours = $3, tos_accepted = $4
		WHERE id = $5
	`
	result, err := r.db.Exec(ctx, query, name, awake, intervalHours, tosAccepted, userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1 WHERE id = $2`
	_, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

// Match sets both users' partner references inside one transaction.
// Either both rows end up pointing at each other or neither changes.
func (r *UserRepository) Match(ctx context.Context, userID, partnerID string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin match transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock both rows in a consistent order to avoid deadlocks.
	first, second := userID, partnerID
	if second < first {
		first, second = second, first
	}

	partners := map[string]*string{}
	for _, id := range []string{first, second} {
		var partner *string
		err := tx.QueryRow(ctx, `SELECT partner_id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&partner)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("failed to lock user row: %w", err)
		}
		partners[id] = partner
	}

	if partners[userID] != nil {
		return ErrAlreadyMatched
	}
	if partners[partnerID] != nil {
		return ErrPartnerTaken
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET partner_id = $1 WHERE id = $2`, partnerID, userID); err != nil {
		return fmt.Errorf("failed to set partner reference: %w", err)
	}
	if _, err := tx.Exec(ctx, `UPDATE users SET partner_id = $1 WHERE id = $2`, userID, partnerID); err != nil {
		return fmt.Errorf("failed to set partner back-reference: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit match transaction: %w", err)
	}
	return nil
}

// Unmatch clears both partner references inside one transaction and
// returns the former partner's ID.
func (r *UserRepository) Unmatch(ctx context.Context, userID string) (string, error) {
	var partner *string
	err := r.db.QueryRow(ctx, `SELECT partner_id FROM users WHERE id = $1`, userID).Scan(&partner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to read partner reference: %w", err)
	}
	if partner == nil {
		return "", ErrNotMatched
	}
	partnerID := *partner

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to begin unmatch transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	first, second := userID, partnerID
	if second < first {
		first, second = second, first
	}
	for _, id := range []string{first, second} {
		if _, err := tx.Exec(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
			return "", fmt.Errorf("failed to lock user row: %w", err)
		}
	}

	// Re-check under lock: a concurrent unmatch may have won.
	var current *string
	if err := tx.QueryRow(ctx, `SELECT partner_id FROM users WHERE id = $1`, userID).Scan(&current); err != nil {
		return "", fmt.Errorf("failed to re-read partner reference: %w", err)
	}
	if current == nil || *current != partnerID {
		return "", ErrNotMatched
	}

	if _, err := tx.Exec(ctx, `UPDATE users SET partner_id = NULL WHERE id = $1 OR id = $2`, userID, partnerID); err != nil {
		return "", fmt.Errorf("failed to clear partner references: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("failed to commit unmatch transaction: %w", err)
	}
	return partnerID, nil
}

// GetPendingUnlocks returns users whose upload gate is still closed, so
// unlock timers can be re-armed after a restart.
func (r *UserRepository) GetPendingUnlocks(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE last_upload_at IS NOT NULL
		  AND last_upload_at + interval_hours * INTERVAL '1 hour' > now()
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending unlocks: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	return users, nil
}
