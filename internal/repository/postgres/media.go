package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"trackroom/internal/domain/media"
	apperrors "trackroom/pkg/errors"
)

const errMediaNotFound = "media not found"

type MediaRepository struct {
	db *DB
}

func NewMediaRepository(db *DB) *MediaRepository {
	return &MediaRepository{db: db}
}

func (r *MediaRepository) Create(ctx context.Context, input media.CreateMediaInput) (*media.Media, error) {
	query := `
		INSERT INTO media (project_id, title, description, storage_key, kind)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, project_id, title, description, storage_key, kind, uploaded_at
	`

	m := &media.Media{}
	err := r.db.Pool.QueryRow(ctx, query, input.ProjectID, input.Title, input.Description, input.StorageKey, input.Kind).Scan(
		&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.StorageKey, &m.Kind, &m.UploadedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, &apperrors.AppError{Code: "CONFLICT", Message: "media already exists for this storage key", Err: apperrors.ErrConflict}
		}
		return nil, fmt.Errorf("failed to create media record: %w", err)
	}

	return m, nil
}

func (r *MediaRepository) GetByID(ctx context.Context, id uuid.UUID) (*media.Media, error) {
	query := `
		SELECT id, project_id, title, description, storage_key, kind, uploaded_at
		FROM media WHERE id = $1
	`

	m := &media.Media{}
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.StorageKey, &m.Kind, &m.UploadedAt,
	)

	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NotFound(errMediaNotFound)
		}
		return nil, fmt.Errorf("failed to get media record: %w", err)
	}

	return m, nil
}

func (r *MediaRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]*media.Media, error) {
	query := `
		SELECT id, project_id, title, description, storage_key, kind, uploaded_at
		FROM media WHERE project_id = $1
		ORDER BY uploaded_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list media records: %w", err)
	}
	defer rows.Close()

	var records []*media.Media
	for rows.Next() {
		m := &media.Media{}
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Title, &m.Description, &m.StorageKey, &m.Kind, &m.UploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan media record: %w", err)
		}
		records = append(records, m)
	}

	return records, rows.Err()
}

// DeleteCascade removes the record together with its comments in a single
// transaction. The stored file is not touched here; storage cleanup is the
// deletion coordinator's best-effort step.
func (r *MediaRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE media_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comments: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM media WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete media record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.NotFound(errMediaNotFound)
	}

	return tx.Commit(ctx)
}
