package generatedcvs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, owner_id, full_name, variant, keywords, warnings,
    docx_key, docx_file_name, docx_size_bytes,
    pdf_key, pdf_file_name, pdf_size_bytes,
    jd_key, jd_file_name, jd_size_bytes,
    conversion_error, created_at`

// Create inserts a generated CV.
func (r *PGRepo) Create(ctx context.Context, cv GeneratedCV) error {
	keywords, err := json.Marshal(nonNil(cv.Keywords))
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}
	warnings, err := json.Marshal(nonNil(cv.Warnings))
	if err != nil {
		return fmt.Errorf("marshal warnings: %w", err)
	}

	const query = `
INSERT INTO generated_cvs (
    id, owner_id, full_name, variant, keywords, warnings,
    docx_key, docx_file_name, docx_size_bytes,
    pdf_key, pdf_file_name, pdf_size_bytes,
    jd_key, jd_file_name, jd_size_bytes,
    conversion_error, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`
	_, err = r.DB.ExecContext(ctx, query,
		cv.ID,
		cv.OwnerID,
		cv.FullName,
		cv.Variant,
		keywords,
		warnings,
		cv.DOCX.StorageKey,
		cv.DOCX.FileName,
		cv.DOCX.SizeBytes,
		cv.PDF.StorageKey,
		cv.PDF.FileName,
		cv.PDF.SizeBytes,
		cv.JobDescription.StorageKey,
		cv.JobDescription.FileName,
		cv.JobDescription.SizeBytes,
		cv.ConversionError,
		cv.CreatedAt,
	)
	return err
}

// GetByID returns a generated CV by ID for an owner.
func (r *PGRepo) GetByID(ctx context.Context, ownerID, id string) (GeneratedCV, error) {
	query := `
SELECT ` + selectColumns + `
FROM generated_cvs
WHERE id = $1 AND deleted_at IS NULL
LIMIT 1`
	cv, err := scanGeneratedCV(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GeneratedCV{}, ErrNotFound
		}
		return GeneratedCV{}, err
	}
	if cv.OwnerID != ownerID {
		return GeneratedCV{}, ErrForbidden
	}
	return cv, nil
}

// ListByOwner lists generated CVs ordered newest-first.
func (r *PGRepo) ListByOwner(ctx context.Context, ownerID string, limit, offset int) ([]GeneratedCV, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT ` + selectColumns + `
FROM generated_cvs
WHERE owner_id = $1 AND deleted_at IS NULL
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []GeneratedCV{}
	for rows.Next() {
		cv, err := scanGeneratedCV(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cv)
	}
	return out, rows.Err()
}

// SoftDelete sets deleted_at on the owner's live record.
func (r *PGRepo) SoftDelete(ctx context.Context, ownerID, id string, at time.Time) error {
	const query = `
UPDATE generated_cvs
SET deleted_at = $3
WHERE id = $1 AND owner_id = $2 AND deleted_at IS NULL`
	res, err := r.DB.ExecContext(ctx, query, id, ownerID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneratedCV(row rowScanner) (GeneratedCV, error) {
	var (
		cv                 GeneratedCV
		keywords, warnings []byte
	)
	if err := row.Scan(
		&cv.ID,
		&cv.OwnerID,
		&cv.FullName,
		&cv.Variant,
		&keywords,
		&warnings,
		&cv.DOCX.StorageKey,
		&cv.DOCX.FileName,
		&cv.DOCX.SizeBytes,
		&cv.PDF.StorageKey,
		&cv.PDF.FileName,
		&cv.PDF.SizeBytes,
		&cv.JobDescription.StorageKey,
		&cv.JobDescription.FileName,
		&cv.JobDescription.SizeBytes,
		&cv.ConversionError,
		&cv.CreatedAt,
	); err != nil {
		return GeneratedCV{}, err
	}
	if err := json.Unmarshal(keywords, &cv.Keywords); err != nil {
		return GeneratedCV{}, fmt.Errorf("decode keywords: %w", err)
	}
	if err := json.Unmarshal(warnings, &cv.Warnings); err != nil {
		return GeneratedCV{}, fmt.Errorf("decode warnings: %w", err)
	}
	return cv, nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

var _ Repo = (*PGRepo)(nil)
