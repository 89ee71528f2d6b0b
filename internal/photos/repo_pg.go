package photos

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const photoColumns = `id, user_id, ocr_status, extracted_text, ocr_error, analysis_status, analysis_error, created_at, updated_at`

// Create inserts a new photo.
func (r *PGRepo) Create(ctx context.Context, photo Photo) error {
	const query = `
INSERT INTO photos (id, user_id, ocr_status, extracted_text, ocr_error, analysis_status, analysis_error, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	status := photo.AnalysisStatus
	if status == "" {
		status = AnalysisPending
	}
	_, err := r.DB.ExecContext(ctx, query,
		photo.ID,
		photo.UserID,
		photo.OCRStatus,
		photo.ExtractedText,
		photo.OCRError,
		status,
		photo.AnalysisError,
		photo.CreatedAt,
	)
	return err
}

// GetByID returns a photo owned by the user.
func (r *PGRepo) GetByID(ctx context.Context, userID, photoID string) (Photo, error) {
	const query = `
SELECT ` + photoColumns + `
FROM photos
WHERE id = $1 AND user_id = $2
LIMIT 1`
	photo, err := scanPhoto(r.DB.QueryRowContext(ctx, query, photoID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Photo{}, ErrNotFound
		}
		return Photo{}, err
	}
	return photo, nil
}

// ListByUser returns the user's photos, newest first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string) ([]Photo, error) {
	const query = `
SELECT ` + photoColumns + `
FROM photos
WHERE user_id = $1
ORDER BY created_at DESC`
	return r.queryPhotos(ctx, query, userID)
}

// ListAnalysisCandidates returns analysis-eligible photos, newest first.
func (r *PGRepo) ListAnalysisCandidates(ctx context.Context, userID string) ([]Photo, error) {
	const query = `
SELECT ` + photoColumns + `
FROM photos
WHERE user_id = $1
  AND ocr_status = 'done'
  AND extracted_text <> ''
  AND analysis_status IN ('pending', 'queued', 'error')
ORDER BY created_at DESC`
	return r.queryPhotos(ctx, query, userID)
}

// SetAnalysisStatus advances a photo's analysis status.
func (r *PGRepo) SetAnalysisStatus(ctx context.Context, photoID, status, errorMessage string) error {
	const query = `
UPDATE photos
SET analysis_status = $1,
    analysis_error = $2,
    updated_at = now()
WHERE id = $3`
	res, err := r.DB.ExecContext(ctx, query, status, errorMessage, photoID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepo) queryPhotos(ctx context.Context, query string, args ...any) ([]Photo, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, photo)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (Photo, error) {
	var p Photo
	var extractedText sql.NullString
	var ocrError sql.NullString
	var analysisError sql.NullString
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.OCRStatus,
		&extractedText,
		&ocrError,
		&p.AnalysisStatus,
		&analysisError,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return Photo{}, err
	}
	if extractedText.Valid {
		p.ExtractedText = extractedText.String
	}
	if ocrError.Valid {
		p.OCRError = ocrError.String
	}
	if analysisError.Valid {
		p.AnalysisError = analysisError.String
	}
	return p, nil
}

var _ Repo = (*PGRepo)(nil)
