package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// PGRepo implements Repo using Postgres. The result body and photo id list
// are stored as JSONB.
type PGRepo struct {
	DB *sql.DB
}

const reportColumns = `id, user_id, model, short_summary, result_json, photo_ids, created_at`

// Create inserts a new report.
func (r *PGRepo) Create(ctx context.Context, report *Report) error {
	const query = `
INSERT INTO analysis_reports (id, user_id, model, short_summary, result_json, photo_ids, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	resultJSON, err := json.Marshal(report.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	photoIDs, err := json.Marshal(report.PhotoIDs)
	if err != nil {
		return fmt.Errorf("marshal photo ids: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, query,
		report.ID,
		report.UserID,
		report.Model,
		report.ShortSummary,
		resultJSON,
		photoIDs,
		report.CreatedAt,
	)
	return err
}

// LatestByUser returns the user's most recent report.
func (r *PGRepo) LatestByUser(ctx context.Context, userID string) (*Report, error) {
	const query = `
SELECT ` + reportColumns + `
FROM analysis_reports
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT 1`
	report, err := scanReport(r.DB.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return report, nil
}

// ListAdminBlocks returns the admin block of every stored report.
func (r *PGRepo) ListAdminBlocks(ctx context.Context) ([]map[string]any, error) {
	const query = `SELECT result_json FROM analysis_reports`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var blocks []map[string]any
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var result map[string]any
		if err := json.Unmarshal(raw, &result); err != nil {
			continue
		}
		if admin, ok := result["admin"].(map[string]any); ok {
			blocks = append(blocks, admin)
		}
	}
	return blocks, rows.Err()
}

func scanReport(row rowScanner) (*Report, error) {
	var report Report
	var resultJSON []byte
	var photoIDs []byte
	err := row.Scan(
		&report.ID,
		&report.UserID,
		&report.Model,
		&report.ShortSummary,
		&resultJSON,
		&photoIDs,
		&report.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(resultJSON) > 0 {
		if err := json.Unmarshal(resultJSON, &report.Result); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
	}
	if len(photoIDs) > 0 {
		if err := json.Unmarshal(photoIDs, &report.PhotoIDs); err != nil {
			return nil, fmt.Errorf("unmarshal photo ids: %w", err)
		}
	}
	return &report, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

var _ Repo = (*PGRepo)(nil)
