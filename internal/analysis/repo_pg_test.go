package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateMarshalsJSON(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	report := &Report{
		ID:           "report-1",
		UserID:       "user-1",
		Model:        "gpt-4o-mini",
		ShortSummary: "You chat late at night.",
		Result: map[string]any{
			"user": map[string]any{"short_summary": "You chat late at night."},
		},
		PhotoIDs:  []string{"photo-1", "photo-2"},
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO analysis_reports").
		WithArgs(
			report.ID,
			report.UserID,
			report.Model,
			report.ShortSummary,
			sqlmock.AnyArg(), // result_json
			sqlmock.AnyArg(), // photo_ids
			report.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), report); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLatestByUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()
	resultJSON, _ := json.Marshal(map[string]any{
		"user":  map[string]any{"short_summary": "summary"},
		"admin": map[string]any{},
	})

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "model", "short_summary", "result_json", "photo_ids", "created_at",
	}).AddRow("report-1", "user-1", "gpt-4o-mini", "summary", resultJSON, []byte(`["photo-1"]`), now)

	mock.ExpectQuery("SELECT (.+) FROM analysis_reports").
		WithArgs("user-1").
		WillReturnRows(rows)

	report, err := repo.LatestByUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("LatestByUser: %v", err)
	}
	if report.ID != "report-1" || report.ShortSummary != "summary" {
		t.Fatalf("report = %+v", report)
	}
	if len(report.PhotoIDs) != 1 || report.PhotoIDs[0] != "photo-1" {
		t.Fatalf("photo ids = %v", report.PhotoIDs)
	}
	if _, ok := report.Result["user"]; !ok {
		t.Fatal("result missing user block")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoLatestByUserNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM analysis_reports").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "model", "short_summary", "result_json", "photo_ids", "created_at",
		}))

	if _, err := repo.LatestByUser(context.Background(), "user-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPGRepoListAdminBlocksSkipsMalformedRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	good, _ := json.Marshal(map[string]any{"admin": map[string]any{"handles": 2}})
	rows := sqlmock.NewRows([]string{"result_json"}).
		AddRow(good).
		AddRow([]byte("not json")).
		AddRow([]byte(`{"user": {}}`))

	mock.ExpectQuery("SELECT result_json FROM analysis_reports").
		WillReturnRows(rows)

	blocks, err := repo.ListAdminBlocks(context.Background())
	if err != nil {
		t.Fatalf("ListAdminBlocks: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("blocks = %d, want 1", len(blocks))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
