package photos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	photo := Photo{
		ID:            "photo-1",
		UserID:        "user-1",
		OCRStatus:     OCRDone,
		ExtractedText: "mom: see you at 14:30",
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO photos").
		WithArgs(
			photo.ID,
			photo.UserID,
			photo.OCRStatus,
			photo.ExtractedText,
			"",
			AnalysisPending, // empty status defaults to pending
			"",
			photo.CreatedAt,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), photo); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoListAnalysisCandidatesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	now := time.Now().UTC()

	rows := sqlmock.NewRows([]string{
		"id", "user_id", "ocr_status", "extracted_text", "ocr_error",
		"analysis_status", "analysis_error", "created_at", "updated_at",
	}).AddRow("photo-2", "user-1", OCRDone, "newer text", nil, AnalysisPending, nil, now, now).
		AddRow("photo-1", "user-1", OCRDone, "older text", nil, AnalysisError, "llm down", now.Add(-time.Hour), now)

	mock.ExpectQuery("SELECT (.+) FROM photos").
		WithArgs("user-1").
		WillReturnRows(rows)

	candidates, err := repo.ListAnalysisCandidates(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("ListAnalysisCandidates: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidates = %d, want 2", len(candidates))
	}
	if candidates[0].ID != "photo-2" {
		t.Fatalf("first candidate = %s, want photo-2 (newest first)", candidates[0].ID)
	}
	if candidates[1].AnalysisError != "llm down" {
		t.Fatalf("analysis error = %q", candidates[1].AnalysisError)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoSetAnalysisStatusNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE photos").
		WithArgs(AnalysisCompleted, "", "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.SetAnalysisStatus(context.Background(), "missing", AnalysisCompleted, "")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
