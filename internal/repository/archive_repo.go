package repository

import (
	"context"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vocalis-dev/vocalis-api/internal/models"
)

// ArchiveRepository persists terminal interview sessions.
type ArchiveRepository interface {
	Archive(ctx context.Context, session *models.Session) error
	ListBySessionID(ctx context.Context, sessionID string) (*models.ArchivedSession, error)
}

type archiveRepository struct {
	db *gorm.DB
}

// NewArchiveRepository constructs the session archive repository.
func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

// Archive writes the terminal session. The session id carries a unique index
// and conflicts are ignored, so retried completions stay idempotent.
func (r *archiveRepository) Archive(ctx context.Context, session *models.Session) error {
	if session.Result == nil {
		return nil
	}

	resultJSON, err := json.Marshal(session.Result)
	if err != nil {
		return err
	}

	record := models.ArchivedSession{
		SessionID:       session.ID,
		CandidateID:     session.CandidateID,
		Domain:          session.Domain,
		State:           string(session.State),
		TotalScore:      session.Result.TotalScore,
		UnansweredCount: session.Result.UnansweredCount,
		ViolationCount:  session.Result.ViolationCount,
		Terminated:      session.Result.Terminated,
		ResultJSON:      string(resultJSON),
		CompletedAt:     session.Result.CompletedAt,
		CreatedAt:       time.Now().UTC(),
	}

	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "session_id"}}, DoNothing: true}).
		Create(&record).Error
}

func (r *archiveRepository) ListBySessionID(ctx context.Context, sessionID string) (*models.ArchivedSession, error) {
	var record models.ArchivedSession
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).First(&record).Error; err != nil {
		return nil, err
	}
	return &record, nil
}
