package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"spinsim/internal/model"
	"spinsim/internal/storage/mysql"
)

//go:generate go run github.com/vektra/mockery/v2@v2.28.2 --name=SessionStore
type SessionStore interface {
	SaveSession(session *model.BatchSession) (int64, error)
	GetSessionByUUID(id uuid.UUID) (*model.BatchSession, error)
	ListSessions(limit int) ([]model.SessionSummary, error)
	DeleteSession(id uuid.UUID) error
}

// BatchSessionRepository persists batch history: the session header with its
// aggregated stats plus one row per run.
type BatchSessionRepository struct {
	dbhandler *mysql.Handler
}

func NewBatchSessionRepository(dbhandler *mysql.Handler) *BatchSessionRepository {
	return &BatchSessionRepository{dbhandler: dbhandler}
}

func (repo *BatchSessionRepository) SaveSession(session *model.BatchSession) (int64, error) {
	const op = "repository.session.SaveSession"

	const query = "INSERT INTO batch_sessions(uuid, label, settings, stats, created_at) " +
		"VALUES(?, ?, ?, ?, ?)"

	settings, err := json.Marshal(session.Settings)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	stats, err := json.Marshal(session.Stats)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	res, err := repo.dbhandler.PrepareAndExecute(query,
		session.ID.String(), session.Label, settings, stats, session.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	sessionID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = repo.saveRuns(sessionID, session.Runs); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return sessionID, nil
}

func (repo *BatchSessionRepository) saveRuns(sessionID int64, runs []model.RunResult) error {
	const op = "repository.session.saveRuns"

	const query = "INSERT INTO batch_runs(session_id, run_index, final_bankroll, spins, stop_reason, steps) " +
		"VALUES(?, ?, ?, ?, ?, ?)"

	for i, run := range runs {
		steps, err := json.Marshal(run.Steps)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}

		_, err = repo.dbhandler.PrepareAndExecute(query,
			sessionID, i, run.FinalBankroll, run.Spins, string(run.StopReason), steps)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return nil
}

func (repo *BatchSessionRepository) GetSessionByUUID(id uuid.UUID) (*model.BatchSession, error) {
	const op = "repository.session.GetSessionByUUID"

	const query = "SELECT id, label, settings, stats, created_at FROM batch_sessions WHERE uuid = ?"

	row, err := repo.dbhandler.PrepareAndQueryRow(query, id.String())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var (
		sessionID int64
		label     string
		settings  []byte
		stats     []byte
		createdAt time.Time
	)

	if err = row.Scan(&sessionID, &label, &settings, &stats, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	session := &model.BatchSession{
		ID:        id,
		Label:     label,
		CreatedAt: createdAt,
	}

	if err = json.Unmarshal(settings, &session.Settings); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err = json.Unmarshal(stats, &session.Stats); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if session.Runs, err = repo.getRuns(sessionID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return session, nil
}

func (repo *BatchSessionRepository) getRuns(sessionID int64) ([]model.RunResult, error) {
	const op = "repository.session.getRuns"

	const query = "SELECT final_bankroll, spins, stop_reason, steps FROM batch_runs " +
		"WHERE session_id = ? ORDER BY run_index"

	rows, err := repo.dbhandler.PrepareAndQuery(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var runs []model.RunResult

	for rows.Next() {
		var (
			run        model.RunResult
			stopReason string
			steps      []byte
		)

		if err = rows.Scan(&run.FinalBankroll, &run.Spins, &stopReason, &steps); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		run.StopReason = model.StopReason(stopReason)

		if err = json.Unmarshal(steps, &run.Steps); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		runs = append(runs, run)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return runs, nil
}

func (repo *BatchSessionRepository) ListSessions(limit int) ([]model.SessionSummary, error) {
	const op = "repository.session.ListSessions"

	const query = "SELECT uuid, label, stats, created_at FROM batch_sessions " +
		"ORDER BY created_at DESC LIMIT ?"

	if limit <= 0 {
		limit = 50
	}

	rows, err := repo.dbhandler.PrepareAndQuery(query, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var summaries []model.SessionSummary

	for rows.Next() {
		var (
			summary model.SessionSummary
			rawUUID string
			stats   []byte
		)

		if err = rows.Scan(&rawUUID, &summary.Label, &stats, &summary.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if summary.ID, err = uuid.Parse(rawUUID); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if err = json.Unmarshal(stats, &summary.Stats); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		summaries = append(summaries, summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return summaries, nil
}

func (repo *BatchSessionRepository) DeleteSession(id uuid.UUID) error {
	const op = "repository.session.DeleteSession"

	row, err := repo.dbhandler.PrepareAndQueryRow(
		"SELECT id FROM batch_sessions WHERE uuid = ?", id.String())
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var sessionID int64

	if err = row.Scan(&sessionID); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = repo.dbhandler.PrepareAndExecute(
		"DELETE FROM batch_runs WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err = repo.dbhandler.PrepareAndExecute(
		"DELETE FROM batch_sessions WHERE id = ?", sessionID); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
