package db

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nightdesk/backend/internal/models"
	"github.com/nightdesk/backend/internal/store"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *Store) LoadState(ctx context.Context, callID string) (*models.CallConversationState, error) {
	var (
		state models.CallConversationState
		info  []byte
	)
	err := s.Pool.QueryRow(ctx, `
		SELECT call_id, mode, step, collected_info, confidence, version, updated_at
		FROM call_states WHERE call_id = $1
	`, callID).Scan(&state.CallID, &state.Mode, &state.Step, &info, &state.Confidence, &state.Version, &state.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(info, &state.CollectedInfo); err != nil {
		return nil, err
	}
	return &state, nil
}

// SaveState inserts version 1 for a new call, otherwise updates only when
// the stored version still matches.
func (s *Store) SaveState(ctx context.Context, state *models.CallConversationState) error {
	info, err := json.Marshal(state.CollectedInfo)
	if err != nil {
		return err
	}
	now := time.Now().UTC()

	var tag pgconn.CommandTag
	if state.Version == 0 {
		tag, err = s.Pool.Exec(ctx, `
			INSERT INTO call_states (call_id, mode, step, collected_info, confidence, version, updated_at)
			VALUES ($1,$2,$3,$4,$5,1,$6)
			ON CONFLICT (call_id) DO NOTHING
		`, state.CallID, state.Mode, state.Step, info, state.Confidence, now)
	} else {
		tag, err = s.Pool.Exec(ctx, `
			UPDATE call_states
			SET mode = $2, step = $3, collected_info = $4, confidence = $5, version = version + 1, updated_at = $6
			WHERE call_id = $1 AND version = $7
		`, state.CallID, state.Mode, state.Step, info, state.Confidence, now, state.Version)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrVersionConflict
	}
	state.Version++
	state.UpdatedAt = now
	return nil
}

func (s *Store) RecordCase(ctx context.Context, c models.CaseSummary) (bool, error) {
	tag, err := s.Pool.Exec(ctx, `
		INSERT INTO case_summaries (case_id, call_id, recorded_at, caller_phone, patient_name, description, classification, confidence, emotional_tone, action_taken, channel)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (call_id) DO UPDATE SET
			case_id = EXCLUDED.case_id,
			recorded_at = EXCLUDED.recorded_at,
			caller_phone = EXCLUDED.caller_phone,
			patient_name = EXCLUDED.patient_name,
			description = EXCLUDED.description,
			classification = EXCLUDED.classification,
			confidence = EXCLUDED.confidence,
			emotional_tone = EXCLUDED.emotional_tone,
			action_taken = EXCLUDED.action_taken,
			channel = EXCLUDED.channel
		WHERE EXCLUDED.classification = $12 AND case_summaries.classification <> $12
	`, c.CaseID, c.CallID, c.Timestamp, c.CallerPhone, c.PatientName, c.Description, c.Classification, c.Confidence, c.EmotionalTone, c.ActionTaken, c.Channel, models.TierEmergency)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

const caseColumns = `case_id, call_id, recorded_at, caller_phone, patient_name, description, classification, confidence, emotional_tone, action_taken, channel`

func scanCase(row pgx.Row) (models.CaseSummary, error) {
	var c models.CaseSummary
	err := row.Scan(&c.CaseID, &c.CallID, &c.Timestamp, &c.CallerPhone, &c.PatientName, &c.Description, &c.Classification, &c.Confidence, &c.EmotionalTone, &c.ActionTaken, &c.Channel)
	return c, err
}

func (s *Store) GetCase(ctx context.Context, callID string) (*models.CaseSummary, error) {
	c, err := scanCase(s.Pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM case_summaries WHERE call_id = $1`, callID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) ListCases(ctx context.Context, limit int) ([]models.CaseSummary, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.Pool.Query(ctx, `SELECT `+caseColumns+` FROM case_summaries ORDER BY recorded_at DESC, call_id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.CaseSummary{}
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// MarkDispatched claims a notification key. Keys older than ttl can be
// claimed again.
func (s *Store) MarkDispatched(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	var claimed bool
	err := s.WithTx(ctx, func(tx pgx.Tx) error {
		if ttl > 0 {
			if _, err := tx.Exec(ctx, `DELETE FROM notification_ledger WHERE key = $1 AND sent_at < $2`, key, time.Now().UTC().Add(-ttl)); err != nil {
				return err
			}
		}
		tag, err := tx.Exec(ctx, `INSERT INTO notification_ledger (key, sent_at) VALUES ($1, NOW()) ON CONFLICT (key) DO NOTHING`, key)
		if err != nil {
			return err
		}
		claimed = tag.RowsAffected() == 1
		return nil
	})
	return claimed, err
}
