package db

import "context"

const schema = `
CREATE TABLE IF NOT EXISTS call_states (
	call_id        TEXT PRIMARY KEY,
	mode           TEXT NOT NULL,
	step           TEXT NOT NULL DEFAULT '',
	collected_info JSONB NOT NULL DEFAULT '{}'::jsonb,
	confidence     INT NOT NULL DEFAULT 0,
	version        BIGINT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS case_summaries (
	case_id        TEXT NOT NULL,
	call_id        TEXT PRIMARY KEY,
	recorded_at    TIMESTAMPTZ NOT NULL,
	caller_phone   TEXT NOT NULL DEFAULT '',
	patient_name   TEXT NOT NULL DEFAULT '',
	description    TEXT NOT NULL DEFAULT '',
	classification TEXT NOT NULL,
	confidence     INT NOT NULL,
	emotional_tone TEXT NOT NULL DEFAULT '',
	action_taken   TEXT NOT NULL DEFAULT '',
	channel        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS case_summaries_recorded_at_idx ON case_summaries (recorded_at DESC);

CREATE TABLE IF NOT EXISTS notification_ledger (
	key     TEXT PRIMARY KEY,
	sent_at TIMESTAMPTZ NOT NULL
);
`

func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.Pool.Exec(ctx, schema)
	return err
}
