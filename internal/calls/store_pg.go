package calls

import (
	"context"
	"database/sql"
	"errors"

	"transcribeme/pkg/utils"

	"github.com/jackc/pgx/v5/pgconn"
)

// PostgresStore is a durable Store backed by database/sql (pgx stdlib driver).
//
// Row-level serialization: Update locks the row with SELECT ... FOR UPDATE so
// concurrent mutations of the same call are serialized by the database while
// different calls proceed independently.

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema is the DDL for the call_records table. Applied by the operator or a
// migration runner; kept here so the durable layout lives next to the model.
const Schema = `
CREATE TABLE IF NOT EXISTS call_records (
    call_id              TEXT PRIMARY KEY,
    from_number          TEXT NOT NULL,
    to_number            TEXT NOT NULL,
    state                TEXT NOT NULL,
    recording_url        TEXT NOT NULL DEFAULT '',
    raw_transcript       TEXT NOT NULL DEFAULT '',
    formatted_transcript TEXT NOT NULL DEFAULT '',
    style                TEXT NOT NULL,
    transcript_id        TEXT NOT NULL DEFAULT '',
    sms_sent             BOOLEAN NOT NULL DEFAULT FALSE,
    created_at           TIMESTAMPTZ NOT NULL,
    expires_at           TIMESTAMPTZ,
    error_message        TEXT NOT NULL DEFAULT ''
);`

const recordColumns = `call_id, from_number, to_number, state, recording_url,
raw_transcript, formatted_transcript, style, transcript_id, sms_sent,
created_at, expires_at, error_message`

func (s *PostgresStore) Create(ctx context.Context, r Record) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO call_records (`+recordColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		r.CallID, r.From, r.To, string(r.State), r.RecordingURL,
		r.RawTranscript, r.FormattedTranscript, string(r.Style), r.TranscriptID, r.SMSSent,
		r.CreatedAt, r.ExpiresAt, r.ErrorMessage,
	)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStore) Get(ctx context.Context, callID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM call_records WHERE call_id = $1`, callID)
	return scanRecord(row)
}

func (s *PostgresStore) Update(ctx context.Context, callID string, mutate func(*Record) error) (Record, error) {
	var out Record
	err := utils.WithTx(ctx, s.db, &sql.TxOptions{}, func(ctx context.Context, tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+recordColumns+` FROM call_records WHERE call_id = $1 FOR UPDATE`, callID)
		rec, err := scanRecord(row)
		if err != nil {
			return err
		}
		if err := mutate(&rec); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
UPDATE call_records SET
    state = $2, recording_url = $3, raw_transcript = $4,
    formatted_transcript = $5, transcript_id = $6, sms_sent = $7,
    expires_at = $8, error_message = $9
WHERE call_id = $1`,
			rec.CallID, string(rec.State), rec.RecordingURL, rec.RawTranscript,
			rec.FormattedTranscript, rec.TranscriptID, rec.SMSSent,
			rec.ExpiresAt, rec.ErrorMessage,
		)
		if err != nil {
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return out, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+recordColumns+` FROM call_records ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (Record, error) {
	var (
		r         Record
		state     string
		style     string
		expiresAt sql.NullTime
	)
	err := row.Scan(
		&r.CallID, &r.From, &r.To, &state, &r.RecordingURL,
		&r.RawTranscript, &r.FormattedTranscript, &style, &r.TranscriptID, &r.SMSSent,
		&r.CreatedAt, &expiresAt, &r.ErrorMessage,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, err
	}
	r.State = State(state)
	r.Style = Style(style)
	if expiresAt.Valid {
		t := expiresAt.Time.UTC()
		r.ExpiresAt = &t
	}
	r.CreatedAt = r.CreatedAt.UTC()
	return r, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
var _ Store = (*MemoryStore)(nil)
