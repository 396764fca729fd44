package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medialint/scene-validator/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store is the durable record store behind the validator. It holds two
// logical collections: validation records keyed by validation ID, and
// validation profiles keyed by profile ID.
type Store interface {
	CreateValidation(ctx context.Context, rec models.ValidationRecord) error
	GetValidation(ctx context.Context, id uuid.UUID) (models.ValidationRecord, error)
	// CompleteValidation moves a record to its terminal passed/failed status
	// and embeds the full result.
	CompleteValidation(ctx context.Context, id uuid.UUID, status string, result models.ValidationResult) error
	// FailValidation moves a record to the error status with a description of
	// what went wrong.
	FailValidation(ctx context.Context, id uuid.UUID, errMsg string) error

	GetProfile(ctx context.Context, id string) (models.ValidationProfile, error)
	ListProfiles(ctx context.Context) ([]models.ProfileSummary, error)
	PutProfile(ctx context.Context, profile models.ValidationProfile) error

	Ping(ctx context.Context) error
}

type PGStore struct {
	db *sql.DB
}

func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{db: db}
}

func (s *PGStore) CreateValidation(ctx context.Context, rec models.ValidationRecord) error {
	metadata, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	requirements, err := json.Marshal(rec.TechnicalRequirements)
	if err != nil {
		return fmt.Errorf("marshal technical requirements: %w", err)
	}
	var callback sql.NullString
	if rec.CallbackURL != "" {
		callback = sql.NullString{String: rec.CallbackURL, Valid: true}
	}
	const query = `
		INSERT INTO validations (id, scene_id, ts, status, media_url, validation_profile, metadata, technical_requirements, callback_url)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`
	if _, err := s.db.ExecContext(ctx, query,
		rec.ValidationID, rec.SceneID, rec.Timestamp, rec.Status, rec.MediaURL,
		rec.ValidationProfile, metadata, requirements, callback,
	); err != nil {
		return fmt.Errorf("insert validation: %w", err)
	}
	return nil
}

func (s *PGStore) GetValidation(ctx context.Context, id uuid.UUID) (models.ValidationRecord, error) {
	const query = `
		SELECT id, scene_id, ts, status, media_url, validation_profile, metadata, technical_requirements, callback_url, result, error
		FROM validations WHERE id=$1
	`
	rec, err := scanValidation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ValidationRecord{}, ErrNotFound
		}
		return models.ValidationRecord{}, fmt.Errorf("get validation: %w", err)
	}
	return rec, nil
}

func (s *PGStore) CompleteValidation(ctx context.Context, id uuid.UUID, status string, result models.ValidationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	const query = `UPDATE validations SET status=$2, result=$3 WHERE id=$1`
	res, err := s.db.ExecContext(ctx, query, id, status, payload)
	if err != nil {
		return fmt.Errorf("complete validation: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) FailValidation(ctx context.Context, id uuid.UUID, errMsg string) error {
	const query = `UPDATE validations SET status=$2, error=$3 WHERE id=$1`
	res, err := s.db.ExecContext(ctx, query, id, models.StatusError, errMsg)
	if err != nil {
		return fmt.Errorf("fail validation: %w", err)
	}
	return requireRow(res)
}

func (s *PGStore) GetProfile(ctx context.Context, id string) (models.ValidationProfile, error) {
	const query = `SELECT id, name, description, content_criteria FROM profiles WHERE id=$1`
	var (
		profile  models.ValidationProfile
		criteria []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&profile.ID, &profile.Name, &profile.Description, &criteria)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.ValidationProfile{}, ErrNotFound
		}
		return models.ValidationProfile{}, fmt.Errorf("get profile: %w", err)
	}
	if len(criteria) > 0 {
		if err := json.Unmarshal(criteria, &profile.ContentCriteria); err != nil {
			return models.ValidationProfile{}, fmt.Errorf("decode content criteria: %w", err)
		}
	}
	return profile, nil
}

func (s *PGStore) ListProfiles(ctx context.Context) ([]models.ProfileSummary, error) {
	const query = `SELECT id, name, description FROM profiles ORDER BY id`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []models.ProfileSummary
	for rows.Next() {
		var p models.ProfileSummary
		if err := rows.Scan(&p.ID, &p.Name, &p.Description); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return profiles, nil
}

func (s *PGStore) PutProfile(ctx context.Context, profile models.ValidationProfile) error {
	criteria, err := json.Marshal(profile.ContentCriteria)
	if err != nil {
		return fmt.Errorf("marshal content criteria: %w", err)
	}
	const query = `
		INSERT INTO profiles (id, name, description, content_criteria)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (id) DO UPDATE SET name=$2, description=$3, content_criteria=$4
	`
	if _, err := s.db.ExecContext(ctx, query, profile.ID, profile.Name, profile.Description, criteria); err != nil {
		return fmt.Errorf("put profile: %w", err)
	}
	return nil
}

func (s *PGStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanValidation(row rowScanner) (models.ValidationRecord, error) {
	var (
		rec          models.ValidationRecord
		metadata     []byte
		requirements []byte
		callback     sql.NullString
		result       []byte
		errMsg       sql.NullString
	)
	if err := row.Scan(
		&rec.ValidationID,
		&rec.SceneID,
		&rec.Timestamp,
		&rec.Status,
		&rec.MediaURL,
		&rec.ValidationProfile,
		&metadata,
		&requirements,
		&callback,
		&result,
		&errMsg,
	); err != nil {
		return models.ValidationRecord{}, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Metadata); err != nil {
			return models.ValidationRecord{}, fmt.Errorf("decode metadata: %w", err)
		}
	}
	if len(requirements) > 0 {
		if err := json.Unmarshal(requirements, &rec.TechnicalRequirements); err != nil {
			return models.ValidationRecord{}, fmt.Errorf("decode technical requirements: %w", err)
		}
	}
	if callback.Valid {
		rec.CallbackURL = callback.String
	}
	if len(result) > 0 {
		var r models.ValidationResult
		if err := json.Unmarshal(result, &r); err != nil {
			return models.ValidationRecord{}, fmt.Errorf("decode result: %w", err)
		}
		rec.Result = &r
	}
	if errMsg.Valid {
		rec.Error = errMsg.String
	}
	return rec, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
