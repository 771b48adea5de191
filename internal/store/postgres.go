package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/reclutahub/recluta-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by the store, small enough for
// pgxmock to stand in during tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	nombre            TEXT NOT NULL,
	email             TEXT NOT NULL DEFAULT '',
	telefono          TEXT NOT NULL DEFAULT '',
	vacante_id        TEXT NOT NULL DEFAULT '',
	vacante           TEXT NOT NULL DEFAULT '',
	columna           TEXT NOT NULL,
	score             INTEGER NOT NULL DEFAULT 0,
	habilidades       JSONB NOT NULL DEFAULT '[]',
	experiencia_anios INTEGER NOT NULL DEFAULT 0,
	fecha_aplicacion  TIMESTAMPTZ NOT NULL,
	recommendation    TEXT NOT NULL DEFAULT '',
	deep_analysis     JSONB,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_candidates_vacante ON candidates(vacante_id);
`

type postgresStore struct {
	pool Pool
}

// OpenPostgres connects a postgres-backed store.
func OpenPostgres(ctx context.Context, databaseURL string) (Store, error) {
	if databaseURL == "" {
		return nil, eris.New("store: postgres driver requires a database url")
	}

	poolCfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, eris.Wrap(err, "store: parse postgres url")
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "store: connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "store: ping postgres")
	}

	return &postgresStore{pool: pool}, nil
}

// NewPostgresStore wraps an existing pool; tests inject pgxmock here.
func NewPostgresStore(pool Pool) Store {
	return &postgresStore{pool: pool}
}

func (s *postgresStore) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, postgresSchema); err != nil {
		return eris.Wrap(err, "store: migrate postgres")
	}
	return nil
}

func (s *postgresStore) AppendCandidate(ctx context.Context, c model.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	skills, deep, err := encodeCandidate(c)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO candidates (
			id, nombre, email, telefono, vacante_id, vacante, columna,
			score, habilidades, experiencia_anios, fecha_aplicacion,
			recommendation, deep_analysis
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		c.ID, c.Name, c.Email, c.Phone, c.VacancyID, c.VacancyTitle, c.Column,
		c.Score, skills, c.YearsExperience, c.AppliedAt,
		string(c.Recommendation), deep,
	)
	if err != nil {
		return eris.Wrapf(err, "store: insert candidate %s", c.ID)
	}
	return nil
}

func (s *postgresStore) ListCandidates(ctx context.Context, f Filter) ([]model.Candidate, error) {
	query := `
		SELECT id, nombre, email, telefono, vacante_id, vacante, columna,
		       score, habilidades, experiencia_anios, fecha_aplicacion,
		       recommendation, deep_analysis
		FROM candidates WHERE 1=1`
	var args []any
	if f.VacancyID != "" {
		args = append(args, f.VacancyID)
		query += fmt.Sprintf(" AND vacante_id = $%d", len(args))
	}
	if f.Column != "" {
		args = append(args, f.Column)
		query += fmt.Sprintf(" AND columna = $%d", len(args))
	}
	query += " ORDER BY fecha_aplicacion DESC"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var skillsJSON []byte
		var deep sql.NullString
		var rec string
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.VacancyID, &c.VacancyTitle,
			&c.Column, &c.Score, &skillsJSON, &c.YearsExperience, &c.AppliedAt,
			&rec, &deep,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan candidate")
		}
		c.Recommendation = model.RecommendationBucket(rec)
		if len(skillsJSON) > 0 {
			if err := json.Unmarshal(skillsJSON, &c.Skills); err != nil {
				return nil, eris.Wrapf(err, "store: unmarshal skills for %s", c.ID)
			}
		}
		if deep.Valid && deep.String != "" {
			c.Deep = &model.DeepAnalysis{}
			if err := json.Unmarshal([]byte(deep.String), c.Deep); err != nil {
				return nil, eris.Wrapf(err, "store: unmarshal deep analysis for %s", c.ID)
			}
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate candidates")
	}
	return out, nil
}

func (s *postgresStore) Close() error {
	s.pool.Close()
	return nil
}
