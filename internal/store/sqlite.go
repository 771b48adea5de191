package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/reclutahub/recluta-cli/internal/model"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id                TEXT PRIMARY KEY,
	nombre            TEXT NOT NULL,
	email             TEXT NOT NULL DEFAULT '',
	telefono          TEXT NOT NULL DEFAULT '',
	vacante_id        TEXT NOT NULL DEFAULT '',
	vacante           TEXT NOT NULL DEFAULT '',
	columna           TEXT NOT NULL,
	score             INTEGER NOT NULL DEFAULT 0,
	habilidades       TEXT NOT NULL DEFAULT '[]',
	experiencia_anios INTEGER NOT NULL DEFAULT 0,
	fecha_aplicacion  TIMESTAMP NOT NULL,
	recommendation    TEXT NOT NULL DEFAULT '',
	deep_analysis     TEXT,
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_candidates_vacante ON candidates(vacante_id);
`

type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) a sqlite-backed store at path.
func OpenSQLite(ctx context.Context, path string) (Store, error) {
	if path == "" {
		path = "recluta.db"
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "store: open sqlite %s", path)
	}

	// Single writer; WAL keeps readers unblocked during batch saves.
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "store: %s", pragma)
		}
	}

	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return eris.Wrap(err, "store: migrate sqlite")
	}
	return nil
}

func (s *sqliteStore) AppendCandidate(ctx context.Context, c model.Candidate) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	skills, deep, err := encodeCandidate(c)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO candidates (
			id, nombre, email, telefono, vacante_id, vacante, columna,
			score, habilidades, experiencia_anios, fecha_aplicacion,
			recommendation, deep_analysis
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.VacancyID, c.VacancyTitle, c.Column,
		c.Score, skills, c.YearsExperience, c.AppliedAt,
		string(c.Recommendation), deep,
	)
	if err != nil {
		return eris.Wrapf(err, "store: insert candidate %s", c.ID)
	}
	return nil
}

func (s *sqliteStore) ListCandidates(ctx context.Context, f Filter) ([]model.Candidate, error) {
	query := `
		SELECT id, nombre, email, telefono, vacante_id, vacante, columna,
		       score, habilidades, experiencia_anios, fecha_aplicacion,
		       recommendation, deep_analysis
		FROM candidates WHERE 1=1`
	var args []any
	if f.VacancyID != "" {
		query += " AND vacante_id = ?"
		args = append(args, f.VacancyID)
	}
	if f.Column != "" {
		query += " AND columna = ?"
		args = append(args, f.Column)
	}
	query += " ORDER BY fecha_aplicacion DESC"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "store: list candidates")
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var skills string
		var deep sql.NullString
		var rec string
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Email, &c.Phone, &c.VacancyID, &c.VacancyTitle,
			&c.Column, &c.Score, &skills, &c.YearsExperience, &c.AppliedAt,
			&rec, &deep,
		); err != nil {
			return nil, eris.Wrap(err, "store: scan candidate")
		}
		if err := decodeCandidate(&c, rec, skills, deep.String); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "store: iterate candidates")
	}
	return out, nil
}

func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// encodeCandidate serializes the JSON-typed columns.
func encodeCandidate(c model.Candidate) (skills string, deep any, err error) {
	sk := c.Skills
	if sk == nil {
		sk = []string{}
	}
	skillsJSON, err := json.Marshal(sk)
	if err != nil {
		return "", nil, eris.Wrap(err, "store: marshal skills")
	}

	if c.Deep == nil {
		return string(skillsJSON), nil, nil
	}
	deepJSON, err := json.Marshal(c.Deep)
	if err != nil {
		return "", nil, eris.Wrap(err, "store: marshal deep analysis")
	}
	return string(skillsJSON), string(deepJSON), nil
}

// decodeCandidate restores the JSON-typed columns.
func decodeCandidate(c *model.Candidate, rec, skills, deep string) error {
	c.Recommendation = model.RecommendationBucket(rec)
	if skills != "" {
		if err := json.Unmarshal([]byte(skills), &c.Skills); err != nil {
			return eris.Wrapf(err, "store: unmarshal skills for %s", c.ID)
		}
	}
	if deep != "" {
		c.Deep = &model.DeepAnalysis{}
		if err := json.Unmarshal([]byte(deep), c.Deep); err != nil {
			return eris.Wrapf(err, "store: unmarshal deep analysis for %s", c.ID)
		}
	}
	return nil
}
