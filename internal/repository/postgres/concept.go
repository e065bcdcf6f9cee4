package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sublearn/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ConceptRepo implements repository.ConceptRepository
type ConceptRepo struct {
	db *sqlx.DB
}

// NewConceptRepo creates a new concept repository
func NewConceptRepo(db *sqlx.DB) *ConceptRepo {
	return &ConceptRepo{db: db}
}

type conceptLevel struct {
	Lemma string `db:"lemma"`
	Level string `db:"cefr_level"`
}

// LevelIndex returns lemma -> CEFR level for every catalogued concept of language
func (r *ConceptRepo) LevelIndex(ctx context.Context, language string) (map[string]domain.CEFRLevel, error) {
	var rows []conceptLevel
	query := `SELECT lemma, cefr_level FROM vocabulary_concepts WHERE language = $1`
	if err := r.db.SelectContext(ctx, &rows, query, language); err != nil {
		return nil, err
	}

	index := make(map[string]domain.CEFRLevel, len(rows))
	for _, row := range rows {
		level, err := domain.ParseCEFRLevel(row.Level)
		if err != nil {
			continue
		}
		index[row.Lemma] = level
	}
	return index, nil
}

// Find returns the concept for lemma, or nil if it is not catalogued
func (r *ConceptRepo) Find(ctx context.Context, lemma, language string) (*domain.VocabularyConcept, error) {
	var c domain.VocabularyConcept
	query := `
		SELECT id, lemma, language, cefr_level, translations
		FROM vocabulary_concepts
		WHERE lemma = $1 AND language = $2
	`
	err := r.db.GetContext(ctx, &c, query, lemma, language)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertConcepts inserts or updates concepts in one transaction and returns
// how many were written
func (r *ConceptRepo) UpsertConcepts(ctx context.Context, concepts []domain.VocabularyConcept) (int, error) {
	if len(concepts) == 0 {
		return 0, nil
	}

	tx, err := beginTxx(ctx, r.db)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO vocabulary_concepts (lemma, language, cefr_level, translations)
		VALUES (:lemma, :language, :cefr_level, :translations)
		ON CONFLICT (lemma, language)
		DO UPDATE SET
			cefr_level = EXCLUDED.cefr_level,
			translations = EXCLUDED.translations
	`
	written := 0
	for _, c := range concepts {
		if _, err := tx.Tx.NamedExecContext(ctx, query, c); err != nil {
			return 0, fmt.Errorf("upsert concept %q: %w", c.Lemma, err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return written, nil
}
