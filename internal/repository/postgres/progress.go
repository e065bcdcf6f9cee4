package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sublearn/internal/domain"
)

// ProgressRepo implements repository.ProgressRepository
type ProgressRepo struct {
	db *sql.DB
}

// NewProgressRepo creates a new progress repository
func NewProgressRepo(db *sql.DB) *ProgressRepo {
	return &ProgressRepo{db: db}
}

// GetKnownWords returns the lemmas the user marked as known in language
func (r *ProgressRepo) GetKnownWords(ctx context.Context, userID int64, language string) (map[string]struct{}, error) {
	query := `
		SELECT lemma
		FROM user_vocabulary_progress
		WHERE user_id = $1 AND language = $2 AND is_known = TRUE
	`
	rows, err := r.db.QueryContext(ctx, query, userID, language)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var lemma string
		if err := rows.Scan(&lemma); err != nil {
			return nil, err
		}
		known[lemma] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return known, nil
}

// MarkWordKnown records a knowledge decision. The first call for a lemma
// creates the row; later calls bump confidence (capped) and review count on
// the same row. Marking a word unknown resets its confidence.
func (r *ProgressRepo) MarkWordKnown(ctx context.Context, userID int64, lemma, language string, known bool) (*domain.UserVocabularyProgress, error) {
	tx, err := beginTx(ctx, r.db)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var conceptID sql.NullInt64
	err = tx.Tx.QueryRowContext(ctx,
		`SELECT id FROM vocabulary_concepts WHERE lemma = $1 AND language = $2`,
		lemma, language,
	).Scan(&conceptID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("resolve concept: %w", err)
	}

	initialConfidence := 0
	if known {
		initialConfidence = 1
	}

	query := `
		INSERT INTO user_vocabulary_progress
			(user_id, lemma, language, concept_id, is_known, confidence_level, review_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 1, NOW())
		ON CONFLICT (user_id, lemma, language)
		DO UPDATE SET
			concept_id = COALESCE(EXCLUDED.concept_id, user_vocabulary_progress.concept_id),
			is_known = EXCLUDED.is_known,
			confidence_level = CASE
				WHEN EXCLUDED.is_known THEN LEAST(user_vocabulary_progress.confidence_level + 1, $7)
				ELSE 0
			END,
			review_count = user_vocabulary_progress.review_count + 1,
			updated_at = NOW()
		RETURNING id, concept_id, is_known, confidence_level, review_count, updated_at
	`
	p := domain.UserVocabularyProgress{UserID: userID, Lemma: lemma, Language: language}
	var savedConcept sql.NullInt64
	err = tx.Tx.QueryRowContext(ctx, query,
		userID, lemma, language, conceptID, known, initialConfidence, domain.MaxConfidenceLevel,
	).Scan(&p.ID, &savedConcept, &p.IsKnown, &p.ConfidenceLevel, &p.ReviewCount, &p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert progress: %w", err)
	}
	if savedConcept.Valid {
		id := savedConcept.Int64
		p.ConceptID = &id
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &p, nil
}

// CountKnown returns how many lemmas the user knows in language
func (r *ProgressRepo) CountKnown(ctx context.Context, userID int64, language string) (int, error) {
	var count int
	query := `
		SELECT COUNT(*)
		FROM user_vocabulary_progress
		WHERE user_id = $1 AND language = $2 AND is_known = TRUE
	`
	err := r.db.QueryRowContext(ctx, query, userID, language).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}
