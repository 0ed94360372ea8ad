package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run is one persisted recommendation run with its per-product outcomes.
type Run struct {
	ID              string       `json:"id"`
	UserColor       string       `json:"user_color"`
	TotalCandidates int          `json:"total_candidates"`
	Analyzed        int          `json:"analyzed"`
	Matched         int          `json:"matched"`
	ElapsedMillis   int64        `json:"elapsed_ms"`
	CreatedAt       time.Time    `json:"created_at"`
	Outcomes        []RunOutcome `json:"outcomes,omitempty"`
}

type RunOutcome struct {
	ID          string `json:"id"`
	RunID       string `json:"run_id"`
	Position    int    `json:"position"`
	ProductName string `json:"product_name"`
	ImageURL    string `json:"image_url"`
	DetailLink  string `json:"detail_link"`
	Category    string `json:"category"`
	Confidence  int    `json:"confidence"`
	Accepted    bool   `json:"accepted"`
}

type RunRepository struct {
	db *DB
}

func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// Save stores a run and its outcomes in one transaction. Missing IDs and the
// created-at timestamp are filled in here.
func (r *RunRepository) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := r.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// $N placeholders bind positionally under both drivers, so every query
	// in this file uses one convention.
	runQuery := `
		INSERT INTO runs (id, user_color, total_candidates, analyzed, matched, elapsed_ms, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = tx.ExecContext(ctx, runQuery,
		run.ID, run.UserColor, run.TotalCandidates, run.Analyzed, run.Matched, run.ElapsedMillis, run.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	outcomeQuery := `
		INSERT INTO run_outcomes (id, run_id, position, product_name, image_url, detail_link, category, confidence, accepted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	for i := range run.Outcomes {
		outcome := &run.Outcomes[i]
		if outcome.ID == "" {
			outcome.ID = uuid.New().String()
		}
		outcome.RunID = run.ID
		outcome.Position = i

		_, err = tx.ExecContext(ctx, outcomeQuery,
			outcome.ID, outcome.RunID, outcome.Position, outcome.ProductName,
			outcome.ImageURL, outcome.DetailLink, outcome.Category, outcome.Confidence, outcome.Accepted)
		if err != nil {
			return fmt.Errorf("failed to insert outcome: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// Recent returns the latest runs without their outcomes, newest first.
func (r *RunRepository) Recent(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, user_color, total_candidates, analyzed, matched, elapsed_ms, created_at
		FROM runs
		ORDER BY created_at DESC
		LIMIT $1`

	rows, err := r.db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		err := rows.Scan(&run.ID, &run.UserColor, &run.TotalCandidates,
			&run.Analyzed, &run.Matched, &run.ElapsedMillis, &run.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetByID returns one run with its outcomes in candidate order, or nil when
// the run does not exist.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*Run, error) {
	query := `
		SELECT id, user_color, total_candidates, analyzed, matched, elapsed_ms, created_at
		FROM runs
		WHERE id = $1`

	var run Run
	err := r.db.conn.QueryRowContext(ctx, query, id).Scan(&run.ID, &run.UserColor,
		&run.TotalCandidates, &run.Analyzed, &run.Matched, &run.ElapsedMillis, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	outcomeQuery := `
		SELECT id, run_id, position, product_name, image_url, detail_link, category, confidence, accepted
		FROM run_outcomes
		WHERE run_id = $1
		ORDER BY position`

	rows, err := r.db.conn.QueryContext(ctx, outcomeQuery, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var outcome RunOutcome
		var detailLink sql.NullString
		err := rows.Scan(&outcome.ID, &outcome.RunID, &outcome.Position, &outcome.ProductName,
			&outcome.ImageURL, &detailLink, &outcome.Category, &outcome.Confidence, &outcome.Accepted)
		if err != nil {
			return nil, fmt.Errorf("failed to scan outcome: %w", err)
		}
		outcome.DetailLink = detailLink.String
		run.Outcomes = append(run.Outcomes, outcome)
	}

	return &run, rows.Err()
}
