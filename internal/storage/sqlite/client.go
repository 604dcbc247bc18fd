package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/truststack/scorer/internal/storage/models"
	"github.com/truststack/scorer/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		brand TEXT NOT NULL,
		rubric_version TEXT NOT NULL,
		status TEXT NOT NULL,
		start_time INTEGER NOT NULL,
		end_time INTEGER,
		items_received INTEGER NOT NULL DEFAULT 0,
		items_skipped INTEGER NOT NULL DEFAULT 0,
		items_demoted INTEGER NOT NULL DEFAULT 0,
		items_scored INTEGER NOT NULL DEFAULT 0,
		core_ar REAL NOT NULL DEFAULT 0,
		extended_ar REAL NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_runs_brand ON runs(brand);
	CREATE INDEX IF NOT EXISTS idx_runs_start ON runs(start_time);

	CREATE TABLE IF NOT EXISTS content_scores (
		content_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		brand TEXT NOT NULL,
		source TEXT NOT NULL,
		dimension_scores TEXT NOT NULL,
		composite_score REAL NOT NULL,
		label TEXT NOT NULL,
		confidence REAL NOT NULL,
		notes TEXT,
		triage_score REAL NOT NULL,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (content_id, run_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_scores_run ON content_scores(run_id);
	CREATE INDEX IF NOT EXISTS idx_scores_label ON content_scores(label);

	CREATE TABLE IF NOT EXISTS skipped_content (
		content_id TEXT NOT NULL,
		run_id TEXT NOT NULL,
		reason TEXT NOT NULL,
		url TEXT,
		created_at INTEGER NOT NULL,
		PRIMARY KEY (content_id, run_id),
		FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_skipped_run ON skipped_content(run_id);
	`

	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertRun(run *models.Run) error {
	var endTime any
	if run.EndTime != nil {
		endTime = run.EndTime.Unix()
	}

	_, err := c.db.Exec(`
		INSERT INTO runs (run_id, brand, rubric_version, status, start_time, end_time,
			items_received, items_skipped, items_demoted, items_scored, core_ar, extended_ar)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(run_id) DO UPDATE SET
			status = excluded.status,
			end_time = excluded.end_time,
			items_received = excluded.items_received,
			items_skipped = excluded.items_skipped,
			items_demoted = excluded.items_demoted,
			items_scored = excluded.items_scored,
			core_ar = excluded.core_ar,
			extended_ar = excluded.extended_ar
	`,
		run.RunID,
		run.Brand,
		run.RubricVersion,
		run.Status,
		run.StartTime.Unix(),
		endTime,
		run.ItemsReceived,
		run.ItemsSkipped,
		run.ItemsDemoted,
		run.ItemsScored,
		run.CoreAR,
		run.ExtendedAR,
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

func (c *Client) GetRun(runID string) (*models.Run, error) {
	var run models.Run
	var startTime int64
	var endTime sql.NullInt64

	err := c.db.QueryRow(`
		SELECT run_id, brand, rubric_version, status, start_time, end_time,
			items_received, items_skipped, items_demoted, items_scored, core_ar, extended_ar
		FROM runs WHERE run_id = ?
	`, runID).Scan(
		&run.RunID,
		&run.Brand,
		&run.RubricVersion,
		&run.Status,
		&startTime,
		&endTime,
		&run.ItemsReceived,
		&run.ItemsSkipped,
		&run.ItemsDemoted,
		&run.ItemsScored,
		&run.CoreAR,
		&run.ExtendedAR,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.StartTime = time.Unix(startTime, 0)
	if endTime.Valid {
		t := time.Unix(endTime.Int64, 0)
		run.EndTime = &t
	}

	return &run, nil
}

func (c *Client) ListRuns(brand string, limit int) ([]models.Run, error) {
	query := `
		SELECT run_id, brand, rubric_version, status, start_time, end_time,
			items_received, items_skipped, items_demoted, items_scored, core_ar, extended_ar
		FROM runs
	`
	args := []any{}
	if brand != "" {
		query += " WHERE brand = ?"
		args = append(args, brand)
	}
	query += " ORDER BY start_time DESC LIMIT ?"
	args = append(args, limit)

	rows, err := c.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []models.Run
	for rows.Next() {
		var run models.Run
		var startTime int64
		var endTime sql.NullInt64

		err := rows.Scan(
			&run.RunID,
			&run.Brand,
			&run.RubricVersion,
			&run.Status,
			&startTime,
			&endTime,
			&run.ItemsReceived,
			&run.ItemsSkipped,
			&run.ItemsDemoted,
			&run.ItemsScored,
			&run.CoreAR,
			&run.ExtendedAR,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		run.StartTime = time.Unix(startTime, 0)
		if endTime.Valid {
			t := time.Unix(endTime.Int64, 0)
			run.EndTime = &t
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

func (c *Client) InsertScore(score *models.Score) error {
	dimensionsJSON, err := json.Marshal(score.DimensionScores)
	if err != nil {
		return fmt.Errorf("failed to marshal dimension scores: %w", err)
	}

	_, err = c.db.Exec(`
		INSERT INTO content_scores (content_id, run_id, brand, source, dimension_scores,
			composite_score, label, confidence, notes, triage_score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		score.ContentID,
		score.RunID,
		score.Brand,
		score.Source,
		string(dimensionsJSON),
		score.CompositeScore,
		score.Label,
		score.Confidence,
		score.Notes,
		score.TriageScore,
		score.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert score: %w", err)
	}

	return nil
}

func (c *Client) GetScores(runID string) ([]models.Score, error) {
	rows, err := c.db.Query(`
		SELECT content_id, run_id, brand, source, dimension_scores,
			composite_score, label, confidence, notes, triage_score, created_at
		FROM content_scores WHERE run_id = ?
		ORDER BY composite_score DESC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get scores: %w", err)
	}
	defer rows.Close()

	var scores []models.Score
	for rows.Next() {
		var score models.Score
		var dimensionsJSON string
		var notes sql.NullString
		var createdAt int64

		err := rows.Scan(
			&score.ContentID,
			&score.RunID,
			&score.Brand,
			&score.Source,
			&dimensionsJSON,
			&score.CompositeScore,
			&score.Label,
			&score.Confidence,
			&notes,
			&score.TriageScore,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		if err := json.Unmarshal([]byte(dimensionsJSON), &score.DimensionScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal dimension scores: %w", err)
		}
		score.Notes = notes.String
		score.CreatedAt = time.Unix(createdAt, 0)
		scores = append(scores, score)
	}

	return scores, rows.Err()
}

func (c *Client) InsertSkip(skip *models.Skip) error {
	_, err := c.db.Exec(`
		INSERT INTO skipped_content (content_id, run_id, reason, url, created_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		skip.ContentID,
		skip.RunID,
		skip.Reason,
		skip.URL,
		skip.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert skip: %w", err)
	}

	return nil
}

func (c *Client) GetSkips(runID string) ([]models.Skip, error) {
	rows, err := c.db.Query(`
		SELECT content_id, run_id, reason, url, created_at
		FROM skipped_content WHERE run_id = ?
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get skips: %w", err)
	}
	defer rows.Close()

	var skips []models.Skip
	for rows.Next() {
		var skip models.Skip
		var url sql.NullString
		var createdAt int64

		if err := rows.Scan(&skip.ContentID, &skip.RunID, &skip.Reason, &url, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		skip.URL = url.String
		skip.CreatedAt = time.Unix(createdAt, 0)
		skips = append(skips, skip)
	}

	return skips, rows.Err()
}
