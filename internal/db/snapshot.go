package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jonathan/talent-pool/internal/types"
)

// LoadFolders returns every saved folder, default first then by creation time.
func (db *DB) LoadFolders(ctx context.Context) ([]types.Folder, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, description, color, is_default, created_at
		 FROM folders ORDER BY is_default DESC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	defer rows.Close()

	var folders []types.Folder
	for rows.Next() {
		var f types.Folder
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Color, &f.IsDefault, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan folder: %w", err)
		}
		folders = append(folders, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load folders: %w", err)
	}
	return folders, nil
}

// LoadCandidates returns every saved candidate.
func (db *DB) LoadCandidates(ctx context.Context) ([]types.Candidate, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, name, position, company, skills, applied_at, summary,
		        folder_id, screening_status, screening_score, last_screening_error
		 FROM candidates ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	defer rows.Close()

	var out []types.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to load candidates: %w", err)
	}
	return out, nil
}

// GetCandidate returns one saved candidate, or nil if it does not exist.
func (db *DB) GetCandidate(ctx context.Context, id string) (*types.Candidate, error) {
	row := db.pool.QueryRow(ctx,
		`SELECT id, name, position, company, skills, applied_at, summary,
		        folder_id, screening_status, screening_score, last_screening_error
		 FROM candidates WHERE id = $1`, id)
	c, err := scanCandidate(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func scanCandidate(row pgx.Row) (types.Candidate, error) {
	var (
		c         types.Candidate
		status    string
		appliedAt *time.Time
	)
	err := row.Scan(&c.ID, &c.Name, &c.Position, &c.Company, &c.Skills, &appliedAt, &c.Summary,
		&c.FolderID, &status, &c.ScreeningScore, &c.LastScreeningError)
	if err != nil {
		if err == pgx.ErrNoRows {
			return types.Candidate{}, err
		}
		return types.Candidate{}, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if appliedAt != nil {
		c.AppliedAt = appliedAt.UTC()
	}
	c.ScreeningStatus = types.ScreeningStatus(status)
	if len(c.Skills) == 0 {
		c.Skills = nil
	}
	return c, nil
}

// SaveSnapshot replaces the stored state with the given folders and
// candidates in one transaction. Rows absent from the snapshot are removed.
func (db *DB) SaveSnapshot(ctx context.Context, folders []types.Folder, cands []types.Candidate) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The single-default index would reject a default swap mid-upsert
	if _, err := tx.Exec(ctx, `UPDATE folders SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("failed to clear default folder: %w", err)
	}

	batch := &pgx.Batch{}
	for _, f := range folders {
		batch.Queue(
			`INSERT INTO folders (id, name, description, color, is_default, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (id) DO UPDATE SET
			     name = $2, description = $3, color = $4, is_default = $5`,
			f.ID, f.Name, f.Description, f.Color, f.IsDefault, createdAt(f.CreatedAt),
		)
	}
	for _, c := range cands {
		skills := c.Skills
		if skills == nil {
			skills = []string{}
		}
		batch.Queue(
			`INSERT INTO candidates (id, name, position, company, skills, applied_at, summary,
			                         folder_id, screening_status, screening_score, last_screening_error)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			 ON CONFLICT (id) DO UPDATE SET
			     name = $2, position = $3, company = $4, skills = $5, applied_at = $6, summary = $7,
			     folder_id = $8, screening_status = $9, screening_score = $10,
			     last_screening_error = $11, updated_at = NOW()`,
			c.ID, c.Name, c.Position, c.Company, skills, nullTime(c.AppliedAt), c.Summary,
			c.FolderID, string(c.ScreeningStatus), c.ScreeningScore, c.LastScreeningError,
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}

	candidateIDs := make([]string, len(cands))
	for i, c := range cands {
		candidateIDs[i] = c.ID
	}
	if _, err := tx.Exec(ctx, `DELETE FROM candidates WHERE NOT (id = ANY($1))`, candidateIDs); err != nil {
		return fmt.Errorf("failed to prune candidates: %w", err)
	}

	folderIDs := make([]string, len(folders))
	for i, f := range folders {
		folderIDs[i] = f.ID
	}
	if _, err := tx.Exec(ctx, `DELETE FROM folders WHERE NOT (id = ANY($1))`, folderIDs); err != nil {
		return fmt.Errorf("failed to prune folders: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func createdAt(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}
