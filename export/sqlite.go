package export

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/greedsolver/greed/game"
	"github.com/greedsolver/greed/policy"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS ruleset (
	max_score   INTEGER NOT NULL,
	sides       INTEGER NOT NULL,
	convention  TEXT NOT NULL,
	fingerprint TEXT NOT NULL,
	PRIMARY KEY (max_score, sides)
);
CREATE TABLE IF NOT EXISTS policy (
	max_score INTEGER NOT NULL,
	sides     INTEGER NOT NULL,
	active    INTEGER NOT NULL,
	queued    INTEGER NOT NULL,
	last      INTEGER NOT NULL,
	n         INTEGER NOT NULL,
	value     REAL NOT NULL,
	PRIMARY KEY (max_score, sides, active, queued, last)
);`

func openSQLite(path string) (*sql.DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", filepath.Clean(path)+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return db, nil
}

// WriteSQLite stores the table in the database at path, replacing any table
// already stored for the same ruleset. One file can hold many rulesets.
func WriteSQLite(ctx context.Context, path string, t *policy.Table, c Convention) (err error) {
	db, err := openSQLite(path)
	if err != nil {
		return err
	}
	defer db.Close()

	rules := t.Ruleset()
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if _, err = tx.ExecContext(ctx, `DELETE FROM policy WHERE max_score = ? AND sides = ?`, rules.Max, rules.Sides); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO ruleset (max_score, sides, convention, fingerprint) VALUES (?, ?, ?, ?)`,
		rules.Max, rules.Sides, c.String(), fmt.Sprintf("%016x", t.Fingerprint())); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO policy (max_score, sides, active, queued, last, n, value) VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	t.Each(func(s game.State, e policy.Entry) {
		if err != nil {
			return
		}
		_, err = stmt.ExecContext(ctx, rules.Max, rules.Sides, s.Active, s.Queued, s.Final, e.N, c.Encode(e.Value))
	})
	if err != nil {
		return fmt.Errorf("insert policy rows: %w", err)
	}
	return tx.Commit()
}

// ReadSQLite loads the table stored for rules.
func ReadSQLite(ctx context.Context, path string, rules game.Ruleset) (*policy.Table, Convention, error) {
	db, err := openSQLite(path)
	if err != nil {
		return nil, 0, err
	}
	defer db.Close()

	var convName string
	err = db.QueryRowContext(ctx, `SELECT convention FROM ruleset WHERE max_score = ? AND sides = ?`,
		rules.Max, rules.Sides).Scan(&convName)
	if err == sql.ErrNoRows {
		return nil, 0, fmt.Errorf("no table stored for %v", rules)
	}
	if err != nil {
		return nil, 0, err
	}
	conv, err := ParseConvention(convName)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	rows, err := db.QueryContext(ctx,
		`SELECT active, queued, last, n, value FROM policy WHERE max_score = ? AND sides = ?`,
		rules.Max, rules.Sides)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	rb, err := newRowBuilder(rules)
	if err != nil {
		return nil, 0, err
	}
	for rows.Next() {
		var row Row
		if err := rows.Scan(&row.Active, &row.Queued, &row.Last, &row.N, &row.Value); err != nil {
			return nil, 0, err
		}
		row.Value = conv.Decode(row.Value)
		if err := rb.add(row); err != nil {
			return nil, 0, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	t, err := rb.build()
	if err != nil {
		return nil, 0, err
	}
	return t, conv, nil
}
