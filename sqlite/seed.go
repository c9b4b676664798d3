package sqlite

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	iofs "io/fs"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fwojciec/analyst"
)

// SeedResult reports one imported table.
type SeedResult struct {
	Table string
	File  string
	Rows  int
}

// Seed imports every CSV file in fsys matching pattern as a table named after
// the file, replacing any existing table of that name. The first record is
// the header. Column types are inferred: INTEGER when every non-empty cell is
// an integer, REAL when every one is numeric, TEXT otherwise. Empty cells
// become NULL.
func Seed(ctx context.Context, db *DB, fsys iofs.FS, pattern string) ([]SeedResult, error) {
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("sqlite: invalid glob pattern %q: %w", pattern, analyst.ErrValidation)
	}
	var files []string
	err := doublestar.GlobWalk(fsys, pattern, func(p string, d iofs.DirEntry) error {
		if d.IsDir() || !strings.EqualFold(path.Ext(p), ".csv") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sqlite: match %q: %w", pattern, err)
	}

	var out []SeedResult
	for _, f := range files {
		n, err := seedFile(ctx, db, fsys, f)
		if err != nil {
			return out, err
		}
		out = append(out, SeedResult{Table: tableName(f), File: f, Rows: n})
	}
	return out, nil
}

func tableName(p string) string {
	base := path.Base(p)
	return strings.TrimSuffix(base, path.Ext(base))
}

func seedFile(ctx context.Context, db *DB, fsys iofs.FS, name string) (int, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return 0, fmt.Errorf("sqlite: open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("sqlite: %s has no header: %w", name, analyst.ErrValidation)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: read %s: %w", name, err)
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")
	records, err := r.ReadAll()
	if err != nil {
		return 0, fmt.Errorf("sqlite: read %s: %w", name, err)
	}

	types := inferTypes(header, records)
	table := tableName(name)

	tx, err := db.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: seed %s: %w", table, err)
	}
	defer func() { _ = tx.Rollback() }()

	cols := make([]string, len(header))
	marks := make([]string, len(header))
	for i, h := range header {
		cols[i] = quote(strings.TrimSpace(h)) + " " + types[i]
		marks[i] = "?"
	}
	stmts := []string{
		"DROP TABLE IF EXISTS " + quote(table),
		"CREATE TABLE " + quote(table) + " (" + strings.Join(cols, ", ") + ")",
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return 0, fmt.Errorf("sqlite: seed %s: %w", table, err)
		}
	}

	ins, err := tx.PrepareContext(ctx, "INSERT INTO "+quote(table)+" VALUES ("+strings.Join(marks, ", ")+")")
	if err != nil {
		return 0, fmt.Errorf("sqlite: seed %s: %w", table, err)
	}
	defer ins.Close()

	args := make([]any, len(header))
	for line, rec := range records {
		for i := range header {
			args[i] = nil
			if i < len(rec) {
				args[i] = convert(strings.TrimSpace(rec[i]), types[i])
			}
		}
		if _, err := ins.ExecContext(ctx, args...); err != nil {
			return 0, fmt.Errorf("sqlite: seed %s line %d: %w", table, line+2, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: seed %s: %w", table, err)
	}
	return len(records), nil
}

func inferTypes(header []string, records [][]string) []string {
	types := make([]string, len(header))
	for i := range header {
		isInt, isNum, seen := true, true, false
		for _, rec := range records {
			if i >= len(rec) {
				continue
			}
			v := strings.TrimSpace(rec[i])
			if v == "" {
				continue
			}
			seen = true
			if _, err := strconv.ParseInt(v, 10, 64); err != nil {
				isInt = false
			}
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				isNum = false
				break
			}
		}
		switch {
		case !seen:
			types[i] = "TEXT"
		case isInt:
			types[i] = "INTEGER"
		case isNum:
			types[i] = "REAL"
		default:
			types[i] = "TEXT"
		}
	}
	return types
}

func convert(v, typ string) any {
	if v == "" {
		return nil
	}
	switch typ {
	case "INTEGER":
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	case "REAL":
		f, _ := strconv.ParseFloat(v, 64)
		return f
	}
	return v
}
