package service

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
)

// ApplySQLFile executes a generated SQL file statement by statement, one
// statement per line. Statements are not wrapped in a transaction; on
// failure the error names the line so the remainder can be inspected and
// rerun by hand.
func ApplySQLFile(ctx context.Context, db *sql.DB, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	executed := 0
	lineNo := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		stmt := strings.TrimSpace(scanner.Text())
		if stmt == "" || strings.HasPrefix(stmt, "--") {
			continue
		}

		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return executed, fmt.Errorf("statement at line %d failed: %w", lineNo, err)
		}
		executed++
	}

	if err := scanner.Err(); err != nil {
		return executed, fmt.Errorf("failed to read %s: %w", path, err)
	}

	return executed, nil
}
