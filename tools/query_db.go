package tools

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"ayyy/internal/fsops"
)

type QueryDatabaseInput struct {
	Query        string `json:"query" jsonschema_description:"SQL query to execute (read-only: SELECT or WITH)."`
	DatabasePath string `json:"database_path" jsonschema_description:"Relative path to the SQLite database within the workspace."`
}

var QueryDatabaseInputSchema = GenerateSchema[QueryDatabaseInput]()

var QueryDatabaseDefinition = ToolDefinition{
	Name:        "query_database",
	Description: "Execute a read-only SQL query on a SQLite database within the workspace; returns rows as JSON.",
	InputSchema: QueryDatabaseInputSchema,
	Function:    QueryDatabase,
}

const maxQueryRows = 200

func QueryDatabase(ctx context.Context, input json.RawMessage) (string, error) {
	var in QueryDatabaseInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", err
	}

	q := strings.TrimSpace(in.Query)
	upper := strings.ToUpper(q)
	if !strings.HasPrefix(upper, "SELECT") && !strings.HasPrefix(upper, "WITH") {
		return "", fmt.Errorf("only SELECT/WITH queries are allowed")
	}

	absPath, err := fsops.ResolveReadPath(in.DatabasePath)
	if err != nil {
		return "", err
	}

	db, err := sql.Open("sqlite", "file:"+absPath+"?mode=ro")
	if err != nil {
		return "", fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return "", fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return "", err
	}

	var out []map[string]any
	for rows.Next() {
		if len(out) >= maxQueryRows {
			break
		}
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return "", err
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			v := vals[i]
			// Byte slices are almost always TEXT in SQLite; surface as strings.
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[c] = v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
