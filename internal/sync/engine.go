package sync

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Database is the slice of pgxpool.Pool the engine needs. pgxmock satisfies
// it as well.
type Database interface {
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// PushResult is the per-record outcome of a bulk push.
type PushResult struct {
	ID      interface{} `json:"id"`
	Success bool        `json:"success"`
}

// Engine implements the generic pull/push algorithm over one EntitySchema.
// All per-entity behavior is table-driven; the engine itself has no knowledge
// of any concrete record type.
type Engine struct {
	db     Database
	schema EntitySchema
}

// NewEngine creates an engine for one entity schema.
func NewEngine(db Database, schema EntitySchema) *Engine {
	return &Engine{db: db, schema: schema}
}

// Schema returns the engine's schema declaration.
func (e *Engine) Schema() EntitySchema {
	return e.schema
}

// Pull returns the tenant's records ordered by the schema's order column.
// Soft-deleted rows are excluded unless includeRemoved is set. An empty
// customerAPIID yields an empty result, not an error.
func (e *Engine) Pull(ctx context.Context, customerAPIID string, includeRemoved bool) ([]Record, error) {
	customerAPIID = strings.TrimSpace(customerAPIID)
	if customerAPIID == "" {
		return []Record{}, nil
	}

	query := fmt.Sprintf(
		`SELECT %s FROM %s WHERE %s = $1`,
		e.columnList(), quoteIdent(e.schema.Table), quoteIdent(TenantColumn),
	)
	if e.schema.SoftDelete != "" && !includeRemoved {
		query += fmt.Sprintf(` AND COALESCE(%s, FALSE) = FALSE`, quoteIdent(e.schema.SoftDelete))
	}
	query += fmt.Sprintf(` ORDER BY %s ASC`, quoteIdent(e.schema.OrderColumn()))

	rows, err := e.db.Query(ctx, query, customerAPIID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		record := make(Record, len(e.schema.Columns))
		for i, column := range e.schema.Columns {
			if i < len(values) {
				record[column] = values[i]
			}
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// Push applies records one at a time: insert when the identity is unknown,
// update otherwise. A record without an identity fails when the schema is
// caller-keyed and gets a minted uuid otherwise. A record whose write fails
// at the storage layer is reported as a per-record failure; the rest of the
// batch always continues.
func (e *Engine) Push(ctx context.Context, customerAPIID string, records []Record) []PushResult {
	customerAPIID = strings.TrimSpace(customerAPIID)

	results := make([]PushResult, 0, len(records))
	for _, record := range records {
		identity := NormalizeIdentity(e.recordIdentity(record))
		if identity == nil && !e.schema.CallerKey && customerAPIID != "" {
			identity = uuid.New().String()
		}
		result := PushResult{ID: identity}

		if customerAPIID == "" || identity == nil {
			results = append(results, result)
			continue
		}

		exists, err := e.recordExists(ctx, identity)
		if err == nil {
			if exists {
				err = e.update(ctx, record, customerAPIID, identity)
			} else {
				err = e.insert(ctx, record, customerAPIID, identity)
			}
		}
		if err != nil {
			log.Printf("ERROR: sync push %s: %v", e.schema.Table, err)
		} else {
			result.Success = true
		}

		results = append(results, result)
	}

	return results
}

// recordIdentity reads the sync identity from the record's primary-key
// column, accepting the generic "identity" key as an alias.
func (e *Engine) recordIdentity(record Record) interface{} {
	if v, ok := record[e.schema.PrimaryKey]; ok {
		return v
	}
	return record["identity"]
}

func (e *Engine) recordExists(ctx context.Context, identity interface{}) (bool, error) {
	query := fmt.Sprintf(
		`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1)`,
		quoteIdent(e.schema.Table), quoteIdent(e.schema.PrimaryKey),
	)
	var exists bool
	if err := e.db.QueryRow(ctx, query, identity).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (e *Engine) insert(ctx context.Context, record Record, customerAPIID string, identity interface{}) error {
	columns, values := e.filterColumns(record, customerAPIID, identity, true)

	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, column := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		quoted[i] = quoteIdent(column)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (%s) VALUES (%s)`,
		quoteIdent(e.schema.Table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "),
	)
	_, err := e.db.Exec(ctx, query, values...)
	return err
}

func (e *Engine) update(ctx context.Context, record Record, customerAPIID string, identity interface{}) error {
	columns, values := e.filterColumns(record, customerAPIID, identity, false)
	if len(columns) == 0 {
		return nil
	}

	assignments := make([]string, len(columns))
	for i, column := range columns {
		assignments[i] = fmt.Sprintf("%s = $%d", quoteIdent(column), i+1)
	}

	query := fmt.Sprintf(
		`UPDATE %s SET %s WHERE %s = $%d`,
		quoteIdent(e.schema.Table), strings.Join(assignments, ", "),
		quoteIdent(e.schema.PrimaryKey), len(columns)+1,
	)
	_, err := e.db.Exec(ctx, query, append(values, identity)...)
	return err
}

// filterColumns builds the write payload restricted to declared columns in
// schema order. The tenant column is always forced to the caller's id. On
// insert the primary key carries the identity and an omitted soft-delete
// column defaults to not-removed; on update both the primary key and columns
// absent from the input are left untouched.
func (e *Engine) filterColumns(record Record, customerAPIID string, identity interface{}, forInsert bool) ([]string, []interface{}) {
	columns := make([]string, 0, len(e.schema.Columns))
	values := make([]interface{}, 0, len(e.schema.Columns))

	for _, column := range e.schema.Columns {
		switch {
		case column == TenantColumn:
			columns = append(columns, column)
			values = append(values, customerAPIID)
		case column == e.schema.PrimaryKey:
			if forInsert {
				columns = append(columns, column)
				values = append(values, identity)
			}
		default:
			value, present := record[column]
			if !present {
				if forInsert && column == e.schema.SoftDelete {
					columns = append(columns, column)
					values = append(values, false)
				}
				continue
			}
			columns = append(columns, column)
			values = append(values, e.schema.NormalizeValue(column, value))
		}
	}

	return columns, values
}

func (e *Engine) columnList() string {
	quoted := make([]string, len(e.schema.Columns))
	for i, column := range e.schema.Columns {
		quoted[i] = quoteIdent(column)
	}
	return strings.Join(quoted, ", ")
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
