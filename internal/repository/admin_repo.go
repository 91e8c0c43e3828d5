package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// AdminRepository reflects storage metadata back to the caller: which tables
// exist, how big they are, and what a row looks like. Read-only.
type AdminRepository struct {
	db *pgxpool.Pool
}

func NewAdminRepository(db *pgxpool.Pool) *AdminRepository {
	return &AdminRepository{db: db}
}

type TableInfo struct {
	Name          string   `json:"name"`
	EstimatedRows int64    `json:"estimatedRows"`
	TotalBytes    int64    `json:"totalBytes"`
	Indexes       []string `json:"indexes"`
}

type DatabaseStructure struct {
	Database string      `json:"database"`
	Tables   []TableInfo `json:"tables"`
}

func (r *AdminRepository) Structure(ctx context.Context) (*DatabaseStructure, error) {
	st := &DatabaseStructure{}

	if err := r.db.QueryRow(ctx, `SELECT current_database()`).Scan(&st.Database); err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx,
		`SELECT c.relname,
		        c.reltuples::bigint,
		        pg_total_relation_size(c.oid)
		 FROM pg_class c
		 JOIN pg_namespace n ON n.oid = c.relnamespace
		 WHERE n.nspname = 'public' AND c.relkind = 'r'
		 ORDER BY c.relname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var t TableInfo
		if err := rows.Scan(&t.Name, &t.EstimatedRows, &t.TotalBytes); err != nil {
			return nil, err
		}
		st.Tables = append(st.Tables, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range st.Tables {
		idx, err := r.indexNames(ctx, st.Tables[i].Name)
		if err != nil {
			return nil, err
		}
		st.Tables[i].Indexes = idx
	}
	return st, nil
}

func (r *AdminRepository) indexNames(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.Query(ctx,
		`SELECT indexname FROM pg_indexes WHERE schemaname = 'public' AND tablename = $1`,
		table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

type TableDetail struct {
	Name      string          `json:"name"`
	RowCount  int64           `json:"rowCount"`
	SampleRow json.RawMessage `json:"sampleRow,omitempty"`
}

// TableDetail returns an exact count plus one sample row. The table name is
// checked against pg_class first; it is never interpolated from raw input.
func (r *AdminRepository) TableDetail(ctx context.Context, table string) (*TableDetail, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (
		   SELECT 1 FROM pg_class c
		   JOIN pg_namespace n ON n.oid = c.relnamespace
		   WHERE n.nspname = 'public' AND c.relkind = 'r' AND c.relname = $1
		 )`, table).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, fmt.Errorf("unknown table %q", table)
	}

	d := &TableDetail{Name: table}
	ident := pgxIdent(table)

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM `+ident).Scan(&d.RowCount); err != nil {
		return nil, err
	}

	var sample []byte
	err = r.db.QueryRow(ctx, `SELECT row_to_json(t) FROM `+ident+` t LIMIT 1`).Scan(&sample)
	if err == nil {
		d.SampleRow = json.RawMessage(sample)
	}
	return d, nil
}

func pgxIdent(name string) string {
	return `"` + name + `"`
}
