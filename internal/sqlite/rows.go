package sqlite

import (
	"fmt"
	"strings"

	"github.com/mesh-intelligence/geostyle/pkg/types"
)

// insertRow writes row as a new record and assigns the generated id to it.
func insertRow(q querier, row *types.Row) error {
	if missing := row.Missing(); len(missing) > 0 {
		return &types.ValidationError{
			Column: missing[0],
			Reason: "must not be null",
		}
	}

	schema := row.Schema()
	values := row.Values()
	var columns, marks []string
	var args []any
	for i, c := range schema.Columns {
		if c.PrimaryKey && values[i] == nil {
			continue
		}
		columns = append(columns, quoteIdent(c.Name))
		marks = append(marks, "?")
		args = append(args, values[i])
	}

	res, err := q.Exec(fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteIdent(schema.Name), strings.Join(columns, ", "), strings.Join(marks, ", ")), args...)
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", schema.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("inserting into %s: %w", schema.Name, err)
	}
	row.SetID(id)
	return nil
}

// updateRow rewrites every non-key column of the stored record with row's
// id. Returns ErrNotFound when no record has that id.
func updateRow(q querier, row *types.Row) error {
	schema := row.Schema()
	pk, ok := schema.PrimaryKey()
	if !ok {
		return fmt.Errorf("updating %s: %w", schema.Name, types.ErrInvalidID)
	}
	if missing := row.Missing(); len(missing) > 0 {
		return &types.ValidationError{Column: missing[0], Reason: "must not be null"}
	}

	values := row.Values()
	var sets []string
	var args []any
	for i, c := range schema.Columns {
		if c.PrimaryKey {
			continue
		}
		sets = append(sets, quoteIdent(c.Name)+" = ?")
		args = append(args, values[i])
	}
	args = append(args, row.ID())

	res, err := q.Exec(fmt.Sprintf("UPDATE %s SET %s WHERE %s = ?",
		quoteIdent(schema.Name), strings.Join(sets, ", "), quoteIdent(pk.Name)), args...)
	if err != nil {
		return fmt.Errorf("updating %s %d: %w", schema.Name, row.ID(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("updating %s %d: %w", schema.Name, row.ID(), err)
	}
	if n == 0 {
		return fmt.Errorf("updating %s %d: %w", schema.Name, row.ID(), types.ErrNotFound)
	}
	return nil
}

// saveRow inserts a row without an id and updates one that has an id.
func saveRow(q querier, row *types.Row) (int64, error) {
	if row.HasID() {
		if err := updateRow(q, row); err != nil {
			return 0, err
		}
		return row.ID(), nil
	}
	if err := insertRow(q, row); err != nil {
		return 0, err
	}
	return row.ID(), nil
}

// getRow loads the record with id, or nil when there is none.
func getRow(q querier, schema *types.TableSchema, id int64) (*types.Row, error) {
	rows, err := getRows(q, schema, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[id], nil
}

// getRows loads the records with the given ids, keyed by id. Ids with no
// record are absent from the result.
func getRows(q querier, schema *types.TableSchema, ids []int64) (map[int64]*types.Row, error) {
	out := make(map[int64]*types.Row, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	pk, ok := schema.PrimaryKey()
	if !ok {
		return nil, fmt.Errorf("reading %s: %w", schema.Name, types.ErrInvalidID)
	}

	columns := make([]string, len(schema.Columns))
	for i, c := range schema.Columns {
		columns[i] = quoteIdent(c.Name)
	}
	marks := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		marks[i] = "?"
		args[i] = id
	}

	rows, err := q.Query(fmt.Sprintf("SELECT %s FROM %s WHERE %s IN (%s)",
		strings.Join(columns, ", "), quoteIdent(schema.Name), quoteIdent(pk.Name), strings.Join(marks, ", ")), args...)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", schema.Name, err)
	}
	defer rows.Close()

	for rows.Next() {
		values := make([]any, len(schema.Columns))
		ptrs := make([]any, len(values))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", schema.Name, err)
		}
		row, err := types.LoadRow(schema, values)
		if err != nil {
			return nil, err
		}
		out[row.ID()] = row
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", schema.Name, err)
	}
	return out, nil
}
