package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// UpsertModel builds a single-row INSERT from the db-tagged fields of model.
// On a conflict over conflictColumn every other column is overwritten.
func UpsertModel(table string, model any, conflictColumn string) (string, []any, error) {
	if strings.TrimSpace(table) == "" {
		return "", nil, fmt.Errorf("upsert table is required")
	}
	cols, vals, err := columnsAndValuesFromModel(model)
	if err != nil {
		return "", nil, err
	}

	placeholders := make([]string, len(cols))
	updates := make([]string, 0, len(cols))
	conflictFound := false
	for i, col := range cols {
		placeholders[i] = placeholder(i + 1)
		if col == conflictColumn {
			conflictFound = true
			continue
		}
		updates = append(updates, col+" = EXCLUDED."+col)
	}
	if !conflictFound {
		return "", nil, fmt.Errorf("conflict column %q is not a model column", conflictColumn)
	}

	var buf strings.Builder
	buf.WriteString("INSERT INTO " + table + " (" + strings.Join(cols, ", ") + ")")
	buf.WriteString(" VALUES (" + strings.Join(placeholders, ", ") + ")")
	buf.WriteString(" ON CONFLICT (" + conflictColumn + ")")
	if len(updates) == 0 {
		buf.WriteString(" DO NOTHING")
	} else {
		buf.WriteString(" DO UPDATE SET " + strings.Join(updates, ", "))
	}
	return buf.String(), vals, nil
}

func columnsAndValuesFromModel(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		col, _, _ := strings.Cut(field.Tag.Get("db"), ",")
		col = strings.TrimSpace(col)
		if col == "" || col == "-" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}
