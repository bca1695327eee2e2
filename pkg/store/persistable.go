package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/richard-senior/matchodds/internal/logger"
)

// ErrNotFound is returned when a lookup by primary key matches no row
var ErrNotFound = errors.New("record not found")

// Persistable interface defines methods that persistent objects must implement.
// Columns are described with struct tags:
//
//	column:"name"     column name, defaults to the lower cased field name
//	dbtype:"TEXT"     column definition, fields without one are not persisted
//	primary:"true"    part of the (possibly compound) primary key
//	index:"true"      gets a secondary index
//	fk:"table.column" foreign key, with optional fk_delete / fk_update actions
type Persistable interface {
	GetTableName() string
	GetPrimaryKey() map[string]any
	BeforeSave() error
	AfterSave() error
	BeforeDelete() error
	AfterDelete() error
}

// NoHooks can be embedded by persistables that need no lifecycle hooks
type NoHooks struct{}

func (NoHooks) BeforeSave() error   { return nil }
func (NoHooks) AfterSave() error    { return nil }
func (NoHooks) BeforeDelete() error { return nil }
func (NoHooks) AfterDelete() error  { return nil }

// queryer is satisfied by both *sql.DB and *sql.Tx
type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Session runs persistence operations against either the database or an open transaction
type Session struct {
	q      queryer
	driver string
}

// Handle is anything the generic finders can read through: a *DB or a *Session
type Handle interface {
	session() *Session
}

func (s *Session) session() *Session { return s }

// Driver returns "sqlite" or "postgres"
func (s *Session) Driver() string { return s.driver }

// rebind rewrites ? placeholders into $n for postgres
func (s *Session) rebind(query string) string {
	if s.driver != DriverPostgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Exec runs a raw statement, rebinding placeholders for the active driver
func (s *Session) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.q.ExecContext(ctx, s.rebind(query), args...)
}

// QueryRow runs a raw single row query, rebinding placeholders for the active driver
func (s *Session) QueryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.q.QueryRowContext(ctx, s.rebind(query), args...)
}

// CreateTable creates a table for the given persistable object using struct tags
func (s *Session) CreateTable(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	createSQL := generateCreateTableSQL(obj, tableName)

	logger.Debug("Creating table with SQL", createSQL)

	if _, err := s.q.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create table %s: %w", tableName, err)
	}

	for _, query := range generateIndexSQL(obj, tableName) {
		logger.Debug("Creating index with SQL", query)
		if _, err := s.q.ExecContext(ctx, query); err != nil {
			logger.Warn("Failed to create index", err)
		}
	}
	return nil
}

// CreateTables creates every table in order, stopping at the first failure
func (s *Session) CreateTables(ctx context.Context, objs ...Persistable) error {
	for _, obj := range objs {
		if err := s.CreateTable(ctx, obj); err != nil {
			return err
		}
	}
	return nil
}

// Save persists the object to the database (INSERT or UPDATE)
func (s *Session) Save(ctx context.Context, obj Persistable) error {
	if err := obj.BeforeSave(); err != nil {
		return fmt.Errorf("before save hook failed: %w", err)
	}

	exists, err := s.Exists(ctx, obj)
	if err != nil {
		return fmt.Errorf("failed to check existence: %w", err)
	}
	if exists {
		err = s.update(ctx, obj)
	} else {
		err = s.Insert(ctx, obj)
	}
	if err != nil {
		return err
	}

	if err := obj.AfterSave(); err != nil {
		return fmt.Errorf("after save hook failed: %w", err)
	}
	return nil
}

// Insert adds a new record, failing if the primary key is already taken
func (s *Session) Insert(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	columns, placeholders, values := getInsertData(obj)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		tableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	logger.Debug("Insert SQL", query)

	if _, err := s.q.ExecContext(ctx, s.rebind(query), values...); err != nil {
		return fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}
	return nil
}

func (s *Session) update(ctx context.Context, obj Persistable) error {
	tableName := obj.GetTableName()
	setPairs, values := getUpdateData(obj)
	if len(setPairs) == 0 {
		return nil
	}

	whereClause, whereValues := buildWhereClause(obj.GetPrimaryKey())
	values = append(values, whereValues...)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s", tableName, strings.Join(setPairs, ", "), whereClause)

	logger.Debug("Update SQL", query)

	if _, err := s.q.ExecContext(ctx, s.rebind(query), values...); err != nil {
		return fmt.Errorf("failed to update %s: %w", tableName, err)
	}
	return nil
}

// Exists checks if the object exists in the database
func (s *Session) Exists(ctx context.Context, obj Persistable) (bool, error) {
	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE %s", tableName, whereClause)

	var count int
	if err := s.q.QueryRowContext(ctx, s.rebind(query), values...).Scan(&count); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return count > 0, nil
}

// Count returns the number of rows matching a where clause, or all rows when it is empty
func (s *Session) Count(ctx context.Context, obj Persistable, whereClause string, args ...any) (int, error) {
	tableName := obj.GetTableName()
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", tableName)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}
	var count int
	if err := s.q.QueryRowContext(ctx, s.rebind(query), args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", tableName, err)
	}
	return count, nil
}

// Delete removes the object from the database
func (s *Session) Delete(ctx context.Context, obj Persistable) error {
	if err := obj.BeforeDelete(); err != nil {
		return fmt.Errorf("before delete hook failed: %w", err)
	}

	tableName := obj.GetTableName()
	whereClause, values := buildWhereClause(obj.GetPrimaryKey())

	query := fmt.Sprintf("DELETE FROM %s WHERE %s", tableName, whereClause)

	if _, err := s.q.ExecContext(ctx, s.rebind(query), values...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", tableName, err)
	}

	if err := obj.AfterDelete(); err != nil {
		return fmt.Errorf("after delete hook failed: %w", err)
	}
	return nil
}

// FindByPrimaryKey loads the row matching primaryKey into obj
func (s *Session) FindByPrimaryKey(ctx context.Context, obj Persistable, primaryKey map[string]any) error {
	tableName := obj.GetTableName()
	columns, destinations := getSelectData(obj)
	whereClause, values := buildWhereClause(primaryKey)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s", strings.Join(columns, ", "), tableName, whereClause)

	logger.Debug("FindByPrimaryKey SQL", query)

	err := s.q.QueryRowContext(ctx, s.rebind(query), values...).Scan(destinations...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w in %s", ErrNotFound, tableName)
		}
		return fmt.Errorf("failed to scan row from %s: %w", tableName, err)
	}
	return nil
}

// ptrPersistable constrains the generic finders to pointer types implementing Persistable
type ptrPersistable[T any] interface {
	*T
	Persistable
}

// FindAll retrieves all records of the given type
func FindAll[T any, PT ptrPersistable[T]](ctx context.Context, h Handle) ([]PT, error) {
	return FindWhere[T, PT](ctx, h, "")
}

// FindWhere executes a custom WHERE query, the clause may carry ORDER BY and LIMIT too
func FindWhere[T any, PT ptrPersistable[T]](ctx context.Context, h Handle, whereClause string, args ...any) ([]PT, error) {
	s := h.session()
	var zero T
	tableName := PT(&zero).GetTableName()
	columns, _ := getSelectData(&zero)

	query := fmt.Sprintf("SELECT %s FROM %s", strings.Join(columns, ", "), tableName)
	if whereClause != "" {
		query += " WHERE " + whereClause
	}

	logger.Debug("FindWhere SQL", query)

	rows, err := s.q.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", tableName, err)
	}
	defer rows.Close()

	var results []PT
	for rows.Next() {
		newObj := PT(new(T))
		_, destinations := getSelectData(newObj)
		if err := rows.Scan(destinations...); err != nil {
			return nil, fmt.Errorf("failed to scan row from %s: %w", tableName, err)
		}
		results = append(results, newObj)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows from %s: %w", tableName, err)
	}
	return results, nil
}

// generateCreateTableSQL generates CREATE TABLE SQL from struct tags
func generateCreateTableSQL(obj any, tableName string) string {
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	var columns []string
	var primaryKeys []string
	var foreignKeys []string

	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !persisted(field) {
			continue
		}

		dbType := field.Tag.Get("dbtype")
		columnName := columnFor(field)

		if field.Tag.Get("primary") == "true" {
			primaryKeys = append(primaryKeys, columnName)
			dbType = strings.TrimSpace(strings.ReplaceAll(dbType, "PRIMARY KEY", ""))
		}

		columns = append(columns, fmt.Sprintf("%s %s", columnName, dbType))

		// format: "table.column"
		if fkRef := field.Tag.Get("fk"); fkRef != "" {
			fkParts := strings.Split(fkRef, ".")
			if len(fkParts) == 2 {
				onDelete := field.Tag.Get("fk_delete")
				if onDelete == "" {
					onDelete = "RESTRICT"
				}
				onUpdate := field.Tag.Get("fk_update")
				if onUpdate == "" {
					onUpdate = "RESTRICT"
				}
				foreignKeys = append(foreignKeys, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s) ON DELETE %s ON UPDATE %s",
					columnName, fkParts[0], fkParts[1], onDelete, onUpdate))
			}
		}
	}

	if len(primaryKeys) > 0 {
		columns = append(columns, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(primaryKeys, ", ")))
	}
	columns = append(columns, foreignKeys...)

	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", tableName, strings.Join(columns, ", "))
}

// generateIndexSQL generates index creation SQL from struct tags
func generateIndexSQL(obj any, tableName string) []string {
	objType := reflect.TypeOf(obj)
	if objType.Kind() == reflect.Ptr {
		objType = objType.Elem()
	}

	var indexSQL []string
	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if field.Tag.Get("index") == "" || !persisted(field) {
			continue
		}
		columnName := columnFor(field)
		indexName := fmt.Sprintf("idx_%s_%s", tableName, columnName)
		indexSQL = append(indexSQL, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s(%s)", indexName, tableName, columnName))
	}
	return indexSQL
}

func persisted(field reflect.StructField) bool {
	if !field.IsExported() {
		return false
	}
	if field.Tag.Get("persist") == "false" || field.Tag.Get("db") == "-" {
		return false
	}
	return field.Tag.Get("dbtype") != ""
}

func columnFor(field reflect.StructField) string {
	if c := field.Tag.Get("column"); c != "" {
		return c
	}
	return strings.ToLower(field.Name)
}

// getInsertData extracts column names, placeholders, and values for INSERT
func getInsertData(obj any) ([]string, []string, []any) {
	objValue := reflect.Indirect(reflect.ValueOf(obj))
	objType := objValue.Type()

	var columns []string
	var placeholders []string
	var values []any

	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !persisted(field) {
			continue
		}
		columns = append(columns, columnFor(field))
		placeholders = append(placeholders, "?")
		values = append(values, objValue.Field(i).Interface())
	}
	return columns, placeholders, values
}

// getUpdateData extracts SET pairs and values for UPDATE, primary key columns excluded
func getUpdateData(obj any) ([]string, []any) {
	objValue := reflect.Indirect(reflect.ValueOf(obj))
	objType := objValue.Type()

	var setPairs []string
	var values []any

	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !persisted(field) || field.Tag.Get("primary") == "true" {
			continue
		}
		setPairs = append(setPairs, fmt.Sprintf("%s = ?", columnFor(field)))
		values = append(values, objValue.Field(i).Interface())
	}
	return setPairs, values
}

// getSelectData extracts column names and scan destinations for SELECT
func getSelectData(obj any) ([]string, []any) {
	objValue := reflect.Indirect(reflect.ValueOf(obj))
	objType := objValue.Type()

	var columns []string
	var destinations []any

	for i := 0; i < objType.NumField(); i++ {
		field := objType.Field(i)
		if !persisted(field) {
			continue
		}
		columns = append(columns, columnFor(field))
		destinations = append(destinations, objValue.Field(i).Addr().Interface())
	}
	return columns, destinations
}

// buildWhereClause builds a WHERE clause from a primary key map.
// Columns are sorted so the generated SQL is stable between calls.
func buildWhereClause(primaryKey map[string]any) (string, []any) {
	keys := make([]string, 0, len(primaryKey))
	for column := range primaryKey {
		keys = append(keys, column)
	}
	sort.Strings(keys)

	conditions := make([]string, 0, len(keys))
	values := make([]any, 0, len(keys))
	for _, column := range keys {
		conditions = append(conditions, fmt.Sprintf("%s = ?", column))
		values = append(values, primaryKey[column])
	}
	return strings.Join(conditions, " AND "), values
}
