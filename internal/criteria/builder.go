package criteria

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	// ErrInvalidProperty is returned when a property does not resolve to a
	// mapped column of the target entity.
	ErrInvalidProperty = errors.New("invalid property")
	// ErrEmptyValue is returned when the query value holder is empty.
	ErrEmptyValue = errors.New("query value is empty")
)

// TypedQuery is a query over entity type T that has been built but not run.
type TypedQuery[T any] struct {
	where *gorm.DB // filtered, unpaged
	db    *gorm.DB // filtered, possibly paged
}

// GetQuery builds a query selecting every T whose property is LIKE the
// query value. The value is rendered with fmt.Sprint. Nothing is sent to
// the database until one of the TypedQuery execution methods is called.
func GetQuery[T any](q Query, db *gorm.DB) (*TypedQuery[T], error) {
	if q == nil {
		return nil, errors.New("query cannot be nil")
	}
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}

	model := new(T)
	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(model); err != nil {
		return nil, fmt.Errorf("failed to parse entity schema: %w", err)
	}

	field := stmt.Schema.LookUpField(q.Property())
	if field == nil || field.DBName == "" {
		return nil, fmt.Errorf("%w: %q on %s", ErrInvalidProperty, q.Property(), stmt.Schema.Name)
	}

	var raw any
	ok := false
	if v := q.Value(); v != nil {
		raw, ok = v.Get()
	}
	if !ok {
		return nil, fmt.Errorf("%w: property %q", ErrEmptyValue, q.Property())
	}

	predicate := clause.Expr{
		SQL: "? LIKE ? ESCAPE '\\'",
		Vars: []any{
			clause.Column{Table: clause.CurrentTable, Name: field.DBName},
			fmt.Sprint(raw),
		},
	}

	where := db.Session(&gorm.Session{NewDB: true}).
		Model(model).
		Where(predicate).
		Session(&gorm.Session{})

	return &TypedQuery[T]{where: where, db: where}, nil
}

// Page returns a copy of the query restricted to limit rows starting at
// offset. Paging an already paged query replaces the previous window.
func (q *TypedQuery[T]) Page(offset, limit int) *TypedQuery[T] {
	return &TypedQuery[T]{
		where: q.where,
		db:    q.db.Offset(offset).Limit(limit).Session(&gorm.Session{}),
	}
}

// OrderBy returns a copy of the query sorted by column.
func (q *TypedQuery[T]) OrderBy(column string, desc bool) *TypedQuery[T] {
	order := clause.OrderByColumn{Column: clause.Column{Table: clause.CurrentTable, Name: column}, Desc: desc}
	return &TypedQuery[T]{
		where: q.where,
		db:    q.db.Order(order).Session(&gorm.Session{}),
	}
}

// Find runs the query and returns every matching row.
func (q *TypedQuery[T]) Find(ctx context.Context) ([]T, error) {
	var out []T
	if err := q.db.WithContext(ctx).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// First runs the query and returns the first matching row.
// It returns gorm.ErrRecordNotFound when nothing matches.
func (q *TypedQuery[T]) First(ctx context.Context) (*T, error) {
	var out T
	if err := q.db.WithContext(ctx).Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

// Count returns the number of matching rows, ignoring any paging.
func (q *TypedQuery[T]) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := q.where.WithContext(ctx).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

// Statement exposes the underlying gorm query.
func (q *TypedQuery[T]) Statement() *gorm.DB {
	return q.db
}

// ContainsPattern escapes LIKE wildcards in s and wraps it so it matches
// any value containing s.
func ContainsPattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
