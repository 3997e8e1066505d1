package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-cemetery-registry/app/observability/metrics"
)

// Store is the generic soft-delete repository for one record type.
type Store[T Record] struct {
	db     DBTX
	schema Schema[T]
	now    func() time.Time
}

func New[T Record](db DBTX, schema Schema[T]) *Store[T] {
	return &Store[T]{db: db, schema: schema, now: time.Now}
}

// WithDB returns a copy of the store bound to db, typically a pgx.Tx.
func (s *Store[T]) WithDB(db DBTX) *Store[T] {
	c := *s
	c.db = db
	return &c
}

// WithClock returns a copy of the store using now for timestamps.
func (s *Store[T]) WithClock(now func() time.Time) *Store[T] {
	c := *s
	c.now = now
	return &c
}

func (s *Store[T]) DB() DBTX { return s.db }

func (s *Store[T]) Table() string { return s.schema.Table }

// Save inserts a record without identity or updates an existing one.
func (s *Store[T]) Save(ctx context.Context, rec T) (_ T, err error) {
	ctx, done := s.observe(ctx, "Save")
	defer func() { done(err) }()

	h := rec.Header()
	now := s.now().UTC()
	values := s.schema.Values(rec)
	n := len(values)

	// no id yet: insert
	if h.IsNew() {
		cols := append(append([]string{}, s.schema.Columns...), "created_at", "updated_at", "deleted")
		query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id, created_at, updated_at",
			s.schema.Table, strings.Join(cols, ", "), placeholders(1, n+3))
		args := append(values, now, now, h.Deleted)
		if err = s.db.QueryRow(ctx, query, args...).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return rec, fmt.Errorf("insert into %s: %w", s.schema.Table, translate(s.schema.Table, err))
		}
		return rec, nil
	}

	// created_at is never rewritten
	sets := make([]string, 0, n+2)
	for i, c := range s.schema.Columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+1))
	}
	sets = append(sets, fmt.Sprintf("updated_at = $%d", n+1), fmt.Sprintf("deleted = $%d", n+2))
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING created_at, updated_at",
		s.schema.Table, strings.Join(sets, ", "), n+3)
	args := append(values, now, h.Deleted, h.ID)
	if err = s.db.QueryRow(ctx, query, args...).Scan(&h.CreatedAt, &h.UpdatedAt); err != nil {
		return rec, fmt.Errorf("update %s id=%d: %w", s.schema.Table, h.ID, translate(s.schema.Table, err))
	}
	return rec, nil
}

// FindByID returns the row whatever its deleted state.
func (s *Store[T]) FindByID(ctx context.Context, id int64) (_ T, err error) {
	ctx, done := s.observe(ctx, "FindByID")
	defer func() { done(err) }()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = $1", s.selectList(), s.schema.Table)
	rec := s.schema.New()
	if err = s.db.QueryRow(ctx, query, id).Scan(s.targets(rec)...); err != nil {
		var zero T
		return zero, fmt.Errorf("find %s id=%d: %w", s.schema.Table, id, translate(s.schema.Table, err))
	}
	return rec, nil
}

// FindActiveByID treats a soft-deleted row as missing.
func (s *Store[T]) FindActiveByID(ctx context.Context, id int64) (T, error) {
	rec, err := s.FindByID(ctx, id)
	if err != nil {
		return rec, err
	}
	if rec.Header().Deleted {
		var zero T
		return zero, fmt.Errorf("find %s id=%d: %w", s.schema.Table, id, ErrNotFound)
	}
	return rec, nil
}

// FindOne returns the lowest-id row matching all filters, deleted or not.
// Callers add NotDeleted() when they only want active rows.
func (s *Store[T]) FindOne(ctx context.Context, filters ...Filter) (_ T, err error) {
	ctx, done := s.observe(ctx, "FindOne")
	defer func() { done(err) }()
	return s.findOne(ctx, "", filters...)
}

// FindOneForUpdate is FindOne with a row lock held until the surrounding
// transaction ends. Outside a transaction the lock is released immediately.
func (s *Store[T]) FindOneForUpdate(ctx context.Context, filters ...Filter) (_ T, err error) {
	ctx, done := s.observe(ctx, "FindOneForUpdate")
	defer func() { done(err) }()
	return s.findOne(ctx, " FOR UPDATE", filters...)
}

func (s *Store[T]) findOne(ctx context.Context, lock string, filters ...Filter) (T, error) {
	clause, args := where(1, filters...)
	query := fmt.Sprintf("SELECT %s FROM %s %s ORDER BY id ASC LIMIT 1%s", s.selectList(), s.schema.Table, clause, lock)
	rec := s.schema.New()
	if err := s.db.QueryRow(ctx, query, args...).Scan(s.targets(rec)...); err != nil {
		var zero T
		return zero, fmt.Errorf("find one in %s: %w", s.schema.Table, translate(s.schema.Table, err))
	}
	return rec, nil
}

// Exists reports whether any row matches all filters.
func (s *Store[T]) Exists(ctx context.Context, filters ...Filter) (_ bool, err error) {
	ctx, done := s.observe(ctx, "Exists")
	defer func() { done(err) }()

	clause, args := where(1, filters...)
	query := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s %s)", s.schema.Table, clause)
	var exists bool
	if err = s.db.QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, fmt.Errorf("exists in %s: %w", s.schema.Table, translate(s.schema.Table, err))
	}
	return exists, nil
}

// CountActive counts non-deleted rows matching filters.
func (s *Store[T]) CountActive(ctx context.Context, filters ...Filter) (_ int64, err error) {
	ctx, done := s.observe(ctx, "CountActive")
	defer func() { done(err) }()

	clause, args := where(1, append([]Filter{NotDeleted()}, filters...)...)
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", s.schema.Table, clause)
	var total int64
	if err = s.db.QueryRow(ctx, query, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", s.schema.Table, translate(s.schema.Table, err))
	}
	return total, nil
}

// ListActive returns one page of non-deleted rows matching filters.
func (s *Store[T]) ListActive(ctx context.Context, req PageRequest, filters ...Filter) (Page[T], error) {
	req = req.normalize()
	order, err := orderBy(req.Sort, s.sortable())
	if err != nil {
		return Page[T]{}, err
	}

	total, err := s.CountActive(ctx, filters...)
	if err != nil {
		return Page[T]{}, err
	}
	// nothing on this page, skip the row query
	if total == 0 || int64(req.offset()) >= total {
		return newPage[T](nil, req, total), nil
	}

	clause, args := where(1, append([]Filter{NotDeleted()}, filters...)...)
	n := len(args)
	query := fmt.Sprintf("SELECT %s FROM %s %s %s LIMIT $%d OFFSET $%d",
		s.selectList(), s.schema.Table, clause, order, n+1, n+2)
	items, err := s.query(ctx, "ListActive", query, append(args, req.Size, req.offset())...)
	if err != nil {
		return Page[T]{}, err
	}
	return newPage(items, req, total), nil
}

// ListActiveAll returns every non-deleted row matching filters, ordered by id
// unless sort is given.
func (s *Store[T]) ListActiveAll(ctx context.Context, sort []Order, filters ...Filter) ([]T, error) {
	order, err := orderBy(sort, s.sortable())
	if err != nil {
		return nil, err
	}
	clause, args := where(1, append([]Filter{NotDeleted()}, filters...)...)
	query := fmt.Sprintf("SELECT %s FROM %s %s %s", s.selectList(), s.schema.Table, clause, order)
	return s.query(ctx, "ListActiveAll", query, args...)
}

// SoftDelete marks the row deleted. Deleting an already-deleted row succeeds
// and leaves it untouched; a missing id is ErrNotFound.
func (s *Store[T]) SoftDelete(ctx context.Context, id int64) (_ T, err error) {
	ctx, done := s.observe(ctx, "SoftDelete")
	defer func() { done(err) }()

	// a second delete keeps the first updated_at
	query := fmt.Sprintf(
		"UPDATE %s SET deleted = true, updated_at = CASE WHEN deleted THEN updated_at ELSE $2 END WHERE id = $1 RETURNING %s",
		s.schema.Table, s.selectList())
	rec := s.schema.New()
	if err = s.db.QueryRow(ctx, query, id, s.now().UTC()).Scan(s.targets(rec)...); err != nil {
		var zero T
		return zero, fmt.Errorf("soft delete %s id=%d: %w", s.schema.Table, id, translate(s.schema.Table, err))
	}
	metrics.Get().SoftDeletesTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("table", s.schema.Table)))
	return rec, nil
}

// Result is the outcome of one id in a batch operation.
type Result[T any] struct {
	ID     int64
	Record T
	Err    error
}

func (r Result[T]) OK() bool { return r.Err == nil }

// SoftDeleteMany soft-deletes each id independently. Failures are collected
// per id; successful deletions are never rolled back.
func (s *Store[T]) SoftDeleteMany(ctx context.Context, ids []int64) []Result[T] {
	results := make([]Result[T], 0, len(ids))
	for _, id := range ids {
		rec, err := s.SoftDelete(ctx, id)
		results = append(results, Result[T]{ID: id, Record: rec, Err: err})
	}
	return results
}

// Query runs a caller-supplied SELECT whose column list starts with
// SelectList(alias) and scans every row.
func (s *Store[T]) Query(ctx context.Context, query string, args ...any) ([]T, error) {
	return s.query(ctx, "Query", query, args...)
}

// SelectList returns the full column list, optionally qualified by alias.
func (s *Store[T]) SelectList(alias string) string {
	if alias == "" {
		return s.selectList()
	}
	cols := s.allColumns()
	for i, c := range cols {
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}

func (s *Store[T]) query(ctx context.Context, op, query string, args ...any) (_ []T, err error) {
	ctx, done := s.observe(ctx, op)
	defer func() { done(err) }()

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", s.schema.Table, translate(s.schema.Table, err))
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		rec := s.schema.New()
		if err = rows.Scan(s.targets(rec)...); err != nil {
			return nil, fmt.Errorf("scan %s: %w", s.schema.Table, err)
		}
		out = append(out, rec)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", s.schema.Table, err)
	}
	return out, nil
}

func (s *Store[T]) allColumns() []string {
	return append(append([]string{}, headerColumns...), s.schema.Columns...)
}

func (s *Store[T]) selectList() string {
	return strings.Join(s.allColumns(), ", ")
}

func (s *Store[T]) sortable() []string {
	return s.allColumns()
}

func (s *Store[T]) targets(rec T) []any {
	return append(headerFields(rec.Header()), s.schema.Fields(rec)...)
}

func (s *Store[T]) observe(ctx context.Context, op string) (context.Context, func(error)) {
	attrs := []attribute.KeyValue{
		attribute.String("db.sql.table", s.schema.Table),
		attribute.String("db.operation", op),
	}
	ctx, span := otel.Tracer("Store").Start(ctx, s.schema.Table+"."+op,
		trace.WithAttributes(append(attrs, semconv.DBSystemPostgreSQL)...))
	start := time.Now()

	return ctx, func(err error) {
		m := metrics.Get()
		m.DbQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
		switch {
		case err == nil:
			span.SetStatus(codes.Ok, "")
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict):
			span.SetStatus(codes.Error, err.Error())
		default:
			span.RecordError(err)
			span.SetStatus(codes.Error, "DB query failed")
			m.DbQueryErrorsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
		}
		span.End()
	}
}

func placeholders(start, count int) string {
	ps := make([]string, count)
	for i := range ps {
		ps[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(ps, ", ")
}
