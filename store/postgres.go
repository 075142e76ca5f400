package store

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/cici0602/cilq/cil"
)

// DefaultLockTimeout is how long UpsertFile retries acquiring its write
// transaction before giving up with StoreBusy, absent an explicit
// configuration override.
const DefaultLockTimeout = time.Hour

// dber is the subset of *pgxpool.Pool PostgresStore needs, broken out so
// postgres_test.go can substitute a pgxmock.PgxPoolIface instead of a real
// database.
type dber interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresStore is the production Store backend: pgx/v5 + pgxpool against
// a single-tenant Postgres database, with golang-migrate owning schema
// evolution.
type PostgresStore struct {
	pool        dber
	closer      func()
	lockTimeout time.Duration
}

// NewPostgresStore connects to dsn, runs pending migrations, and returns a
// ready Store. lockTimeout of 0 selects DefaultLockTimeout.
func NewPostgresStore(ctx context.Context, dsn string, lockTimeout time.Duration) (*PostgresStore, error) {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}

	mig, err := NewMigrator(dsn)
	if err != nil {
		return nil, err
	}
	if err := mig.Up(); err != nil {
		return nil, err
	}
	if err := mig.Close(); err != nil {
		return nil, err
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, oops.Code(CodeStoreIO).Wrap(err)
	}
	return &PostgresStore{pool: pool, closer: pool.Close, lockTimeout: lockTimeout}, nil
}

// NewPostgresStoreWithPool wraps an already-connected pool (or a pgxmock
// substitute) without running migrations or owning its lifecycle — used by
// tests that manage the pool themselves.
func NewPostgresStoreWithPool(pool dber, lockTimeout time.Duration) *PostgresStore {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &PostgresStore{pool: pool, lockTimeout: lockTimeout}
}

// Close releases the underlying connection pool, if this store owns one.
func (s *PostgresStore) Close() {
	if s.closer != nil {
		s.closer()
	}
}

// beginWithBackoff retries Begin with exponential backoff until s.lockTimeout
// elapses, mapping exhaustion to StoreBusy. This stands in for the
// indexer's original "wait on the sqlite write lock" behavior against a
// database that has real advisory/row locking instead.
func (s *PostgresStore) beginWithBackoff(ctx context.Context, path string) (pgx.Tx, error) {
	b, err := retry.NewExponential(50 * time.Millisecond)
	if err != nil {
		return nil, err
	}
	b = retry.WithMaxDuration(s.lockTimeout, b)

	var tx pgx.Tx
	err = retry.Do(ctx, b, func(ctx context.Context) error {
		t, err := s.pool.Begin(ctx)
		if err != nil {
			return retry.RetryableError(err)
		}
		tx = t
		return nil
	})
	if err != nil {
		return nil, errBusy(path, err)
	}
	return tx, nil
}

// UpsertFile replaces path's rows inside one transaction: re-check
// freshness under the transaction, delete the three record tables for
// path, insert recs, upsert the files row, commit.
func (s *PostgresStore) UpsertFile(ctx context.Context, path string, mtimeUS int64, recs cil.Records) error {
	tx, err := s.beginWithBackoff(ctx, path)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var existing int64
	var hasExisting bool
	err = tx.QueryRow(ctx, `SELECT mtime_us FROM files WHERE path = $1`, path).Scan(&existing)
	switch {
	case err == nil:
		hasExisting = true
	case errors.Is(err, pgx.ErrNoRows):
		hasExisting = false
	default:
		return errIO("upsert_file:select", path, err)
	}
	if hasExisting && existing == mtimeUS {
		return tx.Commit(ctx)
	}

	for _, table := range []string{"te_rules", "typeattributes", "typetransitions"} {
		if _, err := tx.Exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE file = $1`, table), path); err != nil {
			return errIO("upsert_file:delete:"+table, path, err)
		}
	}

	for _, r := range recs.TE {
		_, err := tx.Exec(ctx, `
			INSERT INTO te_rules (file, string, rule_kind, source, target, class, perms, optional_path, boolean_values)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			path, r.String, r.RuleKind, r.Source, r.Target, r.Class,
			encodeStrings(r.Perms), encodeStrings(r.OptionalPath), encodeBools(r.BooleanValues))
		if err != nil {
			return errIO("upsert_file:insert_te", path, err)
		}
	}

	for _, r := range recs.TAS {
		_, err := tx.Exec(ctx, `
			INSERT INTO typeattributes (file, string, attr, members, is_logical, optional_path, boolean_values)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			path, r.String, r.Attr, encodeStrings(r.Members), r.IsLogical,
			encodeStrings(r.OptionalPath), encodeBools(r.BooleanValues))
		if err != nil {
			return errIO("upsert_file:insert_tas", path, err)
		}
	}

	for _, r := range recs.TT {
		_, err := tx.Exec(ctx, `
			INSERT INTO typetransitions (file, string, subject, source, class, target, filename, has_filename, optional_path, boolean_values)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			path, r.String, r.Subject, r.Source, r.Class, r.Target, r.Filename, r.HasFilename,
			encodeStrings(r.OptionalPath), encodeBools(r.BooleanValues))
		if err != nil {
			return errIO("upsert_file:insert_tt", path, err)
		}
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO files (path, mtime_us) VALUES ($1, $2)
		ON CONFLICT (path) DO UPDATE SET mtime_us = EXCLUDED.mtime_us`,
		path, mtimeUS)
	if err != nil {
		return errIO("upsert_file:upsert_files", path, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return errIO("upsert_file:commit", path, err)
	}
	return nil
}

func (s *PostgresStore) FileFresh(ctx context.Context, path string, mtimeUS int64) (bool, error) {
	var existing int64
	err := s.pool.QueryRow(ctx, `SELECT mtime_us FROM files WHERE path = $1`, path).Scan(&existing)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, errIO("file_fresh", path, err)
	}
	return existing == mtimeUS, nil
}

func (s *PostgresStore) ListFiles(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT path FROM files`)
	if err != nil {
		return nil, errIO("list_files", "", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, errIO("list_files:scan", "", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

func (s *PostgresStore) QueryTE(ctx context.Context, f Filter) (iter.Seq[cil.TERule], error) {
	where, args := whereClause(f, "source", "target", "class")
	if f.RuleKind != "" {
		where, args = appendWhere(where, args, "rule_kind", f.RuleKind)
	}
	sql := `SELECT file, string, rule_kind, source, target, class, perms, optional_path, boolean_values FROM te_rules` + where
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errIO("query_te", "", err)
	}
	defer rows.Close()

	var out []cil.TERule
	for rows.Next() {
		var r cil.TERule
		var perms, optPath, boolVals string
		if err := rows.Scan(&r.File, &r.String, &r.RuleKind, &r.Source, &r.Target, &r.Class, &perms, &optPath, &boolVals); err != nil {
			return nil, errIO("query_te:scan", "", err)
		}
		r.Perms = decodeStrings(perms)
		r.OptionalPath = decodeStrings(optPath)
		r.BooleanValues = decodeBools(boolVals)
		out = append(out, r)
	}
	return slices.Values(out), rows.Err()
}

func (s *PostgresStore) QueryTT(ctx context.Context, f Filter) (iter.Seq[cil.Typetransition], error) {
	where, args := whereClause(f, "source", "target", "class")
	sql := `SELECT file, string, subject, source, class, target, filename, has_filename, optional_path, boolean_values FROM typetransitions` + where
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errIO("query_tt", "", err)
	}
	defer rows.Close()

	var out []cil.Typetransition
	for rows.Next() {
		var r cil.Typetransition
		var optPath, boolVals string
		if err := rows.Scan(&r.File, &r.String, &r.Subject, &r.Source, &r.Class, &r.Target, &r.Filename, &r.HasFilename, &optPath, &boolVals); err != nil {
			return nil, errIO("query_tt:scan", "", err)
		}
		r.OptionalPath = decodeStrings(optPath)
		r.BooleanValues = decodeBools(boolVals)
		out = append(out, r)
	}
	return slices.Values(out), rows.Err()
}

func (s *PostgresStore) QueryTAS(ctx context.Context, f Filter) (iter.Seq[cil.TASet], error) {
	where, args := whereClause(f, "", "", "")
	if f.Attr != "" {
		where, args = appendWhere(where, args, "attr", f.Attr)
	}
	sql := `SELECT file, string, attr, members, is_logical, optional_path, boolean_values FROM typeattributes` + where
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errIO("query_tas", "", err)
	}
	defer rows.Close()

	var out []cil.TASet
	for rows.Next() {
		var r cil.TASet
		var members, optPath, boolVals string
		if err := rows.Scan(&r.File, &r.String, &r.Attr, &members, &r.IsLogical, &optPath, &boolVals); err != nil {
			return nil, errIO("query_tas:scan", "", err)
		}
		r.Members = decodeStrings(members)
		r.OptionalPath = decodeStrings(optPath)
		r.BooleanValues = decodeBools(boolVals)
		out = append(out, r)
	}
	return slices.Values(out), rows.Err()
}

// whereClause builds a dynamic WHERE clause from whichever of
// Sources/Targets/Class in f are set, matching sourceCol/targetCol/classCol
// respectively. An empty column name disables that field's matching.
func whereClause(f Filter, sourceCol, targetCol, classCol string) (string, []any) {
	var clauses []string
	var args []any
	next := func(col string, vals []string) {
		if col == "" || len(vals) == 0 {
			return
		}
		args = append(args, vals)
		clauses = append(clauses, fmt.Sprintf("%s = ANY($%d)", col, len(args)))
	}
	next(sourceCol, f.Sources)
	next(targetCol, f.Targets)
	if classCol != "" && f.Class != "" {
		args = append(args, f.Class)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", classCol, len(args)))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func appendWhere(where string, args []any, col string, val any) (string, []any) {
	args = append(args, val)
	clause := fmt.Sprintf("%s = $%d", col, len(args))
	if where == "" {
		return " WHERE " + clause, args
	}
	return where + " AND " + clause, args
}
