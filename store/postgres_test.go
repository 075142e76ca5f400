package store

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/cici0602/cilq/cil"
)

func TestPostgresStoreUpsertFileFreshSkipsRewrite(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStoreWithPool(mock, 0)
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT mtime_us FROM files WHERE path = \$1`).
		WithArgs("a.cil").
		WillReturnRows(pgxmock.NewRows([]string{"mtime_us"}).AddRow(int64(1000)))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = s.UpsertFile(ctx, "a.cil", 1000, cil.Records{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpsertFileReplacesStaleRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStoreWithPool(mock, 0)
	ctx := context.Background()

	recs := cil.Records{
		TE: []cil.TERule{{
			File: "a.cil", String: "['allow', 't1', 't2', ['c1', ['p1']]]",
			RuleKind: "allow", Source: "t1", Target: "t2", Class: "c1", Perms: []string{"p1"},
		}},
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT mtime_us FROM files WHERE path = \$1`).
		WithArgs("a.cil").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec(`DELETE FROM te_rules`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM typeattributes`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`DELETE FROM typetransitions`).WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(`INSERT INTO te_rules`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO files`).WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	mock.ExpectRollback()

	err = s.UpsertFile(ctx, "a.cil", 2000, recs)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreQueryTEFiltersBySource(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	s := NewPostgresStoreWithPool(mock, 0)
	ctx := context.Background()

	rows := pgxmock.NewRows([]string{
		"file", "string", "rule_kind", "source", "target", "class", "perms", "optional_path", "boolean_values",
	}).AddRow("a.cil", "['allow', 't1', 't2', ['c1', ['p1']]]", "allow", "t1", "t2", "c1", "p1", "", "")

	mock.ExpectQuery(`SELECT file, string, rule_kind, source, target, class, perms, optional_path, boolean_values FROM te_rules`).
		WillReturnRows(rows)

	seq, err := s.QueryTE(ctx, Filter{Sources: []string{"t1"}})
	require.NoError(t, err)

	var got []cil.TERule
	for r := range seq {
		got = append(got, r)
	}
	require.Len(t, got, 1)
	require.Equal(t, "t1", got[0].Source)
	require.Equal(t, []string{"p1"}, got[0].Perms)
	require.NoError(t, mock.ExpectationsWereMet())
}
