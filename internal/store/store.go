// Package store is the transactional record store for events, tickets and
// matches. It runs on PocketBase's data.db in production and on any *dbx.DB
// (an in-memory SQLite in tests).
package store

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tools/types"
)

type Store struct {
	db    func() dbx.Builder
	begin func(fn func(tx dbx.Builder) error) error
	inTx  bool
}

// New binds the store to the PocketBase app database. The builder is
// resolved on every call since app.DB() is nil until the app bootstraps.
func New(app core.App) *Store {
	return &Store{
		db: app.DB,
		begin: func(fn func(tx dbx.Builder) error) error {
			return app.RunInTransaction(func(txApp core.App) error {
				return fn(txApp.DB())
			})
		},
	}
}

// NewFromDB binds the store to a plain dbx connection.
func NewFromDB(db *dbx.DB) *Store {
	return &Store{
		db: func() dbx.Builder { return db },
		begin: func(fn func(tx dbx.Builder) error) error {
			return db.Transactional(func(tx *dbx.Tx) error {
				return fn(tx)
			})
		},
	}
}

// RunInTx runs fn inside a single transaction. Returning an error from fn
// rolls back every statement issued through the tx store. Nested calls reuse
// the outer transaction.
func (s *Store) RunInTx(fn func(tx *Store) error) error {
	if s.inTx {
		return fn(s)
	}
	return s.begin(func(b dbx.Builder) error {
		return fn(&Store{db: func() dbx.Builder { return b }, begin: s.begin, inTx: true})
	})
}

// Ping checks the database connection.
func (s *Store) Ping() error {
	var one int
	return s.db().NewQuery("SELECT 1").Row(&one)
}

func newID() string {
	return uuid.NewString()
}

func toDateTime(t time.Time) types.DateTime {
	if t.IsZero() {
		return types.DateTime{}
	}
	d, _ := types.ParseDateTime(t.UTC())
	return d
}

func fromDateTime(d types.DateTime) *time.Time {
	if d.IsZero() {
		return nil
	}
	t := d.Time()
	return &t
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func isUniqueViolation(err error, column string) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") && strings.Contains(msg, column)
}
