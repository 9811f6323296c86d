package db

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxRetries = 3

type Storage interface {
	HealthStorage
	PaymentStorage
}

type HealthStorage interface {
	Ping(ctx context.Context) error
}

type db interface {
	NewTx(ctx context.Context) (Tx, error)
}

type conn interface {
	DriverName() string
	Rebind(string) string
	PrepareNamedContext(context.Context, string) (*sqlx.NamedStmt, error)
	SelectContext(context.Context, interface{}, string, ...interface{}) error
	GetContext(context.Context, interface{}, string, ...interface{}) error
	QueryxContext(context.Context, string, ...interface{}) (*sqlx.Rows, error)
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
}

type Tx interface {
	conn

	Commit() error
	Rollback() error
}

type transactorImpl struct {
	*sqlx.DB
}

func (t *transactorImpl) NewTx(ctx context.Context) (Tx, error) {
	return t.BeginTxx(ctx, nil)
}

type DB struct {
	conn
	db

	pinger *sqlx.DB
	now    func() time.Time
}

func New(db *sqlx.DB) (*DB, error) {
	var (
		dbWrapper *DB
		err       error
	)

	tries := maxRetries
	for tries >= 0 {
		dbWrapper, err = tryOpenConnection(db)
		if err == nil {
			break
		}

		if tries == 0 {
			return nil, err
		}

		log.WithFields(log.Fields{
			"retries_left": tries,
			"error":        err,
		}).Warnf("%s: trying to connect to create connection", db.DriverName())

		tries = tries - 1
		time.Sleep(1 * time.Second)
	}

	return dbWrapper, nil
}

func tryOpenConnection(db *sqlx.DB) (*DB, error) {
	err := db.Ping()
	if err != nil {
		return nil, errors.Wrap(err, "failed to ping db")
	}

	return &DB{
		conn:   db,
		db:     &transactorImpl{db},
		pinger: db,
		now:    time.Now,
	}, nil
}

// SetClock replaces the time source used for payment and audit timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

func (db *DB) Ping(ctx context.Context) error {
	return db.pinger.PingContext(ctx)
}

// timestamp is truncated to microseconds, the finest precision kept by
// every supported driver.
func (db *DB) timestamp() time.Time {
	return db.now().UTC().Truncate(time.Microsecond)
}

func withTx(ctx context.Context, db *DB, fn func(Tx) error) (err error) {
	tx, err := db.NewTx(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to start transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
			return
		}

		err = errors.Wrap(tx.Commit(), "failed to commit transaction")
	}()

	return fn(tx)
}
