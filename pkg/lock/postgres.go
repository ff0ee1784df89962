// SPDX-License-Identifier: MPL-2.0

package lock

import (
	"context"
	"database/sql/driver"
	"errors"

	"github.com/jmoiron/sqlx"
)

type (
	// Postgres is a lock backed by a session-level advisory lock. The lock
	// pins one pooled connection for as long as it is held.
	Postgres struct {
		db   *sqlx.DB
		name string
		key  int64
	}

	postgresLock struct {
		p    *Postgres
		conn *sqlx.Conn
	}
)

// NewPostgres creates an advisory lock named name on db.
func NewPostgres(db *sqlx.DB, name string) *Postgres {
	return &Postgres{db: db, name: name, key: advisoryKey(name)}
}

// Key returns the advisory lock key derived from the lock name.
func (p *Postgres) Key() int64 { return p.key }

// Acquire implements Provider. It blocks in pg_advisory_lock until the lock
// is granted or ctx is done.
func (p *Postgres) Acquire(ctx context.Context) (Lock, error) {
	conn, err := p.db.Connx(ctx)
	if err != nil {
		return nil, &LockError{Backend: "postgres", Key: p.name, Op: "connect", Err: err}
	}
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", p.key); err != nil {
		_ = conn.Close()
		return nil, &LockError{Backend: "postgres", Key: p.name, Op: "acquire", Err: err}
	}
	return &postgresLock{p: p, conn: conn}, nil
}

// Release implements Lock and returns the pinned connection to the pool.
// When the unlock statement itself fails the connection is discarded
// instead, so the session and any lock it still holds end with it.
func (l *postgresLock) Release(ctx context.Context) error {
	var unlocked bool
	if err := l.conn.QueryRowxContext(ctx, "SELECT pg_advisory_unlock($1)", l.p.key).Scan(&unlocked); err != nil {
		return &LockError{Backend: "postgres", Key: l.p.name, Op: "release", Err: errors.Join(err, l.discard())}
	}
	closeErr := l.conn.Close()
	if !unlocked {
		return &LockError{Backend: "postgres", Key: l.p.name, Op: "release", Err: errors.Join(ErrNotHeld, closeErr)}
	}
	if closeErr != nil {
		return &LockError{Backend: "postgres", Key: l.p.name, Op: "release", Err: closeErr}
	}
	return nil
}

// discard closes the pinned session rather than pooling it. Returning
// driver.ErrBadConn from Raw makes database/sql drop the driver connection
// and close the Conn.
func (l *postgresLock) discard() error {
	err := l.conn.Raw(func(any) error { return driver.ErrBadConn })
	if errors.Is(err, driver.ErrBadConn) {
		return nil
	}
	return err
}
