// Package sqlpool keeps one pooled database/sql handle per target
// connection string, so repeated queries against the same employee
// database reuse connections instead of redialing.
package sqlpool

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"nlquery-engine/internal/schema"
)

type entry struct {
	db      *sql.DB
	dialect schema.Dialect
}

type Pool struct {
	mu    sync.Mutex
	conns map[string]entry
}

func New() *Pool {
	return &Pool{conns: make(map[string]entry)}
}

// Get returns an open, verified handle for the connection string, opening and
// caching it on first use.
func (p *Pool) Get(ctx context.Context, connString string) (*sql.DB, schema.Dialect, error) {
	p.mu.Lock()
	if e, ok := p.conns[connString]; ok {
		p.mu.Unlock()
		return e.db, e.dialect, nil
	}
	p.mu.Unlock()

	dialect, driver, dsn, err := schema.ParseConnString(connString)
	if err != nil {
		return nil, "", err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, "", fmt.Errorf("open %s database failed: %w", dialect, err)
	}

	db.SetMaxIdleConns(5)
	db.SetMaxOpenConns(15)
	db.SetConnMaxLifetime(1 * time.Hour)
	if dialect == schema.DialectSQLite && strings.Contains(dsn, ":memory:") {
		// Each sqlite in-memory connection is its own database.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s database failed: %w", dialect, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if e, ok := p.conns[connString]; ok {
		// Lost the race; keep the existing handle.
		_ = db.Close()
		return e.db, e.dialect, nil
	}
	p.conns[connString] = entry{db: db, dialect: dialect}
	return db, dialect, nil
}

func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var closeErr error
	for key, e := range p.conns {
		if err := e.db.Close(); err != nil {
			closeErr = err
		}
		delete(p.conns, key)
	}
	return closeErr
}
