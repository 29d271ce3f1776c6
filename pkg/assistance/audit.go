package assistance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	_ "github.com/ClickHouse/clickhouse-go/v2" // registers the "clickhouse" sqlx driver
)

// ClickHouseAuditLog persists every cache refresh attempt to an analytical
// table for post-incident review: which source served which kind of
// assistance data, when, and whether it succeeded.
//
// Grounded on gnssgo/app/rtkrcv/rtkrcv.go, the one place gnssgo actually
// opens a live sqlx.Open("clickhouse", ...) connection.
type ClickHouseAuditLog struct {
	db     *sqlx.DB
	runID  string
}

// NewClickHouseAuditLog connects to dsn (a ClickHouse TCP DSN, same shape
// as gnssgo's "tcp://host:9000?database=..." string) and ensures the
// audit table exists.
func NewClickHouseAuditLog(dsn string) (*ClickHouseAuditLog, error) {
	db, err := sqlx.Open("clickhouse", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	const ddl = `
CREATE TABLE IF NOT EXISTS assistance_refresh_log (
	run_id String,
	kind String,
	source String,
	ok UInt8,
	detail String,
	at DateTime
) ENGINE = MergeTree() ORDER BY at`
	if _, err := db.Exec(ddl); err != nil {
		return nil, err
	}
	return &ClickHouseAuditLog{db: db, runID: uuid.NewString()}, nil
}

// RecordRefresh implements assistance.AuditLog.
func (a *ClickHouseAuditLog) RecordRefresh(kind, source string, ok bool, detail string) {
	okInt := 0
	if ok {
		okInt = 1
	}
	_, _ = a.db.ExecContext(context.Background(),
		`INSERT INTO assistance_refresh_log (run_id, kind, source, ok, detail, at) VALUES (?, ?, ?, ?, ?, ?)`,
		a.runID, kind, source, okInt, detail, time.Now())
}

// Close releases the underlying connection pool.
func (a *ClickHouseAuditLog) Close() error { return a.db.Close() }
