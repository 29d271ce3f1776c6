package alertbus

import (
	"time"

	"gorm.io/driver/clickhouse"
	"gorm.io/gorm"

	"gnssspoof/pkg/navdata"
)

// alertRow is the gorm model backing the ClickHouse alert archive.
type alertRow struct {
	CaseID      int `gorm:"column:case_id"`
	Description string
	WallClockMs int64 `gorm:"column:wall_clock_ms"`
	RecordedAt  time.Time
}

func (alertRow) TableName() string { return "spoofing_alerts" }

// GormClickHouseSink archives every alert to ClickHouse through gorm,
// rather than the raw sqlx path pkg/assistance uses for its audit log —
// gnssgo's go.mod declares both gorm.io/driver/clickhouse and the raw
// driver; this sink exercises the gorm one so neither is a dead
// dependency.
type GormClickHouseSink struct {
	db *gorm.DB
}

// NewGormClickHouseSink opens dsn (a ClickHouse DSN in gorm's expected
// form) and migrates the alert table.
func NewGormClickHouseSink(dsn string) (*GormClickHouseSink, error) {
	db, err := gorm.Open(clickhouse.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&alertRow{}); err != nil {
		return nil, err
	}
	return &GormClickHouseSink{db: db}, nil
}

func (s *GormClickHouseSink) Handle(alert navdata.SpoofingAlert) {
	s.db.Create(&alertRow{
		CaseID:      alert.CaseID,
		Description: alert.Description,
		WallClockMs: alert.WallClockMs,
		RecordedAt:  time.Now(),
	})
}
