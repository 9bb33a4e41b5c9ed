package audit

import (
	"time"

	"github.com/yanun0323/errors"

	"main/pkg/conn"
)

// Record is one row of the audit trail.
type Record struct {
	ID        uint      `gorm:"primaryKey"`
	BotID     uint16    `gorm:"index"`
	Exchange  string    `gorm:"size:32"`
	Symbol    string    `gorm:"size:64"`
	Kind      string    `gorm:"size:32"`
	Value     string    `gorm:"size:64"`
	Window    int
	TsNano    int64
	CreatedAt time.Time
}

func (Record) TableName() string {
	return "audit_records"
}

// Store persists audit record batches.
type Store interface {
	Append(records []Record) error
	Close() error
}

// PostgresStore writes audit records through a shared connection pool.
type PostgresStore struct {
	client *conn.Client
}

// NewPostgresStore connects and migrates the audit table.
func NewPostgresStore(connString string) (*PostgresStore, error) {
	client, err := conn.New(conn.Option{ConnString: connString})
	if err != nil {
		return nil, errors.Wrap(err, "connect audit database")
	}
	if err := client.DB().AutoMigrate(&Record{}); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "migrate audit records")
	}
	return &PostgresStore{client: client}, nil
}

func (s *PostgresStore) Append(records []Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := s.client.DB().CreateInBatches(records, len(records)).Error; err != nil {
		return errors.Wrap(err, "append audit records")
	}
	return nil
}

func (s *PostgresStore) Close() error {
	return s.client.Close()
}

// MemoryStore retains a bounded tail of records. It backs nodes running
// without an audit database.
type MemoryStore struct {
	limit   int
	records []Record
}

// NewMemoryStore creates a store keeping at most limit records.
func NewMemoryStore(limit int) *MemoryStore {
	if limit <= 0 {
		limit = 1024
	}
	return &MemoryStore{limit: limit}
}

func (s *MemoryStore) Append(records []Record) error {
	s.records = append(s.records, records...)
	if over := len(s.records) - s.limit; over > 0 {
		s.records = append(s.records[:0], s.records[over:]...)
	}
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// Tail returns the retained records, oldest first.
func (s *MemoryStore) Tail() []Record {
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}
