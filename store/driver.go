package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// FiringRecord model related methods.
	CreateFiringRecords(ctx context.Context, creates []*FiringRecord) ([]*FiringRecord, error)
	ListFiringRecords(ctx context.Context, find *FindFiringRecord) ([]*FiringRecord, error)
	ListDueFiringRecords(ctx context.Context, find *FindDueFiringRecord) ([]*FiringRecord, error)
	ConsumeFiringRecords(ctx context.Context, consume *ConsumeFiringRecords) error
	AcknowledgeFiringRecords(ctx context.Context, ack *AcknowledgeFiringRecords) error
}
