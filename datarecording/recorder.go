// Package datarecording stores what a simulation run produced (realised
// pulses, schedule transitions and engine snapshots) in a database.
//
// Every table is described by a flat struct. Each exported field becomes a
// column. A field tagged `ecu_data:"index"` is indexed.
package datarecording

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fatih/structs"
)

// ErrInvalidEntry is returned when a struct cannot be stored as a row.
var ErrInvalidEntry = errors.New("datarecording: entry is not a flat struct")

// DataRecorder is a backend that stores rows of flat structs.
type DataRecorder interface {
	// CreateTable creates a table whose columns follow the sample entry.
	CreateTable(tableName string, sampleEntry any)

	// InsertData buffers a row for a table that already exists.
	InsertData(tableName string, entry any)

	// ListTables returns the names of all tables created.
	ListTables() []string

	// Flush writes every buffered row.
	Flush()

	// Close flushes and releases the database.
	Close() error
}

// Backend names accepted by RecorderConfig.
const (
	BackendSQLite     = "sqlite"
	BackendClickHouse = "clickhouse"
)

// RecorderConfig selects and configures a backend.
type RecorderConfig struct {
	// Type is BackendSQLite (the default) or BackendClickHouse.
	Type string

	// Path is the SQLite file name without the extension.
	Path string

	// ConnStr is a ClickHouse DSN. When empty, Host, Port, Database,
	// Username and Password are used instead.
	ConnStr  string
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// BatchSize is the number of rows buffered before an automatic flush.
	BatchSize int
}

const defaultBatchSize = 100000

// NewDataRecorderWithConfig creates the backend described by cfg.
func NewDataRecorderWithConfig(cfg RecorderConfig) (DataRecorder, error) {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaultBatchSize
	}

	switch cfg.Type {
	case "", BackendSQLite:
		return newSQLiteWriter(cfg.Path, cfg.BatchSize)
	case BackendClickHouse:
		return NewClickHouseRecorder(cfg)
	default:
		return nil, fmt.Errorf("datarecording: unknown backend %q", cfg.Type)
	}
}

// New creates a SQLite recorder writing to path.sqlite3.
func New(path string) (DataRecorder, error) {
	return NewDataRecorderWithConfig(RecorderConfig{Path: path})
}

// column is one column of a table.
type column struct {
	name    string
	kind    reflect.Kind
	indexed bool
}

// columnsOf lists the columns of a sample entry.
func columnsOf(sampleEntry any) ([]column, error) {
	if !structs.IsStruct(sampleEntry) {
		return nil, fmt.Errorf("%w: %T", ErrInvalidEntry, sampleEntry)
	}

	fields := structs.Fields(sampleEntry)
	cols := make([]column, 0, len(fields))

	for _, f := range fields {
		if !f.IsExported() {
			continue
		}

		if !isAllowedKind(f.Kind()) {
			return nil, fmt.Errorf("%w: field %s of %T is a %s",
				ErrInvalidEntry, f.Name(), sampleEntry, f.Kind())
		}

		cols = append(cols, column{
			name:    f.Name(),
			kind:    f.Kind(),
			indexed: f.Tag("ecu_data") == "index",
		})
	}

	return cols, nil
}

// valuesOf returns the exported field values of an entry in column order.
func valuesOf(entry any) []any {
	return structs.Values(entry)
}

func isAllowedKind(kind reflect.Kind) bool {
	switch kind {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32,
		reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return true
	default:
		return false
	}
}
