package datarecording

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/tebeka/atexit"
)

type clickHouseTable struct {
	columns []column
	rows    [][]any
}

// ClickHouseRecorder sends rows to a ClickHouse server in batches.
type ClickHouseRecorder struct {
	conn      clickhouse.Conn
	mu        sync.Mutex
	batchSize int

	tables     map[string]*clickHouseTable
	entryCount int
}

// NewClickHouseRecorder connects to the server described by cfg.
func NewClickHouseRecorder(cfg RecorderConfig) (*ClickHouseRecorder, error) {
	opts, err := clickHouseOptions(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("datarecording: connecting to ClickHouse: %w", err)
	}

	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("datarecording: pinging ClickHouse: %w", err)
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	r := &ClickHouseRecorder{
		conn:      conn,
		batchSize: batchSize,
		tables:    make(map[string]*clickHouseTable),
	}

	atexit.Register(func() { r.Flush() })

	return r, nil
}

func clickHouseOptions(cfg RecorderConfig) (*clickhouse.Options, error) {
	if cfg.ConnStr != "" {
		opts, err := clickhouse.ParseDSN(cfg.ConnStr)
		if err != nil {
			return nil, fmt.Errorf("datarecording: parsing DSN: %w", err)
		}

		return opts, nil
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("datarecording: ClickHouse needs a DSN or a host")
	}

	port := cfg.Port
	if port == 0 {
		port = 9000
	}

	return &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, port)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout:      30 * time.Second,
		MaxOpenConns:     5,
		MaxIdleConns:     5,
		ConnMaxLifetime:  time.Hour,
		ConnOpenStrategy: clickhouse.ConnOpenInOrder,
		BlockBufferSize:  10,
	}, nil
}

// clickHouseSchema builds the CREATE TABLE statement of a table. Indexed
// columns form the sort key.
func clickHouseSchema(tableName string, cols []column) string {
	defs := make([]string, 0, len(cols))
	var keys []string

	for _, c := range cols {
		defs = append(defs, c.name+" "+clickHouseType(c.kind))
		if c.indexed {
			keys = append(keys, c.name)
		}
	}

	orderBy := "tuple()"
	if len(keys) > 0 {
		orderBy = "(" + strings.Join(keys, ", ") + ")"
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n\t%s\n) ENGINE = MergeTree()\nORDER BY %s",
		tableName, strings.Join(defs, ",\n\t"), orderBy)
}

func clickHouseType(kind reflect.Kind) string {
	switch kind {
	case reflect.Bool:
		return "Bool"
	case reflect.Int8:
		return "Int8"
	case reflect.Int16:
		return "Int16"
	case reflect.Int32:
		return "Int32"
	case reflect.Int, reflect.Int64:
		return "Int64"
	case reflect.Uint8:
		return "UInt8"
	case reflect.Uint16:
		return "UInt16"
	case reflect.Uint32:
		return "UInt32"
	case reflect.Uint, reflect.Uint64:
		return "UInt64"
	case reflect.Float32:
		return "Float32"
	case reflect.Float64:
		return "Float64"
	default:
		return "String"
	}
}

// CreateTable creates a MergeTree table. It panics if the sample is not a
// flat struct or the server refuses the table.
func (r *ClickHouseRecorder) CreateTable(tableName string, sampleEntry any) {
	cols, err := columnsOf(sampleEntry)
	if err != nil {
		panic(err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	err = r.conn.Exec(context.Background(), clickHouseSchema(tableName, cols))
	if err != nil {
		panic(fmt.Errorf("datarecording: creating table %s: %w", tableName, err))
	}

	r.tables[tableName] = &clickHouseTable{columns: cols}
}

// InsertData buffers a row. It flushes once the batch is full.
func (r *ClickHouseRecorder) InsertData(tableName string, entry any) {
	r.mu.Lock()

	t, exists := r.tables[tableName]
	if !exists {
		r.mu.Unlock()
		panic(fmt.Sprintf("datarecording: table %s does not exist", tableName))
	}

	t.rows = append(t.rows, valuesOf(entry))
	r.entryCount++
	full := r.entryCount >= r.batchSize

	r.mu.Unlock()

	if full {
		r.Flush()
	}
}

// ListTables returns the table names in order.
func (r *ClickHouseRecorder) ListTables() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.tables))
	for name := range r.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush sends every buffered row, one batch per table.
func (r *ClickHouseRecorder) Flush() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryCount == 0 {
		return
	}

	ctx := context.Background()
	for name, t := range r.tables {
		if len(t.rows) == 0 {
			continue
		}

		r.sendBatch(ctx, name, t)
		t.rows = t.rows[:0]
	}

	r.entryCount = 0
}

func (r *ClickHouseRecorder) sendBatch(
	ctx context.Context, name string, t *clickHouseTable,
) {
	batch, err := r.conn.PrepareBatch(ctx, "INSERT INTO "+name)
	if err != nil {
		panic(fmt.Errorf("datarecording: preparing batch for %s: %w", name, err))
	}

	for _, row := range t.rows {
		if err := batch.Append(row...); err != nil {
			panic(fmt.Errorf("datarecording: appending to %s: %w", name, err))
		}
	}

	if err := batch.Send(); err != nil {
		panic(fmt.Errorf("datarecording: sending batch to %s: %w", name, err))
	}
}

// Close flushes and closes the connection.
func (r *ClickHouseRecorder) Close() error {
	r.Flush()

	if err := r.conn.Close(); err != nil {
		return fmt.Errorf("datarecording: closing ClickHouse: %w", err)
	}

	return nil
}

var _ DataRecorder = (*ClickHouseRecorder)(nil)
