package datarecording

import (
	"database/sql"
	"fmt"
	"os"
	"reflect"
	"sort"
	"strings"
	"sync"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

type sqliteTable struct {
	columns []column
	entries []any
}

// SQLiteWriter buffers rows in memory and writes them to a SQLite file in
// one transaction per flush.
type SQLiteWriter struct {
	*sql.DB

	mu         sync.Mutex
	dbName     string
	tables     map[string]*sqliteTable
	batchSize  int
	entryCount int
}

func newSQLiteWriter(path string, batchSize int) (*SQLiteWriter, error) {
	w := &SQLiteWriter{
		dbName:    path,
		batchSize: batchSize,
		tables:    make(map[string]*sqliteTable),
	}

	if err := w.open(); err != nil {
		return nil, err
	}

	atexit.Register(func() { w.Flush() })

	return w, nil
}

// NewSQLiteWriterWithDB creates a writer on an open database.
func NewSQLiteWriterWithDB(db *sql.DB) *SQLiteWriter {
	w := &SQLiteWriter{
		DB:        db,
		batchSize: defaultBatchSize,
		tables:    make(map[string]*sqliteTable),
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// FileName returns the file the writer records to.
func (w *SQLiteWriter) FileName() string {
	return w.dbName + ".sqlite3"
}

func (w *SQLiteWriter) open() error {
	if w.dbName == "" {
		w.dbName = "ecusim_" + xid.New().String()
	}

	filename := w.FileName()
	if _, err := os.Stat(filename); err == nil {
		return fmt.Errorf("datarecording: file %s already exists", filename)
	}

	db, err := sql.Open("sqlite3", filename)
	if err != nil {
		return fmt.Errorf("datarecording: opening %s: %w", filename, err)
	}

	w.DB = db

	return nil
}

// CreateTable creates a table and its indexes. It panics if the sample is
// not a flat struct.
func (w *SQLiteWriter) CreateTable(tableName string, sampleEntry any) {
	cols, err := columnsOf(sampleEntry)
	if err != nil {
		panic(err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	defs := make([]string, 0, len(cols))
	for _, c := range cols {
		defs = append(defs, c.name+" "+sqliteType(c.kind))
	}

	w.mustExecute(`CREATE TABLE ` + tableName + ` (` + "\n\t" +
		strings.Join(defs, ",\n\t") + "\n" + `);`)

	for _, c := range cols {
		if c.indexed {
			w.mustExecute(fmt.Sprintf("CREATE INDEX %s_%s ON %s (%s);",
				tableName, c.name, tableName, c.name))
		}
	}

	w.tables[tableName] = &sqliteTable{columns: cols}
}

// InsertData buffers a row. It flushes once the batch is full.
func (w *SQLiteWriter) InsertData(tableName string, entry any) {
	w.mu.Lock()

	t, exists := w.tables[tableName]
	if !exists {
		w.mu.Unlock()
		panic(fmt.Sprintf("datarecording: table %s does not exist", tableName))
	}

	t.entries = append(t.entries, entry)
	w.entryCount++
	full := w.entryCount >= w.batchSize

	w.mu.Unlock()

	if full {
		w.Flush()
	}
}

// ListTables returns the table names in order.
func (w *SQLiteWriter) ListTables() []string {
	w.mu.Lock()
	defer w.mu.Unlock()

	names := make([]string, 0, len(w.tables))
	for name := range w.tables {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Flush writes every buffered row.
func (w *SQLiteWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.entryCount == 0 {
		return
	}

	tx, err := w.Begin()
	if err != nil {
		panic(fmt.Errorf("datarecording: starting transaction: %w", err))
	}

	for name, t := range w.tables {
		if len(t.entries) == 0 {
			continue
		}

		insertRows(tx, name, t)
		t.entries = nil
	}

	if err := tx.Commit(); err != nil {
		panic(fmt.Errorf("datarecording: committing: %w", err))
	}

	w.entryCount = 0
}

func insertRows(tx *sql.Tx, name string, t *sqliteTable) {
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(t.columns)), ", ")

	stmt, err := tx.Prepare("INSERT INTO " + name + " VALUES (" + marks + ")")
	if err != nil {
		panic(fmt.Errorf("datarecording: preparing insert into %s: %w",
			name, err))
	}
	defer stmt.Close()

	for _, entry := range t.entries {
		if _, err := stmt.Exec(valuesOf(entry)...); err != nil {
			panic(fmt.Errorf("datarecording: inserting into %s: %w", name, err))
		}
	}
}

// Close flushes and closes the database.
func (w *SQLiteWriter) Close() error {
	w.Flush()

	return w.DB.Close()
}

func (w *SQLiteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		panic(fmt.Errorf("datarecording: executing %q: %w", query, err))
	}

	return res
}

func sqliteType(kind reflect.Kind) string {
	switch kind {
	case reflect.Float32, reflect.Float64:
		return "REAL"
	case reflect.String:
		return "TEXT"
	default:
		return "INTEGER"
	}
}

var _ DataRecorder = (*SQLiteWriter)(nil)
