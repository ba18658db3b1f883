package tracing

import (
	"database/sql"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// SQLiteWriter stores access records in a SQLite database.
type SQLiteWriter struct {
	*sql.DB
	statement *sql.Stmt

	dbName    string
	records   []AccessRecord
	batchSize int
}

// NewSQLiteWriter creates a new SQLiteWriter. The ".sqlite3" suffix is
// appended to the name at Init time.
func NewSQLiteWriter(dbName string) *SQLiteWriter {
	w := &SQLiteWriter{
		dbName:    dbName,
		batchSize: 100000,
	}

	atexit.Register(func() { w.Flush() })

	return w
}

// Init establishes the database connection and creates the access table.
func (w *SQLiteWriter) Init() {
	if w.dbName == "" {
		w.dbName = "cachesim_trace_" + xid.New().String()
	}

	db, err := sql.Open("sqlite3", w.dbName+".sqlite3")
	if err != nil {
		panic(err)
	}
	w.DB = db

	w.mustExecute(`
		CREATE TABLE access (
			seq INTEGER,
			cache TEXT,
			pc INTEGER,
			addr INTEGER,
			bytes INTEGER,
			store INTEGER,
			miss INTEGER
		)`)

	statement, err := w.Prepare(
		"INSERT INTO access VALUES (?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		panic(err)
	}
	w.statement = statement
}

// Write buffers one record, flushing when the batch fills.
func (w *SQLiteWriter) Write(rec AccessRecord) {
	w.records = append(w.records, rec)
	if len(w.records) >= w.batchSize {
		w.Flush()
	}
}

// Flush writes all buffered records to the database in one transaction.
func (w *SQLiteWriter) Flush() {
	if len(w.records) == 0 {
		return
	}

	w.mustExecute("BEGIN TRANSACTION")
	defer w.mustExecute("COMMIT TRANSACTION")

	for _, rec := range w.records {
		_, err := w.statement.Exec(
			int64(rec.Seq),
			rec.Cache,
			int64(rec.PC),
			int64(rec.Addr),
			int64(rec.Bytes),
			rec.Store,
			rec.Miss,
		)
		if err != nil {
			panic(err)
		}
	}

	w.records = nil
}

func (w *SQLiteWriter) mustExecute(query string) sql.Result {
	res, err := w.Exec(query)
	if err != nil {
		panic(err)
	}

	return res
}
