package tracing

import (
	"fmt"
	"os"

	"github.com/rs/xid"
	"github.com/tebeka/atexit"
)

// CSVWriter stores access records in a CSV file.
type CSVWriter struct {
	path string
	file *os.File

	records    []AccessRecord
	bufferSize int
}

// NewCSVWriter creates a new CSVWriter. The ".csv" suffix is appended to
// the path at Init time.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{
		path:       path,
		bufferSize: 1000,
	}
}

// Init creates the trace file. An empty path gets a unique generated
// name. Init refuses to overwrite an existing file.
func (w *CSVWriter) Init() {
	if w.path == "" {
		w.path = "cachesim_trace_" + xid.New().String()
	}

	filename := w.path + ".csv"
	_, err := os.Stat(filename)
	if err == nil {
		panic(fmt.Errorf("file %s already exists", filename))
	}

	file, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	w.file = file

	fmt.Fprintf(file, "Seq, Cache, PC, Addr, Bytes, Store, Miss\n")

	atexit.Register(func() {
		w.Flush()
		err := w.file.Close()
		if err != nil {
			panic(err)
		}
	})
}

// Write buffers one record, flushing when the buffer fills.
func (w *CSVWriter) Write(rec AccessRecord) {
	w.records = append(w.records, rec)
	if len(w.records) >= w.bufferSize {
		w.Flush()
	}
}

// Flush writes all buffered records to the file.
func (w *CSVWriter) Flush() {
	for _, rec := range w.records {
		fmt.Fprintf(w.file, "%d, %s, 0x%x, 0x%x, %d, %t, %t\n",
			rec.Seq, rec.Cache, rec.PC, rec.Addr,
			rec.Bytes, rec.Store, rec.Miss)
	}

	w.records = nil
}
