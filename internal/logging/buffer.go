package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Record is one buffered run-log entry. ElementQuery is set on per-element
// error records and empty otherwise.
type Record struct {
	Time         time.Time
	Level        string
	Message      string
	ElementQuery string
}

// Line renders the record in the flat form persisted to storage.
func (r Record) Line() string {
	var b strings.Builder
	b.WriteString(r.Time.UTC().Format(time.RFC3339))
	b.WriteByte(' ')
	b.WriteString(r.Level)
	b.WriteByte(' ')
	b.WriteString(r.Message)
	if r.ElementQuery != "" {
		fmt.Fprintf(&b, " element_query=%s", r.ElementQuery)
	}
	return b.String()
}

// Buffer accumulates run-log records until a phase boundary drains them to
// storage. Safe for concurrent appends from dispatcher workers.
type Buffer struct {
	mu      sync.Mutex
	records []Record
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Append records an informational message.
func (b *Buffer) Append(message string) {
	b.push(Record{Time: time.Now(), Level: "INFO", Message: message})
}

// AppendError records a per-element error with the element's address.
func (b *Buffer) AppendError(message, elementQuery string) {
	b.push(Record{Time: time.Now(), Level: "ERROR", Message: message, ElementQuery: elementQuery})
}

func (b *Buffer) push(r Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.records = append(b.records, r)
}

// Len reports the number of buffered records.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.records)
}

// Drain removes and returns all buffered records in append order.
func (b *Buffer) Drain() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}

// DrainLines removes all buffered records and renders them for persistence.
func (b *Buffer) DrainLines() []string {
	records := b.Drain()
	if len(records) == 0 {
		return nil
	}
	lines := make([]string, 0, len(records))
	for _, r := range records {
		lines = append(lines, r.Line())
	}
	return lines
}
