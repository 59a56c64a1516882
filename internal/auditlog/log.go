// Package auditlog persists failed gateway requests to SQLite or a JSONL file.
package auditlog

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/navantesolutions/gagateway/internal/hub"
)

const asyncBuffer = 2000

type Logger interface {
	Append(ev hub.RequestEvent)
	Close() error
}

// New opens a sink for path: "sqlite:<file>" for SQLite, anything else is a
// JSONL file. An empty path returns a nil Logger.
func New(path string) (Logger, error) {
	if path == "" {
		return nil, nil
	}
	if strings.HasPrefix(path, "sqlite:") {
		return newSQLite(strings.TrimPrefix(path, "sqlite:"))
	}
	return newFile(path)
}

// asyncLogger drains events on its own goroutine so Append never blocks the
// request path. Only failed events are queued.
type asyncLogger struct {
	ch      chan hub.RequestEvent
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
	write   func(hub.RequestEvent)
	closeFn func() error
	err     error
}

func startAsync(write func(hub.RequestEvent), closeFn func() error) *asyncLogger {
	l := &asyncLogger{
		ch:      make(chan hub.RequestEvent, asyncBuffer),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		write:   write,
		closeFn: closeFn,
	}
	go l.run()
	return l
}

func (l *asyncLogger) run() {
	defer close(l.stopped)
	for {
		select {
		case ev := <-l.ch:
			l.write(ev)
		case <-l.done:
			for {
				select {
				case ev := <-l.ch:
					l.write(ev)
				default:
					l.err = l.closeFn()
					return
				}
			}
		}
	}
}

func (l *asyncLogger) Append(ev hub.RequestEvent) {
	if l == nil || !ev.Failed() {
		return
	}
	select {
	case l.ch <- ev:
	default:
	}
}

// Close flushes queued events and releases the underlying file or database.
func (l *asyncLogger) Close() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() { close(l.done) })
	<-l.stopped
	return l.err
}

func newFile(path string) (Logger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %s: %w", path, err)
	}
	return startAsync(func(ev hub.RequestEvent) { writeLine(f, ev) }, f.Close), nil
}

func writeLine(w io.Writer, ev hub.RequestEvent) {
	line := eventLine(ev)
	if len(line) == 0 {
		return
	}
	_, _ = w.Write(append(line, '\n'))
}

const createTableSQL = `CREATE TABLE IF NOT EXISTS request_failures (
	time TEXT,
	action TEXT,
	request_id TEXT,
	ip TEXT,
	method TEXT,
	path TEXT,
	view TEXT,
	status INTEGER,
	latency_ms INTEGER,
	error TEXT
);`

const insertSQL = `INSERT INTO request_failures (time, action, request_id, ip, method, path, view, status, latency_ms, error) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func newSQLite(dbPath string) (Logger, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("auditlog: open %s: %w", dbPath, err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditlog: create table: %w", err)
	}
	insert, err := db.Prepare(insertSQL)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("auditlog: prepare insert: %w", err)
	}
	write := func(ev hub.RequestEvent) {
		_, _ = insert.Exec(
			ev.Timestamp.Format(time.RFC3339),
			ev.Action,
			ev.RequestID,
			ev.IP,
			ev.Method,
			ev.Path,
			ev.View,
			ev.Status,
			ev.Latency,
			ev.Error,
		)
	}
	closeFn := func() error {
		_ = insert.Close()
		return db.Close()
	}
	return startAsync(write, closeFn), nil
}

func eventLine(ev hub.RequestEvent) []byte {
	row := struct {
		Time      string `json:"time"`
		Action    string `json:"action"`
		RequestID string `json:"request_id,omitempty"`
		IP        string `json:"ip"`
		Method    string `json:"method"`
		Path      string `json:"path"`
		View      string `json:"view,omitempty"`
		Status    int    `json:"status"`
		Latency   int64  `json:"latency_ms,omitempty"`
		Error     string `json:"error,omitempty"`
	}{
		Time:      ev.Timestamp.Format(time.RFC3339),
		Action:    ev.Action,
		RequestID: ev.RequestID,
		IP:        ev.IP,
		Method:    ev.Method,
		Path:      ev.Path,
		View:      ev.View,
		Status:    ev.Status,
		Latency:   ev.Latency,
		Error:     ev.Error,
	}
	b, _ := json.Marshal(row)
	return b
}
