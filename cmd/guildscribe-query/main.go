// Command guildscribe-query loads a journal file into sqlite and prints
// aggregate statistics. The journal itself is never written to.
package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"guildscribe/internal/journal"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS events (
	seq INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp REAL NOT NULL,
	event TEXT NOT NULL,
	data_json TEXT
);

CREATE INDEX IF NOT EXISTS idx_events_event ON events(event);

CREATE TRIGGER IF NOT EXISTS trg_events_no_update
BEFORE UPDATE ON events
BEGIN
	SELECT RAISE(ABORT, 'events are append-only: UPDATE forbidden');
END;

CREATE TRIGGER IF NOT EXISTS trg_events_no_delete
BEFORE DELETE ON events
BEGIN
	SELECT RAISE(ABORT, 'events are append-only: DELETE forbidden');
END;
`

func main() {
	journalPath := flag.String("journal", "data.jsonl", "path to the journal file")
	dbPath := flag.String("db", ":memory:", "sqlite database to load into")
	flag.Parse()

	records, err := journal.ReadRecords(*journalPath)
	if err != nil {
		log.Fatalf("read journal: %v", err)
	}

	db, err := openSQLite(*dbPath)
	if err != nil {
		log.Fatalf("open sqlite: %v", err)
	}
	defer db.Close()

	if err := loadRecords(db, records); err != nil {
		log.Fatalf("load records: %v", err)
	}
	if err := summarize(os.Stdout, db); err != nil {
		log.Fatalf("summarize: %v", err)
	}
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=FULL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func loadRecords(db *sql.DB, records []journal.Record) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, rec := range records {
		var dataJSON any
		if rec.Data != nil {
			b, err := json.Marshal(rec.Data)
			if err != nil {
				return fmt.Errorf("re-serialize record data: %w", err)
			}
			dataJSON = string(b)
		}
		if _, err := tx.Exec(`INSERT INTO events(timestamp, event, data_json) VALUES(?, ?, ?)`,
			rec.Timestamp, string(rec.Event), dataJSON); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func summarize(w io.Writer, db *sql.DB) error {
	fmt.Fprintln(w, "events by kind:")
	rows, err := db.Query(`SELECT event, count(*) FROM events GROUP BY event ORDER BY count(*) DESC`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var n int64
		if err := rows.Scan(&kind, &n); err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-14s %d\n", kind, n)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	fmt.Fprintln(w, "messages by channel:")
	chRows, err := db.Query(`
SELECT json_extract(data_json, '$.channel_name'), count(*)
FROM events
WHERE event = 'message' AND data_json IS NOT NULL
GROUP BY json_extract(data_json, '$.channel_id')
ORDER BY count(*) DESC`)
	if err != nil {
		return err
	}
	defer chRows.Close()
	for chRows.Next() {
		var name sql.NullString
		var n int64
		if err := chRows.Scan(&name, &n); err != nil {
			return err
		}
		fmt.Fprintf(w, "  %-14s %d\n", name.String, n)
	}
	if err := chRows.Err(); err != nil {
		return err
	}

	var latest sql.NullInt64
	row := db.QueryRow(`
SELECT json_extract(data_json, '$.current_member_count')
FROM events
WHERE data_json IS NOT NULL
ORDER BY seq DESC LIMIT 1`)
	if err := row.Scan(&latest); err != nil && err != sql.ErrNoRows {
		return err
	}
	if latest.Valid {
		fmt.Fprintf(w, "latest member count: %d\n", latest.Int64)
	}
	return nil
}
