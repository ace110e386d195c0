package journal

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadRecords recovers every complete record from a journal file. A final
// line without a terminating newline (a crash mid-write) is ignored, and
// lines that fail to parse are skipped so one corrupt record does not hide
// the rest of the journal.
func ReadRecords(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()

	var records []Record
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadString('\n')
		if err == io.EOF {
			// Partial trailing line, not newline-terminated.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read journal: %w", err)
		}
		line = strings.TrimSuffix(line, "\n")
		if line == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
