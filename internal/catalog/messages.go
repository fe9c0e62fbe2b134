package catalog

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/punchamoorthee/paygate/internal/domain"
)

var ErrMissingColumns = errors.New("messages csv needs ID and MESSAGE columns")

// MessageRow is one line of the offline messages sheet.
type MessageRow struct {
	ID      string
	Message string
}

// ReadMessages parses a CSV with ID and MESSAGE header columns. Rows with a
// blank id or message are skipped.
func ReadMessages(r io.Reader) ([]MessageRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	idCol, msgCol := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case "ID":
			idCol = i
		case "MESSAGE":
			msgCol = i
		}
	}
	if idCol < 0 || msgCol < 0 {
		return nil, ErrMissingColumns
	}

	var rows []MessageRow
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		if idCol >= len(rec) || msgCol >= len(rec) {
			continue
		}
		id := domain.NormalizeID(rec[idCol])
		msg := strings.TrimSpace(rec[msgCol])
		if id == "" || msg == "" {
			continue
		}
		rows = append(rows, MessageRow{ID: id, Message: msg})
	}
	return rows, nil
}

// ApplyMessages sets the "message" field of every catalog entry named in rows
// and returns the rewritten document with the number of entries touched.
// Unknown ids are ignored; every other field is left as it was.
func ApplyMessages(doc []byte, rows []MessageRow) ([]byte, int, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(doc, &top); err != nil {
		return nil, 0, fmt.Errorf("decode catalog: %w", err)
	}
	var entries map[string]map[string]json.RawMessage
	if raw, ok := top["entries"]; ok {
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, 0, fmt.Errorf("decode catalog entries: %w", err)
		}
	}

	keys := make(map[string]string, len(entries))
	for key := range entries {
		keys[domain.NormalizeID(key)] = key
	}

	applied := 0
	for _, row := range rows {
		key, ok := keys[row.ID]
		if !ok || entries[key] == nil {
			continue
		}
		msg, err := json.Marshal(row.Message)
		if err != nil {
			return nil, 0, err
		}
		entries[key]["message"] = msg
		applied++
	}

	if entries != nil {
		raw, err := json.Marshal(entries)
		if err != nil {
			return nil, 0, err
		}
		top["entries"] = raw
	}
	out, err := json.MarshalIndent(top, "", "  ")
	if err != nil {
		return nil, 0, err
	}
	return out, applied, nil
}
