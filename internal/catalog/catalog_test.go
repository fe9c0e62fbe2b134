package catalog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "matches.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Len() != 0 {
		t.Fatalf("expected empty catalog, got %d entries", c.Len())
	}
	if _, ok := c.Lookup("ANY"); ok {
		t.Fatalf("lookup on empty catalog should miss")
	}
}

func TestLoadMalformedReturnsEmptyWithError(t *testing.T) {
	path := writeFile(t, "matches.json", "{not json")
	c, err := Load(path)
	if err == nil {
		t.Fatalf("expected decode error")
	}
	if c == nil || c.Len() != 0 {
		t.Fatalf("expected usable empty catalog on error")
	}
}

func TestLoadNormalizesKeys(t *testing.T) {
	path := writeFile(t, "matches.json", `{"entries":{"2025a1ps0001p":{"name":"Alice","message":"hello"},"NULLED":null}}`)
	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, ok := c.Lookup("2025A1PS0001P")
	if !ok {
		t.Fatalf("expected normalized key to resolve")
	}
	if e.Message != "hello" {
		t.Fatalf("message = %q", e.Message)
	}
	if _, ok := c.Lookup("NULLED"); ok {
		t.Fatalf("null entries should be skipped")
	}
}

func TestReadMessagesSkipsBlankRows(t *testing.T) {
	csvBody := "\ufeffNAME,ID,MESSAGE\nAlice, 2025a1ps0001p ,  hi there \nBob,,ignored\nCarl,2025B,\n"
	rows, err := ReadMessages(strings.NewReader(csvBody))
	if err != nil {
		t.Fatalf("ReadMessages: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].ID != "2025A1PS0001P" || rows[0].Message != "hi there" {
		t.Fatalf("unexpected row %+v", rows[0])
	}
}

func TestReadMessagesRequiresColumns(t *testing.T) {
	if _, err := ReadMessages(strings.NewReader("ID,TEXT\nA,b\n")); err != ErrMissingColumns {
		t.Fatalf("expected ErrMissingColumns, got %v", err)
	}
}

func TestApplyMessagesPreservesOtherFields(t *testing.T) {
	doc := []byte(`{"generated":"2025-02-01","entries":{"A1":{"name":"Alice","score":12345678901234},"B2":{"name":"Bob","message":"old"}}}`)
	rows := []MessageRow{{ID: "A1", Message: "new for a"}, {ID: "B2", Message: "new for b"}, {ID: "ZZ", Message: "unknown"}}

	out, applied, err := ApplyMessages(doc, rows)
	if err != nil {
		t.Fatalf("ApplyMessages: %v", err)
	}
	if applied != 2 {
		t.Fatalf("applied = %d, want 2", applied)
	}

	var got struct {
		Generated string                     `json:"generated"`
		Entries   map[string]json.RawMessage `json:"entries"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if got.Generated != "2025-02-01" {
		t.Fatalf("top-level key lost")
	}
	if _, ok := got.Entries["ZZ"]; ok {
		t.Fatalf("unknown ids must not create entries")
	}

	c := New(got.Entries)
	a, _ := c.Lookup("A1")
	b, _ := c.Lookup("B2")
	if a.Message != "new for a" || b.Message != "new for b" {
		t.Fatalf("messages not applied: %q %q", a.Message, b.Message)
	}
	if !strings.Contains(string(out), "12345678901234") {
		t.Fatalf("large number was not preserved verbatim")
	}
}
