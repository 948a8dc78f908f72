package journal

import (
	"testing"
)

func TestJournal_RecordAndList(t *testing.T) {
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer j.Close()

	if err := j.Record(Entry{DocID: "b", URL: "https://x/b", Status: StatusDone, Attempts: 1, ImagesResolved: 2, ImagesTotal: 3, DurationMS: 40}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := j.Record(Entry{DocID: "a", URL: "https://x/a", Status: StatusFailed, Attempts: 3}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := j.Entries()
	if err != nil {
		t.Fatalf("Entries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0].DocID != "a" || entries[1].DocID != "b" {
		t.Errorf("entries not ordered by doc id: %v", entries)
	}
	if entries[1].ImagesResolved != 2 || entries[1].ImagesTotal != 3 {
		t.Errorf("image counts lost: %+v", entries[1])
	}
}

func TestJournal_RecordReplacesByDocID(t *testing.T) {
	j, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	j.Record(Entry{DocID: "d", URL: "u", Status: StatusFailed, Attempts: 3})
	j.Record(Entry{DocID: "d", URL: "u", Status: StatusDone, Attempts: 1})

	entries, err := j.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}
	if entries[0].Status != StatusDone {
		t.Errorf("status = %q, want latest outcome", entries[0].Status)
	}
}

func TestJournal_ReopenKeepsRows(t *testing.T) {
	dir := t.TempDir()
	j, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	j.Record(Entry{DocID: "keep", URL: "u", Status: StatusMetadataOnly})
	j.Close()

	j2, err := Open(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer j2.Close()
	entries, err := j2.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].DocID != "keep" {
		t.Errorf("rows lost across reopen: %v", entries)
	}
}
