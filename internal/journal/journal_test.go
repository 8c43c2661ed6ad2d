package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecordAndLookup(t *testing.T) {
	s := openTestStore(t)

	in := Entry{
		Path:        "/images/a.png",
		Mode:        "remove",
		Status:      "processed",
		Confidence:  0.82,
		ProcessedAt: time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC),
	}
	if err := s.Record(in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, ok, err := s.Lookup("/images/a.png", "remove")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !ok {
		t.Fatal("entry not found")
	}
	if got.Status != "processed" || got.Confidence != 0.82 {
		t.Errorf("entry = %+v", got)
	}
	if !got.ProcessedAt.Equal(in.ProcessedAt) {
		t.Errorf("timestamp = %v, want %v", got.ProcessedAt, in.ProcessedAt)
	}
}

func TestLookupMiss(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.Lookup("/images/missing.png", "remove")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if ok {
		t.Error("unexpected hit for unknown path")
	}
}

func TestRecordUpserts(t *testing.T) {
	s := openTestStore(t)

	if err := s.Record(Entry{Path: "/a.png", Mode: "remove", Status: "failed"}); err != nil {
		t.Fatal(err)
	}
	if err := s.Record(Entry{Path: "/a.png", Mode: "remove", Status: "processed", Confidence: 0.5}); err != nil {
		t.Fatal(err)
	}

	got, ok, err := s.Lookup("/a.png", "remove")
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if got.Status != "processed" {
		t.Errorf("status = %q after upsert, want processed", got.Status)
	}
}

func TestDone(t *testing.T) {
	s := openTestStore(t)

	tests := []struct {
		status string
		want   bool
	}{
		{"processed", true},
		{"skipped", true},
		{"failed", false},
	}
	for _, tt := range tests {
		path := "/img_" + tt.status + ".png"
		if err := s.Record(Entry{Path: path, Mode: "remove", Status: tt.status}); err != nil {
			t.Fatal(err)
		}
		done, err := s.Done(path, "remove")
		if err != nil {
			t.Fatal(err)
		}
		if done != tt.want {
			t.Errorf("Done(%q) = %v, want %v", tt.status, done, tt.want)
		}
	}

	done, err := s.Done("/never-seen.png", "remove")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("Done must be false for unknown paths")
	}
}

func TestModesAreIndependent(t *testing.T) {
	s := openTestStore(t)

	if err := s.Record(Entry{Path: "/a.png", Mode: "remove", Status: "processed"}); err != nil {
		t.Fatal(err)
	}

	done, err := s.Done("/a.png", "add")
	if err != nil {
		t.Fatal(err)
	}
	if done {
		t.Error("a removal record must not mark the add mode as done")
	}
}
