// ABOUTME: Tests for the SQLite invocation ledger: recording, recent listing, aggregation and reopening.
// ABOUTME: Uses a temp database per test; the engine integration runs a real ExecRunner recording into it.
package ledger

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/2389-research/imagine/imagine"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestLedgerRecordAndRecent(t *testing.T) {
	l := openTestLedger(t)
	base := time.Now()

	invs := []imagine.Invocation{
		{Program: "dot", Args: []string{"-Tsvg", "in.txt"}, Output: "out.svg", Succeeded: true, StartedAt: base, Duration: 15 * time.Millisecond},
		{Program: "dot", Output: "out.svg", CacheHit: true, Succeeded: true, StartedAt: base.Add(time.Second)},
		{Program: "ditaa", Args: []string{"in.txt"}, ExitCode: 2, StartedAt: base.Add(2 * time.Second)},
	}
	for _, inv := range invs {
		if err := l.Record(inv); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	entries, err := l.Recent(10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].Program != "ditaa" || entries[0].ExitCode != 2 || entries[0].Succeeded {
		t.Errorf("expected newest failed ditaa first, got %+v", entries[0])
	}
	if !entries[1].CacheHit || len(entries[1].Args) != 0 {
		t.Errorf("expected cache hit without args, got %+v", entries[1])
	}
	last := entries[2]
	if !reflect.DeepEqual(last.Args, []string{"-Tsvg", "in.txt"}) {
		t.Errorf("expected args round trip, got %v", last.Args)
	}
	if last.Duration != 15*time.Millisecond {
		t.Errorf("expected 15ms, got %v", last.Duration)
	}
	if !last.StartedAt.Equal(time.Unix(0, base.UnixNano())) {
		t.Errorf("expected start %v, got %v", base, last.StartedAt)
	}
	if last.ID.String() == "" {
		t.Error("expected a ULID")
	}

	limited, err := l.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestLedgerStats(t *testing.T) {
	l := openTestLedger(t)
	now := time.Now()
	for _, inv := range []imagine.Invocation{
		{Program: "dot", Succeeded: true, StartedAt: now},
		{Program: "dot", Succeeded: true, CacheHit: true, StartedAt: now},
		{Program: "dot", ExitCode: 1, StartedAt: now},
		{Program: "figlet", Succeeded: true, StartedAt: now},
	} {
		if err := l.Record(inv); err != nil {
			t.Fatal(err)
		}
	}

	s, err := l.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Total != 4 || s.CacheHits != 1 || s.Failures != 1 {
		t.Errorf("expected 4 total, 1 hit, 1 failure, got %+v", s)
	}
	want := []ProgramStats{
		{Program: "dot", Runs: 3, CacheHits: 1, Failures: 1},
		{Program: "figlet", Runs: 1},
	}
	if !reflect.DeepEqual(s.Programs, want) {
		t.Errorf("expected %+v, got %+v", want, s.Programs)
	}
}

func TestLedgerEmptyStats(t *testing.T) {
	l := openTestLedger(t)
	s, err := l.Stats()
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.Total != 0 || len(s.Programs) != 0 {
		t.Errorf("expected empty stats, got %+v", s)
	}
}

func TestLedgerPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	l, err := Open(path)
	if err != nil {
		t.Fatalf("open ledger: %v", err)
	}
	if err := l.Record(imagine.Invocation{Program: "mscgen", Succeeded: true, StartedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	l.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	entries, err := reopened.Recent(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Program != "mscgen" {
		t.Errorf("expected persisted entry, got %+v", entries)
	}
}

func TestLedgerRecordsEngineRuns(t *testing.T) {
	l := openTestLedger(t)
	runner := imagine.NewExecRunner(nil, l)
	output := filepath.Join(t.TempDir(), "missing.png")

	runner.Run(t.Context(), "imagine-no-such-program", []string{"x"}, output, false)

	entries, err := l.Recent(5)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Succeeded || entries[0].ExitCode != -1 {
		t.Errorf("expected failed run recorded, got %+v", entries)
	}
}
