package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	cklog "github.com/msto63/cmdkit/foundation/core/log"
	"github.com/msto63/cmdkit/foundation/engine/command"
)

type caller struct{ name string }

func (c caller) ID() string                        { return c.name }
func (c caller) Name() string                      { return c.name }
func (c caller) Deliver(*command.Response, string) {}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(SQLiteConfig{Path: filepath.Join(t.TempDir(), "audit.db")})
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{"sqlite": sqlite, "memory": NewMemoryStore()}
}

func TestStore_RecordAndQuery(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Now().Add(-time.Minute)
			recs := []*Record{
				{Timestamp: base, Caller: "alice", Command: "give", Line: "give @me keycard", Success: true},
				{Timestamp: base.Add(time.Second), Caller: "bob", Command: "kill", Line: "kill *", Code: "MISSING_PERMISSION"},
				{Timestamp: base.Add(2 * time.Second), Caller: "alice", Command: "survey", Line: "survey", Success: true,
					Diagnostics: []string{"x"}, Metadata: map[string]string{"turn": "1"}},
			}
			accepted, rejected, err := store.RecordBatch(ctx, recs)
			if err != nil || accepted != 3 || rejected != 0 {
				t.Fatalf("RecordBatch() = %d, %d, %v", accepted, rejected, err)
			}

			got, err := store.Query(ctx, Filter{Caller: "alice"})
			if err != nil {
				t.Fatal(err)
			}
			if len(got) != 2 || got[0].Command != "survey" || got[1].Command != "give" {
				t.Fatalf("Query(alice) = %+v", got)
			}
			if got[0].Metadata["turn"] != "1" || len(got[0].Diagnostics) != 1 || got[0].ID == "" {
				t.Errorf("record fields not round-tripped: %+v", got[0])
			}

			failed, _ := store.Query(ctx, Filter{FailedOnly: true})
			if len(failed) != 1 || failed[0].Code != "MISSING_PERMISSION" {
				t.Errorf("Query(failed) = %+v", failed)
			}
			page, _ := store.Query(ctx, Filter{Limit: 1, Offset: 1})
			if len(page) != 1 || page[0].Command != "kill" {
				t.Errorf("Query(page) = %+v", page)
			}

			stats, err := store.Stats(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if stats.Total != 3 || stats.Failures != 1 || stats.ByCommand["give"] != 1 || stats.ByCode["MISSING_PERMISSION"] != 1 {
				t.Errorf("Stats() = %+v", stats)
			}
		})
	}
}

func TestStore_Prune(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			store.Record(ctx, &Record{Timestamp: time.Now().Add(-48 * time.Hour), Caller: "old", Line: "x"})
			store.Record(ctx, &Record{Caller: "new", Line: "y"})

			removed, err := store.Prune(ctx, 24*time.Hour)
			if err != nil || removed != 1 {
				t.Fatalf("Prune() = %d, %v", removed, err)
			}
			left, _ := store.Query(ctx, Filter{})
			if len(left) != 1 || left[0].Caller != "new" {
				t.Errorf("remaining = %+v", left)
			}
		})
	}
}

func TestRecorder(t *testing.T) {
	store := NewMemoryStore()
	rec := NewRecorder(store, RecorderConfig{BatchSize: 2, FlushPeriod: time.Hour, Logger: cklog.Discard()})

	first := command.NewContext(caller{"alice"}, command.ChannelInteractive, "survey food")
	first.Descriptor = &command.Descriptor{Name: "survey"}
	first.Discipline = command.DisciplineContinuable
	resp := command.NewResponse().Print("question")
	rec.Observe(first, resp)

	second := first.Next("blue")
	rec.Observe(second, command.NewResponse().Print("thanks"))
	rec.Observe(command.NewContext(caller{"bob"}, command.ChannelConsole, "nope"), command.Failure(nil))

	rec.Flush()
	got, _ := store.Query(context.Background(), Filter{Invocation: first.ID})
	if len(got) != 2 {
		t.Fatalf("records of the conversation = %d, want 2", len(got))
	}
	lines := map[string]bool{}
	for _, r := range got {
		lines[r.Line] = true
		if r.Command != "survey" || r.Discipline != "continuable" {
			t.Errorf("record = %+v", r)
		}
	}
	if !lines["survey food"] || !lines["blue"] {
		t.Errorf("lines = %v", lines)
	}

	if err := rec.Close(); err != nil {
		t.Fatal(err)
	}
	stats, _ := store.Stats(context.Background())
	if stats.Total != 3 || stats.Failures != 1 || rec.Dropped() != 0 {
		t.Errorf("Stats() = %+v dropped = %d", stats, rec.Dropped())
	}
	rec.Flush()
}
