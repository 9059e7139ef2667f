package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestIndexFind(t *testing.T) {
	ix, err := OpenIndex(filepath.Join(t.TempDir(), "runs.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer ix.Close()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	metas := []RunMetadata{
		{ID: "a", Script: "line.py", Mode: "auto", Layout: "line", Timestamp: base, Metrics: map[string]float64{"distance": 12}},
		{ID: "b", Script: "maze.py", Mode: "auto", Layout: "maze", Timestamp: base.Add(time.Minute)},
		{ID: "c", Script: "line.py", Mode: "teleop", Layout: "line", Timestamp: base.Add(2 * time.Minute)},
	}
	for _, m := range metas {
		if err := ix.Put(m); err != nil {
			t.Fatalf("put %s: %v", m.ID, err)
		}
	}

	tests := []struct {
		name string
		q    Query
		want []string
	}{
		{"all", Query{}, []string{"a", "b", "c"}},
		{"by script", Query{Script: "line.py"}, []string{"a", "c"}},
		{"by mode", Query{Mode: "auto"}, []string{"a", "b"}},
		{"by layout and mode", Query{Layout: "line", Mode: "teleop"}, []string{"c"}},
		{"limit", Query{Limit: 1}, []string{"a"}},
		{"no match", Query{Layout: "ramp"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs, err := ix.Find(tt.q)
			if err != nil {
				t.Fatal(err)
			}
			if len(recs) != len(tt.want) {
				t.Fatalf("expected %v, got %+v", tt.want, recs)
			}
			for i, id := range tt.want {
				if recs[i].ID != id {
					t.Errorf("record %d: expected %s, got %s", i, id, recs[i].ID)
				}
			}
		})
	}

	recs, _ := ix.Find(Query{Script: "line.py", Mode: "auto"})
	if len(recs) != 1 || recs[0].Distance != 12 {
		t.Errorf("expected distance to be indexed, got %+v", recs)
	}
}

func TestIndexPutReplaces(t *testing.T) {
	ix, err := OpenIndex("", zerolog.Nop())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer ix.Close()

	m := RunMetadata{ID: "a", Script: "line.py", Ticks: 3}
	if err := ix.Put(m); err != nil {
		t.Fatal(err)
	}
	m.Ticks = 7
	if err := ix.Put(m); err != nil {
		t.Fatal(err)
	}

	n, err := ix.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}
	recs, _ := ix.Find(Query{})
	if len(recs) != 1 || recs[0].Ticks != 7 {
		t.Errorf("expected the record to be replaced, got %+v", recs)
	}
}

func TestStoreIndexesSaves(t *testing.T) {
	dir := t.TempDir()
	st := New(dir)
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}

	// a run saved before the index existed
	early, err := st.Save("line.py", "line", "medium", testResult())
	if err != nil {
		t.Fatal(err)
	}

	ix, err := OpenIndex(filepath.Join(dir, "runs.db"), zerolog.Nop())
	if err != nil {
		t.Fatal(err)
	}
	defer ix.Close()
	st.UseIndex(ix)

	late, err := st.Save("maze.py", "maze", "heavy", testResult())
	if err != nil {
		t.Fatal(err)
	}
	if recs, _ := ix.Find(Query{}); len(recs) != 1 || recs[0].ID != late {
		t.Fatalf("expected only the late run indexed, got %+v", recs)
	}

	n, err := st.Reindex(ix)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 runs reindexed, got %d", n)
	}
	recs, err := ix.Find(Query{Layout: "line"})
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 1 || recs[0].ID != early || !recs[0].TimedOut {
		t.Errorf("unexpected records %+v", recs)
	}
}
