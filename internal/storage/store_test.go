package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/session"
	"github.com/san-kum/pimsim/internal/sim"
)

func testResult() *sim.Result {
	return &sim.Result{
		Mode: session.Auto,
		Samples: []metrics.Sample{
			{Elapsed: 0, Pose: robot.Pose{X: 70, Y: 70}, Committed: true},
			{Elapsed: 50 * time.Millisecond, Pose: robot.Pose{X: 70.04, Y: 70}, Committed: true, VelL: 0.04, VelR: 0.04, Sensors: [3]float64{0, 1, 0.5}},
			{Elapsed: 100 * time.Millisecond, Pose: robot.Pose{X: 70.04, Y: 70}, Committed: false},
		},
		Metrics:  map[string]float64{"distance": 0.04},
		Logs:     []string{"autonomous period over"},
		Elapsed:  150 * time.Millisecond,
		TimedOut: true,
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("student_code.py", "line", "medium", testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Mode != "auto" || meta.Layout != "line" || meta.Ticks != 3 || !meta.TimedOut {
		t.Errorf("unexpected metadata %+v", meta)
	}

	if meta.Metrics["distance"] != 0.04 {
		t.Errorf("expected distance 0.04, got %f", meta.Metrics["distance"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}

	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}

	got := samples[1]
	if got.Elapsed != 50*time.Millisecond || got.Pose.X != 70.04 || got.Sensors[1] != 1 || !got.Committed {
		t.Errorf("unexpected sample %+v", got)
	}
	if samples[2].Committed {
		t.Error("third sample was rejected")
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	st.Init()

	for i := 0; i < 3; i++ {
		if _, err := st.Save("student_code.py", "empty", "medium", testResult()); err != nil {
			t.Fatal(err)
		}
	}
	// stray files are skipped
	os.WriteFile(filepath.Join(tmpDir, "notes.txt"), []byte("x"), 0644)
	os.MkdirAll(filepath.Join(tmpDir, "broken"), 0755)

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.Before(runs[i-1].Timestamp) {
			t.Error("runs should be oldest first")
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "nope"))
	runs, err := st.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestLoadSamplesCorrupt(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	runID, err := st.Save("a.py", "empty", "medium", testResult())
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(tmpDir, runID, "samples.csv")
	data := "time,x,y,dir,vel_l,vel_r,left,center,right,committed\nabc,1,2,3,4,5,6,7,8,true\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadSamples(runID); err == nil {
		t.Error("expected parse error")
	}
}

func TestExportJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, "a.py", "maze", testResult()); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.Ticks != 3 || len(data.Poses) != 3 || data.Poses[1].Time != 0.05 {
		t.Errorf("unexpected export %+v", data)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, "a.py", "maze", testResult()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.TrimSpace(buf.Bytes()), bytes.TrimSpace(raw)) {
		t.Error("file and writer exports differ")
	}
}
