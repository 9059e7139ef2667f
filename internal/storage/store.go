package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/sim"
)

type Store struct {
	baseDir string
	index   *Index
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

// UseIndex makes Save record every run in ix as well.
func (s *Store) UseIndex(ix *Index) { s.index = ix }

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID        string             `json:"id"`
	Script    string             `json:"script"`
	Mode      string             `json:"mode"`
	Layout    string             `json:"layout"`
	RobotType string             `json:"robot_type"`
	Timestamp time.Time          `json:"timestamp"`
	Duration  float64            `json:"duration"`
	Ticks     int                `json:"ticks"`
	TimedOut  bool               `json:"timed_out"`
	Logs      []string           `json:"logs,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
}

var sampleHeader = []string{"time", "x", "y", "dir", "vel_l", "vel_r", "left", "center", "right", "committed"}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

// Save writes result under a fresh run id: metadata.json and one csv row
// per tick in samples.csv.
func (s *Store) Save(script, layout, robotType string, result *sim.Result) (string, error) {
	runID := uuid.NewString()
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Script:    script,
		Mode:      string(result.Mode),
		Layout:    layout,
		RobotType: robotType,
		Timestamp: time.Now(),
		Duration:  result.Elapsed.Seconds(),
		Ticks:     len(result.Samples),
		TimedOut:  result.TimedOut,
		Logs:      result.Logs,
		Metrics:   result.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "samples.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := w.Write(sampleHeader); err != nil {
		return "", err
	}
	for _, sm := range result.Samples {
		row := []string{
			formatFloat(sm.Elapsed.Seconds()),
			formatFloat(sm.Pose.X),
			formatFloat(sm.Pose.Y),
			formatFloat(sm.Pose.Dir),
			formatFloat(sm.VelL),
			formatFloat(sm.VelR),
			formatFloat(sm.Sensors[0]),
			formatFloat(sm.Sensors[1]),
			formatFloat(sm.Sensors[2]),
			strconv.FormatBool(sm.Committed),
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	if s.index != nil {
		if err := s.index.Put(meta); err != nil {
			return runID, fmt.Errorf("indexing run %s: %w", runID, err)
		}
	}
	return runID, nil
}

// List returns every saved run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}

		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads back the per-tick samples of a run.
func (s *Store) LoadSamples(runID string) ([]metrics.Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, "samples.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(sampleHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(records) < 2 {
		return []metrics.Sample{}, nil
	}

	samples := make([]metrics.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		var vals [9]float64
		for j := range vals {
			v, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, fmt.Errorf("samples.csv line %d: %w", i+2, err)
			}
			vals[j] = v
		}
		committed, err := strconv.ParseBool(record[9])
		if err != nil {
			return nil, fmt.Errorf("samples.csv line %d: %w", i+2, err)
		}
		samples = append(samples, metrics.Sample{
			Elapsed:   time.Duration(math.Round(vals[0] * float64(time.Second))),
			Pose:      robot.Pose{X: vals[1], Y: vals[2], Dir: vals[3]},
			VelL:      vals[4],
			VelR:      vals[5],
			Sensors:   [3]float64{vals[6], vals[7], vals[8]},
			Committed: committed,
		})
	}

	return samples, nil
}
