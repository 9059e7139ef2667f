package storage

import (
	"encoding/json"
	"io"
	"os"

	"github.com/san-kum/pimsim/internal/sim"
)

type ExportPose struct {
	Time float64 `json:"t"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Dir  float64 `json:"dir"`
}

type ExportData struct {
	Script   string             `json:"script"`
	Mode     string             `json:"mode"`
	Layout   string             `json:"layout"`
	Duration float64            `json:"duration"`
	Ticks    int                `json:"ticks"`
	TimedOut bool               `json:"timed_out"`
	Poses    []ExportPose       `json:"poses"`
	Sensors  [][3]float64       `json:"sensors"`
	Logs     []string           `json:"logs"`
	Metrics  map[string]float64 `json:"metrics"`
}

func exportData(script, layout string, result *sim.Result) ExportData {
	data := ExportData{
		Script:   script,
		Mode:     string(result.Mode),
		Layout:   layout,
		Duration: result.Elapsed.Seconds(),
		Ticks:    len(result.Samples),
		TimedOut: result.TimedOut,
		Poses:    make([]ExportPose, len(result.Samples)),
		Sensors:  make([][3]float64, len(result.Samples)),
		Logs:     result.Logs,
		Metrics:  result.Metrics,
	}
	for i, s := range result.Samples {
		data.Poses[i] = ExportPose{Time: s.Elapsed.Seconds(), X: s.Pose.X, Y: s.Pose.Y, Dir: s.Pose.Dir}
		data.Sensors[i] = s.Sensors
	}
	return data
}

func ExportJSON(path string, script, layout string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return WriteJSON(file, script, layout, result)
}

func WriteJSON(w io.Writer, script, layout string, result *sim.Result) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(exportData(script, layout, result))
}
