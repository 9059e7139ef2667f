package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/metrics"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/session"
)

type Config struct {
	Mode     session.Mode
	Duration time.Duration
	Start    robot.StartInfo
	// Layout is defined before the run starts when set.
	Layout  *field.Layout
	Session session.Config
}

type Result struct {
	Mode     session.Mode
	Samples  []metrics.Sample
	Metrics  map[string]float64
	Logs     []string
	Elapsed  time.Duration
	TimedOut bool
	// Stopped is set when the session went idle on its own, after an
	// error or the autonomous period.
	Stopped bool
}

// Final returns the pose after the last tick, or false for a run that
// never ticked.
func (r *Result) Final() (robot.Pose, bool) {
	if len(r.Samples) == 0 {
		return robot.Pose{}, false
	}
	return r.Samples[len(r.Samples)-1].Pose, true
}

// Trace returns one sensor reading per tick; i is 0 for left, 1 for center
// and 2 for right.
func (r *Result) Trace(i int) []float64 {
	out := make([]float64, len(r.Samples))
	for j, s := range r.Samples {
		out[j] = s.Sensors[i]
	}
	return out
}

type SimError struct {
	Mode    session.Mode
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("%s run: %s", e.Mode, e.Message)
}
