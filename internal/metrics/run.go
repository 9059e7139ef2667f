package metrics

import (
	"math"
	"time"

	"github.com/san-kum/pimsim/internal/robot"
)

// Sample is the robot state after one tick.
type Sample struct {
	Elapsed   time.Duration
	Pose      robot.Pose
	Committed bool
	VelL      float64
	VelR      float64
	Sensors   [3]float64 // left, center, right
}

// SampleOf captures r after a tick that started elapsed into the run.
func SampleOf(r *robot.Robot, elapsed time.Duration, committed bool) Sample {
	l, rv := r.Velocities()
	s := r.Sensors()
	return Sample{
		Elapsed:   elapsed,
		Pose:      r.Pose(),
		Committed: committed,
		VelL:      l,
		VelR:      rv,
		Sensors:   [3]float64{s.Left, s.Center, s.Right},
	}
}

// Metric summarizes a run from its samples.
type Metric interface {
	Name() string
	Observe(s Sample)
	Value() float64
	Reset()
}

// Observer is told about every tick.
type Observer interface {
	OnTick(s Sample)
}

// Defaults returns a fresh set of the run metrics.
func Defaults() []Metric {
	return []Metric{NewDistance(), NewEffort(), NewTraction(), NewLineTime()}
}

// Distance is the path length travelled, in inches.
type Distance struct {
	last  robot.Pose
	seen  bool
	total float64
}

func NewDistance() *Distance { return &Distance{} }

func (d *Distance) Name() string { return "distance" }

func (d *Distance) Observe(s Sample) {
	if d.seen {
		d.total += math.Hypot(s.Pose.X-d.last.X, s.Pose.Y-d.last.Y)
	}
	d.last = s.Pose
	d.seen = true
}

func (d *Distance) Value() float64 { return d.total }

func (d *Distance) Reset() { *d = Distance{} }

// Effort is the mean absolute wheel velocity.
type Effort struct {
	sum     float64
	samples int
}

func NewEffort() *Effort { return &Effort{} }

func (e *Effort) Name() string { return "effort" }

func (e *Effort) Observe(s Sample) {
	e.sum += (math.Abs(s.VelL) + math.Abs(s.VelR)) / 2
	e.samples++
}

func (e *Effort) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return e.sum / float64(e.samples)
}

func (e *Effort) Reset() {
	e.sum = 0
	e.samples = 0
}

// Traction is the share of ticks whose move was committed. A robot pushing
// into a wall scores low.
type Traction struct {
	rejected int
	samples  int
}

func NewTraction() *Traction { return &Traction{} }

func (t *Traction) Name() string { return "traction" }

func (t *Traction) Observe(s Sample) {
	t.samples++
	if !s.Committed {
		t.rejected++
	}
}

func (t *Traction) Value() float64 {
	if t.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(t.rejected)/float64(t.samples)
}

func (t *Traction) Reset() {
	t.rejected = 0
	t.samples = 0
}

// LineTime is the share of ticks on which the center sensor saw tape.
type LineTime struct {
	threshold float64
	on        int
	samples   int
}

func NewLineTime() *LineTime { return &LineTime{threshold: 0.5} }

func (l *LineTime) Name() string { return "line_time" }

func (l *LineTime) Observe(s Sample) {
	l.samples++
	if s.Sensors[1] >= l.threshold {
		l.on++
	}
}

func (l *LineTime) Value() float64 {
	if l.samples == 0 {
		return 0
	}
	return float64(l.on) / float64(l.samples)
}

func (l *LineTime) Reset() {
	l.on = 0
	l.samples = 0
}
