package robot

import (
	"math"

	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/sensor"
)

const (
	// ReachWidth and ReachDepth size the zone ahead of the robot in which
	// PickUp finds objects.
	ReachWidth = 5.0
	ReachDepth = 5.0
)

// Robot is a differential-drive robot on a field. It is driven by a single
// goroutine: SetValue, GetValue, PickUp, Drop and Tick must not be called
// concurrently.
type Robot struct {
	field  *field.Field
	typ    Type
	accel  float64
	maxVel float64

	pose    Pose
	corners geom.Rect

	dutyL, dutyR     float64
	invertL, invertR bool
	velL, velR       float64
	angleL, angleR   float64

	held *field.Interactable

	line     sensor.LineFollower
	switches sensor.LimitSwitch

	reporter report.Reporter
	log      zerolog.Logger
}

type Option func(*Robot)

// WithReporter sets where tick results are pushed. The default discards
// them.
func WithReporter(r report.Reporter) Option {
	return func(rb *Robot) { rb.reporter = r }
}

func WithLogger(log zerolog.Logger) Option {
	return func(rb *Robot) { rb.log = log }
}

// New places a robot of the requested type on f. Sensors are primed from
// the starting pose so reads before the first tick are meaningful.
func New(f *field.Field, info StartInfo, opts ...Option) *Robot {
	t := LookupType(info.Type)
	r := &Robot{
		field:    f,
		typ:      t,
		accel:    t.Accel(),
		maxVel:   t.MaxVel(),
		reporter: report.Discard,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.pose = startPose(info, t, f.Width, f.Height)
	r.corners = r.body(r.pose)
	r.sense()
	return r
}

func (r *Robot) body(p Pose) geom.Rect {
	return geom.Corners(p.X, p.Y, p.Dir, r.typ.Height, r.typ.Width)
}

func (r *Robot) Type() Type                   { return r.typ }
func (r *Robot) Pose() Pose                   { return r.pose }
func (r *Robot) Corners() geom.Rect           { return r.corners }
func (r *Robot) Sensors() sensor.LineFollower { return r.line }
func (r *Robot) Switches() sensor.LimitSwitch { return r.switches }
func (r *Robot) Held() *field.Interactable    { return r.held }

// Velocities returns the current left and right wheel velocities in
// inches per tick.
func (r *Robot) Velocities() (left, right float64) { return r.velL, r.velR }

// WheelAngles returns the accumulated wheel rotation in degrees.
func (r *Robot) WheelAngles() (left, right float64) { return r.angleL, r.angleR }

func (r *Robot) PrintState() string { return r.pose.String() }

// Tick advances the robot by one period. It reports whether the move was
// committed; a rejected move leaves pose, corners and the carried object
// exactly as they were. Results are pushed to the reporter either way.
func (r *Robot) Tick() bool {
	targetL := r.dutyL * r.maxVel
	if r.invertL {
		targetL = -targetL
	}
	// the right motor is mounted mirrored
	targetR := -r.dutyR * r.maxVel
	if r.invertR {
		targetR = -targetR
	}
	r.velL = approach(r.velL, targetL, r.accel)
	r.velR = approach(r.velR, targetR, r.accel)

	d, dir := r.displacement()
	if ramp := r.field.RampUnder(r.corners); ramp != nil {
		d = d.Add(ramp.Push())
	}

	next := Pose{
		X:   clamp(r.pose.X+d.X(), 0, r.field.Width),
		Y:   clamp(r.pose.Y+d.Y(), 0, r.field.Height),
		Dir: dir,
	}
	body := r.body(next)

	var carried geom.Rect
	ok := !r.blocked(body)
	if ok && r.held != nil {
		carried = geom.Ahead(body, next.Dir, r.typ.Width, r.held.W, r.held.H)
		ok = !r.carryBlocked(carried)
	}

	if ok {
		r.pose = next
		r.corners = body
		r.angleL = normDeg(r.angleL + geom.Degrees(r.velL/WheelRadius))
		r.angleR = normDeg(r.angleR + geom.Degrees(r.velR/WheelRadius))
		if r.held != nil {
			r.held.Place(carried, next.Dir)
		}
	} else {
		r.log.Debug().Float64("x", next.X).Float64("y", next.Y).Float64("dir", next.Dir).Msg("move rejected")
	}

	r.sense()
	r.publish()
	return ok
}

// displacement integrates one period of differential drive from the
// current velocities and returns the offset and the new heading.
func (r *Robot) displacement() (geom.Vec, float64) {
	sin, cos := math.Sincos(geom.Radians(r.pose.Dir))
	if r.velL == r.velR {
		v := r.velR
		return geom.Vec{v * cos, v * sin}, r.pose.Dir
	}

	wb := r.typ.Wheelbase
	rt := wb / 2 * (r.velL + r.velR) / (r.velR - r.velL)
	theta := (r.velR - r.velL) / wb
	i := rt * (1 - math.Cos(theta))
	j := rt * math.Sin(theta)
	d := geom.Vec{i*sin + j*cos, i*cos + j*sin}
	return d, normDeg(r.pose.Dir + geom.Degrees(theta))
}

// blocked reports whether body hits any obstacle. Carried objects move
// with the robot and never block it.
func (r *Robot) blocked(body geom.Rect) bool {
	for _, o := range r.field.Obstacles {
		if ia, ok := o.(*field.Interactable); ok && ia.Attached() {
			continue
		}
		if geom.Intersects(o.Corners(), body) {
			return true
		}
	}
	return false
}

// carryBlocked reports whether the carried object at c would hit a wall.
// Other interactables are pushed through.
func (r *Robot) carryBlocked(c geom.Rect) bool {
	for _, o := range r.field.Obstacles {
		if _, ok := o.(*field.Interactable); ok {
			continue
		}
		if geom.Intersects(o.Corners(), c) {
			return true
		}
	}
	return false
}

func (r *Robot) sense() {
	r.line.Update(r.corners, r.pose.Dir, r.field.Tapes)
	var carried field.Object
	if r.held != nil {
		carried = r.held
	}
	r.switches.Update(r.corners, r.pose.Dir, r.typ.Width, r.field.Obstacles, carried)
}

func (r *Robot) publish() {
	r.reporter.Report(report.PoseOf(report.Pose{
		X:         r.pose.X,
		Y:         r.pose.Y,
		Dir:       r.pose.Dir,
		RobotType: r.typ.Name,
	}))
	r.reporter.Report(report.SensorsOf(report.Sensors{
		Left:   r.line.Left,
		Center: r.line.Center,
		Right:  r.line.Right,
	}))
	r.reporter.Report(report.SwitchesOf(report.Switches{
		Front: r.switches.Front,
		Back:  r.switches.Back,
	}))
	r.reporter.Report(report.ObjectsOf(r.field.Snapshot()))
}

// PickUp attaches the first free interactable inside the reach zone ahead
// of the robot. It does nothing while an object is already held.
func (r *Robot) PickUp() bool {
	if r.held != nil {
		return false
	}
	reach := geom.Ahead(r.corners, r.pose.Dir, r.typ.Width, ReachWidth, ReachDepth)
	for _, ia := range r.field.Interactables {
		if ia.Attached() {
			continue
		}
		if geom.Intersects(ia.Corners(), reach) {
			ia.Attach(r.pose.Dir)
			r.held = ia
			return true
		}
	}
	return false
}

// Drop releases the held object where it is.
func (r *Robot) Drop() {
	if r.held == nil {
		return
	}
	r.held.Release()
	r.held = nil
}

// Release forgets the held object without touching it. Used when the
// field is redefined underneath the robot.
func (r *Robot) Release() {
	r.held = nil
}

func approach(v, target, step float64) float64 {
	if target > v {
		return math.Min(v+step, target)
	}
	if target < v {
		return math.Max(v-step, target)
	}
	return v
}
