package report

import (
	"fmt"

	"github.com/san-kum/pimsim/internal/field"
)

type Kind string

const (
	KindPose     Kind = "pose"
	KindSensors  Kind = "sensors"
	KindSwitches Kind = "switches"
	KindObjects  Kind = "objects"
	KindMode     Kind = "mode"
	KindLog      Kind = "log"
)

type Pose struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Dir       float64 `json:"dir"`
	RobotType string  `json:"robotType"`
}

type Sensors struct {
	Left   float64 `json:"leftSensor"`
	Center float64 `json:"centerSensor"`
	Right  float64 `json:"rightSensor"`
}

type Switches struct {
	Front bool `json:"frontSwitch"`
	Back  bool `json:"backSwitch"`
}

// Message is one outward report. Exactly one payload field is set, matching
// Kind.
type Message struct {
	Kind     Kind            `json:"kind"`
	Robot    *Pose           `json:"robot,omitempty"`
	Sensors  *Sensors        `json:"sensors,omitempty"`
	Switches *Switches       `json:"switches,omitempty"`
	Objects  *field.Snapshot `json:"objs,omitempty"`
	Mode     string          `json:"mode,omitempty"`
	Log      string          `json:"log,omitempty"`
}

func PoseOf(p Pose) Message              { return Message{Kind: KindPose, Robot: &p} }
func SensorsOf(s Sensors) Message        { return Message{Kind: KindSensors, Sensors: &s} }
func SwitchesOf(s Switches) Message      { return Message{Kind: KindSwitches, Switches: &s} }
func ObjectsOf(s field.Snapshot) Message { return Message{Kind: KindObjects, Objects: &s} }
func ModeOf(mode string) Message         { return Message{Kind: KindMode, Mode: mode} }

func Logf(format string, args ...any) Message {
	return Message{Kind: KindLog, Log: fmt.Sprintf(format, args...)}
}

// Reporter receives outward reports. Report must not block the caller for
// long; the tick loop calls it every period.
type Reporter interface {
	Report(Message)
}

// Func adapts a function to a Reporter.
type Func func(Message)

func (f Func) Report(m Message) { f(m) }

type discard struct{}

func (discard) Report(Message) {}

// Discard drops every message.
var Discard Reporter = discard{}

// Multi fans a message out to every reporter in order.
type Multi []Reporter

func (m Multi) Report(msg Message) {
	for _, r := range m {
		r.Report(msg)
	}
}
