package robot

const (
	// WheelRadius is shared by every robot type, in inches.
	WheelRadius = 2.0

	baseAccel  = 0.05413 // inches per tick^2
	baseMaxVel = 1.236   // inches per tick

	DefaultType = "medium"
)

// Type is a robot geometry class. Heavier classes accelerate more slowly
// and reach a higher top speed.
type Type struct {
	Name      string
	Class     int
	Width     float64
	Height    float64
	Wheelbase float64
}

var types = map[string]Type{
	"light":  {Name: "light", Class: 3, Width: 14.18, Height: 12.5, Wheelbase: 9.06},
	"medium": {Name: "medium", Class: 4, Width: 19.3, Height: 14, Wheelbase: 12.39},
	"heavy":  {Name: "heavy", Class: 5, Width: 10.7, Height: 14.06, Wheelbase: 8.98},
}

// LookupType returns the named type, falling back to medium.
func LookupType(name string) Type {
	if t, ok := types[name]; ok {
		return t
	}
	return types[DefaultType]
}

func TypeNames() []string { return []string{"light", "medium", "heavy"} }

func (t Type) Accel() float64  { return float64(8-t.Class) / 5 * baseAccel }
func (t Type) MaxVel() float64 { return float64(t.Class) / 5 * baseMaxVel }
