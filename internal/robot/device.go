package robot

import "math"

// Device and parameter names of the robot API.
const (
	DeviceMotor        = "koala_bear"
	DeviceLimitSwitch  = "limit_switch"
	DeviceLineFollower = "line_follower"

	ParamVelocityA = "velocity_a" // right motor
	ParamVelocityB = "velocity_b" // left motor
	ParamInvertA   = "invert_a"
	ParamInvertB   = "invert_b"
)

// SetValue writes one motor channel. On error the robot is unchanged.
func (r *Robot) SetValue(device, param string, value any) error {
	fail := func(err error) error {
		return &DeviceError{Op: "set_value", Device: device, Param: param, Err: err}
	}

	switch device {
	case DeviceMotor:
	case "left_motor", "right_motor":
		return &DeviceError{Op: "set_value", Device: device, Err: ErrUnsupported}
	default:
		return &DeviceError{Op: "set_value", Device: device, Err: ErrUnknownDevice}
	}

	switch param {
	case ParamVelocityA, ParamVelocityB:
		duty, ok := toFloat(value)
		if !ok {
			return fail(ErrValueType)
		}
		if math.IsNaN(duty) || duty > 1 || duty < -1 {
			return fail(ErrOutOfRange)
		}
		if param == ParamVelocityA {
			r.dutyR = duty
		} else {
			r.dutyL = duty
		}
	case ParamInvertA, ParamInvertB:
		inv, ok := value.(bool)
		if !ok {
			return fail(ErrInvertType)
		}
		if param == ParamInvertA {
			r.invertR = inv
		} else {
			r.invertL = inv
		}
	case "duty_cycle":
		return fail(ErrUnsupported)
	default:
		return fail(ErrUnknownParam)
	}
	return nil
}

// GetValue reads a sensor or motor channel. Motor velocities read back the
// requested duty, not the current wheel speed.
func (r *Robot) GetValue(device, param string) (any, error) {
	var (
		v  any
		ok bool
	)
	switch device {
	case DeviceLimitSwitch:
		v, ok = r.switchValue(param)
	case DeviceLineFollower:
		v, ok = r.lineValue(param)
	case DeviceMotor:
		v, ok = r.motorValue(param)
	default:
		return nil, &DeviceError{Op: "get_value", Device: device, Err: ErrUnknownDevice}
	}
	if !ok {
		return nil, &DeviceError{Op: "get_value", Device: device, Param: param, Err: ErrUnknownParam}
	}
	return v, nil
}

func (r *Robot) switchValue(param string) (any, bool) {
	switch param {
	case "switch0":
		return r.switches.Front, true
	case "switch1":
		return r.switches.Back, true
	}
	return nil, false
}

func (r *Robot) lineValue(param string) (any, bool) {
	switch param {
	case "left":
		return r.line.Left, true
	case "center":
		return r.line.Center, true
	case "right":
		return r.line.Right, true
	}
	return nil, false
}

func (r *Robot) motorValue(param string) (any, bool) {
	switch param {
	case ParamVelocityA:
		return r.dutyR, true
	case ParamVelocityB:
		return r.dutyL, true
	case ParamInvertA:
		return r.invertR, true
	case ParamInvertB:
		return r.invertL, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}
