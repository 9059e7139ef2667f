package viz

// keyCodes maps terminal key names to the browser key codes the robot's
// keyboard understands.
var keyCodes = func() map[string]int {
	m := map[string]int{
		",": 188, ".": 190, "/": 191, ";": 186, "'": 222, "[": 219, "]": 221,
		"left": 37, "right": 39, "up": 38, "down": 40,
	}
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = int(c-'a') + 65
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = int(c-'0') + 48
	}
	return m
}()

func keyCode(name string) (int, bool) {
	c, ok := keyCodes[name]
	return c, ok
}
