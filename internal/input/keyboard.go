package input

import (
	"fmt"
	"sync"
)

// keyNames maps browser key codes to the key names scripts read.
var keyNames = func() map[int]string {
	m := map[int]string{
		188: ",", 190: ".", 191: "/", 186: ";", 222: "'", 219: "[", 221: "]",
		37: "left_arrow", 39: "right_arrow", 38: "up_arrow", 40: "down_arrow",
	}
	for c := 'a'; c <= 'z'; c++ {
		m[int(c-'a')+65] = string(c)
	}
	for c := '0'; c <= '9'; c++ {
		m[int(c-'0')+48] = string(c)
	}
	return m
}()

// KeyName returns the name of a browser key code.
func KeyName(code int) (string, bool) {
	n, ok := keyNames[code]
	return n, ok
}

// Keyboard is the shared key snapshot. Safe for concurrent use.
type Keyboard struct {
	mu   sync.RWMutex
	down map[string]bool
}

func NewKeyboard() *Keyboard {
	k := &Keyboard{down: make(map[string]bool, len(keyNames))}
	for _, n := range keyNames {
		k.down[n] = false
	}
	return k
}

// Set records a key code as pressed or released. Unknown codes are
// ignored.
func (k *Keyboard) Set(code int, pressed bool) bool {
	n, ok := keyNames[code]
	if !ok {
		return false
	}
	k.mu.Lock()
	k.down[n] = pressed
	k.mu.Unlock()
	return true
}

func (k *Keyboard) GetValue(name string) (any, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	v, ok := k.down[name]
	if !ok {
		return false, fmt.Errorf("%w: the %s key is not supported", ErrUnknownInput, name)
	}
	return v, nil
}

func (k *Keyboard) Reset() {
	k.mu.Lock()
	for n := range k.down {
		k.down[n] = false
	}
	k.mu.Unlock()
}
