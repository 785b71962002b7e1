package domain

import "fmt"

// Signal names a process-wide broadcast. The set is closed so that a
// publisher and a subscriber can never disagree on a spelling.
type Signal uint8

const (
	SignalAuthChanged Signal = iota + 1
	SignalCartChanged
	SignalStorageChanged
	SignalFocus
)

var signalNames = map[Signal]string{
	SignalAuthChanged:    "authChange",
	SignalCartChanged:    "cartUpdate",
	SignalStorageChanged: "storage",
	SignalFocus:          "focus",
}

// legacy spellings seen in the wild
var signalAliases = map[string]Signal{
	"cartUpdated": SignalCartChanged,
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Signal(%d)", uint8(s))
}

func ParseSignal(name string) (Signal, error) {
	for s, n := range signalNames {
		if n == name {
			return s, nil
		}
	}
	if s, ok := signalAliases[name]; ok {
		return s, nil
	}
	return 0, fmt.Errorf("unknown signal %q", name)
}
