package status

// State enumerates the conversion lifecycle.
type State string

const (
	StateIdle       State = "idle"
	StateStarting   State = "starting"
	StateConverting State = "converting"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Methods reported in the status document.
const (
	MethodHardware = "hardware"
	MethodSoftware = "software"
)

// Snapshot is the JSON shape of the status document. Nullable fields use
// pointers so absent values serialize as null rather than zero values.
type Snapshot struct {
	Active      bool     `json:"active"`
	CurrentFile *string  `json:"current_file"`
	Progress    int      `json:"progress"`
	Speed       *float64 `json:"speed"`
	ETA         *int     `json:"eta"`
	State       State    `json:"status"`
	Method      *string  `json:"method"`
}

// Idle returns the default document readers synthesize when none exists.
func Idle() Snapshot {
	return Snapshot{State: StateIdle}
}

// working reports whether a state counts as an in-flight conversion. The
// document invariant is active == working(state); the publisher derives it.
func working(s State) bool {
	return s == StateStarting || s == StateConverting
}
