package bootstrap

// State is a point in the first-run lifecycle.
type State int32

const (
	// StateIdle is the initial state before Run is called.
	StateIdle State = iota
	// StateResolvingDefaults walks the defaults source chain.
	StateResolvingDefaults
	// StateInstalling clones every entry and waits for all of them.
	StateInstalling
	// StateCleanup unloads and deletes the unit, then reloads the host.
	StateCleanup
	// StateDone is terminal: the run completed.
	StateDone
	// StateAborted is terminal: no defaults list could be resolved.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolvingDefaults:
		return "resolving-defaults"
	case StateInstalling:
		return "installing"
	case StateCleanup:
		return "cleanup"
	case StateDone:
		return "done"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions can happen.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}
