package chat

// LoadState is the controller's load phase. It is also the only guard
// against overlapping history fetches.
type LoadState int

const (
	Idle LoadState = iota
	LoadingInitial
	LoadingOlder
	Error
)

func (s LoadState) String() string {
	switch s {
	case Idle:
		return "idle"
	case LoadingInitial:
		return "loading-initial"
	case LoadingOlder:
		return "loading-older"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Op names the history request a result belongs to.
type Op int

const (
	OpInitial Op = iota
	OpOlder
)

func (o Op) String() string {
	if o == OpOlder {
		return "older"
	}
	return "initial"
}
