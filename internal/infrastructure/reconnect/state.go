package reconnect

// State is the lifecycle of a long-lived inbound channel.
type State int32

const (
	Connecting State = iota
	Open
	Reconnecting
	Failed
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Reconnecting:
		return "reconnecting"
	case Failed:
		return "failed"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}
