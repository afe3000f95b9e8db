package client

type State int

const (
	StateDisconnected State = iota
	StateConnected
	StateStreaming
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnected:
		return "connected"
	case StateStreaming:
		return "streaming"
	default:
		return "unknown"
	}
}
