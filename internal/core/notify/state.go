package notify

// ConnectionState is the lifecycle state of the push channel.
type ConnectionState string

const (
	StateIdle            ConnectionState = "IDLE"
	StateConnecting      ConnectionState = "CONNECTING"
	StateOpen            ConnectionState = "OPEN"
	StateDegradedPolling ConnectionState = "DEGRADED_POLLING"
	StateClosed          ConnectionState = "CLOSED"
)

// Live reports whether a push channel may still deliver events in this state.
func (s ConnectionState) Live() bool {
	return s == StateConnecting || s == StateOpen
}
