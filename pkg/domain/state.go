package domain

// ConnectionState is the lifecycle of the connection owned by a transport client.
type ConnectionState string

const (
	StateDisconnected ConnectionState = "disconnected"
	StateConnecting   ConnectionState = "connecting"
	StateConnected    ConnectionState = "connected"
	StateAuthFailed   ConnectionState = "auth_failed"
)

func (s ConnectionState) String() string {
	return string(s)
}
