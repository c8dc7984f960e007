package ws

const (
	// client - server
	MsgPing = "ping"

	// server - client
	MsgReady = "ready"
	MsgPong  = "pong"
	MsgError = "error"
)

// inbound is the only shape clients send
type inbound struct {
	Type string `json:"type"`
}
