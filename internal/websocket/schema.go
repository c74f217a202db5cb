package websocket

import "encoding/json"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAnswer   Action = "answer"
	ActionClear    Action = "clear"
	ActionFlag     Action = "flag"
	ActionNavigate Action = "navigate"
	ActionSubmit   Action = "submit"
	ActionKey      Action = "key"
	ActionSnapshot Action = "snapshot"
	ActionPing     Action = "ping"
)

// Request is the single client message shape. Fields are read according
// to Action.
type Request struct {
	Action Action          `json:"action"`
	Index  *int            `json:"index,omitempty"`
	Answer json.RawMessage `json:"answer,omitempty"`
	Key    string          `json:"key,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventAck       Event = "ack"
	EventSnapshot  Event = "snapshot"
	EventStarted   Event = "started"
	EventTick      Event = "tick"
	EventSubmitted Event = "submitted"
	EventReset     Event = "reset"
	EventPong      Event = "pong"
)

// Response wraps every server message.
type Response struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
	Code  string      `json:"code,omitempty"`
}
