package protocol

// Player modes carried by MODE.
const (
	ModeIdle      = "IDLE"
	ModeConstruct = "CONSTRUCT"
	ModeDestruct  = "DESTRUCT"
	ModeInteract  = "INTERACT"
)

// MODE (client -> server). Kind is required for CONSTRUCT and Cell for INTERACT.
type ModeMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Mode            string  `json:"mode"`
	Kind            string  `json:"kind,omitempty"`
	Cell            *[2]int `json:"cell,omitempty"`
}

// CURSOR (client -> server). Pos is a world position on the room layer and
// takes precedence over Cell. Confirm is a one-tick click.
type CursorMsg struct {
	Type            string      `json:"type"`
	ProtocolVersion string      `json:"protocol_version"`
	Pos             *[2]float64 `json:"pos,omitempty"`
	Cell            *[2]int     `json:"cell,omitempty"`
	Confirm         bool        `json:"confirm,omitempty"`
	Clear           bool        `json:"clear,omitempty"`
}

// HARVEST (client -> server): a hook or the main block delivered cargo.
type HarvestMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Cell            [2]int  `json:"cell"`
	Resource        string  `json:"resource"`
	Amount          float64 `json:"amount"`
}

// PAUSE (client -> server)
type PauseMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Paused          bool   `json:"paused"`
}
