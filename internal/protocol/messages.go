package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	SessionID       string       `json:"session_id"`
	ColonyParams    ColonyParams `json:"colony_params"`
	Digests         Digests      `json:"digests"`
}

type ColonyParams struct {
	TickRateHz      int     `json:"tick_rate_hz"`
	RoomStride      float64 `json:"room_stride"`
	FineStride      float64 `json:"fine_stride"`
	BuildSeconds    float64 `json:"build_seconds"`
	DestructSeconds float64 `json:"destruct_seconds"`
	Anchor          [2]int  `json:"anchor"`
	Seed            int64   `json:"seed"`
}

type Digests struct {
	Structures string `json:"structures"`
	Tuning     string `json:"tuning,omitempty"`
}

// ACK (server -> client), sent for transport-level rejections.
type AckMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AckFor          string `json:"ack_for"`
	Accepted        bool   `json:"accepted"`
	Code            string `json:"code,omitempty"`
	Message         string `json:"message,omitempty"`
	ServerTick      uint64 `json:"server_tick,omitempty"`
}
