package observerproto

// Version is the observer protocol version (separate from the control WS protocol).
const Version = "1.0"

// Client -> Server. First message on the observer WS connection.
type SubscribeMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	// IncludeBuild adds the preview layer to every TICK.
	IncludeBuild bool `json:"include_build,omitempty"`
}

// HTTP response for GET /observer/bootstrap.
type BootstrapResponse struct {
	ProtocolVersion string          `json:"protocol_version"`
	Tick            uint64          `json:"tick"`
	ColonyParams    ColonyParams    `json:"colony_params"`
	Structures      []StructureInfo `json:"structures"`
	Resources       []string        `json:"resources"`
	StructuresHash  string          `json:"structures_digest"`
}

type ColonyParams struct {
	TickRateHz int     `json:"tick_rate_hz"`
	RoomStride float64 `json:"room_stride"`
	FineStride float64 `json:"fine_stride"`
	Anchor     [2]int  `json:"anchor"`
}

type StructureInfo struct {
	Kind        string             `json:"kind"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Icon        string             `json:"icon"`
	Energy      float64            `json:"energy"`
	Recipe      map[string]float64 `json:"recipe,omitempty"`
}

// Server -> Client. Sent every tick.
type TickMsg struct {
	Type            string  `json:"type"`
	ProtocolVersion string  `json:"protocol_version"`
	Tick            uint64  `json:"tick"`
	Now             float64 `json:"now"`
	Paused          bool    `json:"paused"`

	Mode   ModeState    `json:"mode"`
	Cursor *CursorState `json:"cursor,omitempty"`

	Structures []StructureState `json:"structures"`
	Build      [][2]int         `json:"build,omitempty"`
	Ghost      *GhostState      `json:"ghost,omitempty"`
	Selection  *StructureState  `json:"selection,omitempty"`
	Bounds     *Bounds          `json:"bounds,omitempty"`

	Economy EconomyState `json:"economy"`
	Events  []Event      `json:"events,omitempty"`
	Audits  []AuditEntry `json:"audits,omitempty"`
}

type ModeState struct {
	Mode string  `json:"mode"`
	Kind string  `json:"kind,omitempty"`
	Cell *[2]int `json:"cell,omitempty"`
}

type CursorState struct {
	Cell [2]int     `json:"cell"`
	Frac [2]float64 `json:"frac"`
}

type StructureState struct {
	Cell      [2]int  `json:"cell"`
	Kind      string  `json:"kind"`
	Action    string  `json:"action"`
	StartedAt float64 `json:"started_at,omitempty"`
	Progress  float64 `json:"progress"`
	Highlight string  `json:"highlight"`
	Connected bool    `json:"connected"`
}

type GhostState struct {
	Cell      [2]int `json:"cell"`
	Kind      string `json:"kind"`
	Available bool   `json:"available"`
	Highlight string `json:"highlight"`
}

type Bounds struct {
	Min [2]int `json:"min"`
	Max [2]int `json:"max"`
}

type EconomyState struct {
	EnergyAvailable float64               `json:"energy_available"`
	EnergyInUse     float64               `json:"energy_in_use"`
	EnergyRatio     float64               `json:"energy_ratio"`
	Cargo           map[string][2]float64 `json:"cargo"`
}

// Event reports the outcome of a command or a notable simulation change.
type Event struct {
	Type    string  `json:"type"`
	Session string  `json:"session,omitempty"`
	Cell    *[2]int `json:"cell,omitempty"`
	Kind    string  `json:"kind,omitempty"`
	Code    string  `json:"code,omitempty"`
	Message string  `json:"message,omitempty"`
}

type AuditEntry struct {
	Tick   uint64  `json:"tick"`
	Actor  string  `json:"actor"`
	Action string  `json:"action"`
	Cell   [2]int  `json:"cell"`
	Kind   string  `json:"kind"`
	At     float64 `json:"at"`
	Reason string  `json:"reason,omitempty"`
}
