package models

// Light represents a Philips Hue light as returned by the bridge's V1 API.
// The shape is kept verbatim so callers can inspect whatever the bridge sent.
type Light struct {
	Name  string     `json:"name"`
	Type  string     `json:"type,omitempty"`
	State LightState `json:"state"`
}

// LightState is the mutable state portion of a light. Pointer fields are
// omitted from PUT bodies when unset, since the bridge treats every present
// key as a command.
type LightState struct {
	On  bool  `json:"on"`
	Bri uint8 `json:"bri,omitempty"`
	// Hue is in range 0-65535
	Hue *uint16 `json:"hue,omitempty"`
	// Sat is in range 0-254
	Sat *uint8 `json:"sat,omitempty"`
	// TransitionTime is in deciseconds (bridge default is 4, i.e. 400ms)
	TransitionTime *uint16 `json:"transitiontime,omitempty"`
	Reachable      bool    `json:"reachable,omitempty"`
}

// SavedState captures the on/brightness pair snapshotted before a dim cycle.
type SavedState struct {
	On  bool
	Bri uint8
}

// Group represents a V1 group/room on the bridge.
type Group struct {
	Name   string   `json:"name"`
	Type   string   `json:"type,omitempty"`
	Lights []string `json:"lights"`
}
