package apimodel

// Animation describes a selectable animation. Index is zero based.
type Animation struct {
	Index      int    `json:"index"`
	Name       string `json:"name"`
	FrameCount int    `json:"frame_count"`
	DurationMs int64  `json:"duration_ms"`
}

// Playback is the player and panel status.
type Playback struct {
	// Animation is -1 before the first selection.
	Animation int    `json:"animation"`
	Name      string `json:"name,omitempty"`
	Frame     int    `json:"frame"`
	Armed     bool   `json:"armed"`
	Powered   bool   `json:"powered"`
	DisplayOn bool   `json:"display_on"`
	LastError string `json:"last_error,omitempty"`
}
