package models

import "deskmates.dev/internal/scene"

// SceneInfo holds the static parts of the scene a client loads once
type SceneInfo struct {
	Layout    *scene.Layout   `json:"layout"`
	Manifest  *scene.Manifest `json:"manifest"`
	Tuning    scene.Tuning    `json:"tuning"`
	TickRate  int             `json:"tick_rate_hz"`
	AssetBase string          `json:"asset_base"` // URL prefix for manifest paths
}

// FrameEnvelope wraps a frame for the websocket stream
type FrameEnvelope struct {
	Type  string       `json:"type"` // always "frame"
	Frame *scene.Frame `json:"frame"`
}
