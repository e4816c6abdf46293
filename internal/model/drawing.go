package model

// Stroke is an incremental canvas update from the drawer
type Stroke struct {
	X       float64  `json:"x"`
	Y       float64  `json:"y"`
	Color   string   `json:"color"`
	Width   int      `json:"width"`
	PenDown bool     `json:"pen_down"`
	Author  PlayerID `json:"author"`
}
