package ws

import "encoding/json"

// clientMessage is the inbound wire frame: a type tag plus a type-specific
// data object
type clientMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Client action types
const (
	actionStart   = "start"
	actionChat    = "chat"
	actionStroke  = "stroke"
	actionMove    = "move"
	actionRestart = "restart"
	actionLeave   = "leave"
)

type chatData struct {
	Text string `json:"text"`
}

type strokeData struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Color   string  `json:"color"`
	Width   int     `json:"width"`
	PenDown bool    `json:"pen_down"`
}

type moveData struct {
	Cell int `json:"cell"`
}
