package events

import "time"

const (
	UserRegistered = "user_registered"
	PlayerCreated  = "player_created"
	PlayerUpdated  = "player_updated"
	PlayerDeleted  = "player_deleted"
	ImportFinished = "import_finished"
)

type UserEvent struct {
	Type     string    `json:"type"`
	UserID   string    `json:"user_id"`
	Username string    `json:"username"`
	At       time.Time `json:"at"`
}

type PlayerEvent struct {
	Type       string    `json:"type"`
	PlayerID   string    `json:"player_id"`
	PlayerName string    `json:"player_name,omitempty"`
	Source     string    `json:"source,omitempty"`
	At         time.Time `json:"at"`
}

type ImportEvent struct {
	Type    string    `json:"type"`
	JobID   string    `json:"job_id,omitempty"`
	Source  string    `json:"source"`
	Created int       `json:"created"`
	Errors  int       `json:"errors"`
	Failed  bool      `json:"failed"`
	At      time.Time `json:"at"`
}
