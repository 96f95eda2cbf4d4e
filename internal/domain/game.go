package domain

import "time"

// GameRecord is what gets persisted once a game is over.
type GameRecord struct {
	RunID       string    `json:"runId"`
	GameID      string    `json:"gameId"`
	Reservation string    `json:"reservation,omitempty"`
	Team        Team      `json:"team"`
	Players     []Player  `json:"players"`
	Scores      []Score   `json:"scores"`
	Winner      *Player   `json:"winner,omitempty"`
	Turns       int       `json:"turns"`
	MovesSent   int       `json:"movesSent"`
	StartedAt   time.Time `json:"startedAt"`
	FinishedAt  time.Time `json:"finishedAt"`
}

// Won reports whether the recorded team won the game.
func (r GameRecord) Won() bool {
	return r.Winner != nil && r.Winner.Team == r.Team
}

func (r GameRecord) DurationSeconds() int {
	return int(r.FinishedAt.Sub(r.StartedAt).Seconds())
}
