package domain

import "time"

// Phase is a room's current stage in its fixed lifecycle. Phases only ever
// advance; no phase is revisited.
type Phase int

const (
	PhaseLobby Phase = iota
	PhaseGenerating
	PhaseCountdown
	PhaseQuestion
	PhaseReveal
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseGenerating:
		return "generating"
	case PhaseCountdown:
		return "countdown"
	case PhaseQuestion:
		return "question"
	case PhaseReveal:
		return "reveal"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// OptionLabels are the four answer labels of every question, in order.
var OptionLabels = [4]string{"A", "B", "C", "D"}

// Option is one labeled answer choice.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is an MCQ question with exactly one correct labeled option.
// Immutable once generated.
type Question struct {
	Prompt  string   `json:"prompt"`
	Options []Option `json:"options"`
	Correct string   `json:"correct"` // label, "A".."D"
}

// Participant represents one connected player inside a room.
type Participant struct {
	ID        string
	Name      string
	Score     int
	Connected bool
	JoinOrder int
}

// Submission records one accepted answer for the current question.
// One submission per participant per question; later ones are rejected.
type Submission struct {
	ParticipantID string
	Option        string
	Elapsed       time.Duration // offset from question reveal
}

// Standing is a scoreboard row.
type Standing struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}

// GameResult is the archived outcome of a finished room.
type GameResult struct {
	RoomID     string     `json:"roomId"`
	Topic      string     `json:"topic"`
	Questions  int        `json:"questions"`
	Standings  []Standing `json:"standings"`
	FinishedAt time.Time  `json:"finishedAt"`
}
