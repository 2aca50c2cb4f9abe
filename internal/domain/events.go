package domain

// Event is one broadcast unit delivered to every member of a room.
// The transport layer encodes it as a {type, payload} JSON envelope.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// GeneratingPayload announces that question generation has started.
type GeneratingPayload struct {
	Message string `json:"message"`
}

// QuestionsGeneratedPayload announces the question set is ready.
type QuestionsGeneratedPayload struct {
	Count int `json:"count"`
}

// CountdownTickPayload is broadcast once per second before the first question.
type CountdownTickPayload struct {
	SecondsRemaining int `json:"secondsRemaining"`
}

// QuestionPayload reveals one question to the room. The correct label is
// deliberately absent.
type QuestionPayload struct {
	Index            int      `json:"index"`
	Total            int      `json:"total"`
	Prompt           string   `json:"prompt"`
	Options          []Option `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// RankEntry is one correct answerer in a reveal, in submission order.
type RankEntry struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	ElapsedMillis int64  `json:"elapsedMillis"`
}

// RevealPayload discloses the correct option and updated scores after a
// question's time limit elapses.
type RevealPayload struct {
	CorrectOption string         `json:"correctOption"`
	RankedCorrect []RankEntry    `json:"rankedCorrect"`
	Scores        map[string]int `json:"scores"`
}

// FinalStandingsPayload closes out a finished room.
type FinalStandingsPayload struct {
	Ranked []Standing `json:"ranked"`
}

// ParticipantJoinedPayload notifies the room about a new member.
type ParticipantJoinedPayload struct {
	Name                string   `json:"name"`
	CurrentParticipants int      `json:"currentParticipants"`
	MaxParticipants     int      `json:"maxParticipants"`
	Participants        []string `json:"participants"`
}

// ParticipantDisconnectedPayload notifies the room that a member dropped.
type ParticipantDisconnectedPayload struct {
	Name string `json:"name"`
}

// RoomClosedPayload is broadcast when a lobby is torn down without playing.
type RoomClosedPayload struct {
	Message string `json:"message"`
}

const (
	EventGeneratingQuestions     = "generating_questions"
	EventQuestionsGenerated      = "questions_generated"
	EventCountdownTick           = "countdown_tick"
	EventQuestion                = "question"
	EventReveal                  = "reveal"
	EventFinalStandings          = "final_standings"
	EventParticipantJoined       = "participant_joined"
	EventParticipantDisconnected = "participant_disconnected"
	EventRoomClosed              = "room_closed"
)
