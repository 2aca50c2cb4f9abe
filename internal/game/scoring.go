package game

import (
	"strings"

	"trivia-service/internal/domain"
)

// podiumPoints are awarded to the first three correct answers in submission order.
var podiumPoints = [3]int{3, 2, 1}

// ScoreQuestion turns the accepted submissions for one question into
// per-participant score deltas. The first three correct answers (by submission
// order) earn +3, +2, +1; further correct answers earn 0; every incorrect
// answer costs 1. Participants who submitted nothing get no entry.
//
// The result depends only on the submission order already captured in subs,
// so it is reproducible for any replay of the same question.
func ScoreQuestion(subs []domain.Submission, correct string) map[string]int {
	deltas := make(map[string]int, len(subs))
	rank := 0
	for _, sub := range subs {
		if strings.EqualFold(sub.Option, correct) {
			if rank < len(podiumPoints) {
				deltas[sub.ParticipantID] = podiumPoints[rank]
			} else {
				deltas[sub.ParticipantID] = 0
			}
			rank++
		} else {
			deltas[sub.ParticipantID] = -1
		}
	}
	return deltas
}

// correctRanking lists the correct submissions in submission order.
func correctRanking(subs []domain.Submission, correct string) []domain.Submission {
	ranked := make([]domain.Submission, 0, len(subs))
	for _, sub := range subs {
		if strings.EqualFold(sub.Option, correct) {
			ranked = append(ranked, sub)
		}
	}
	return ranked
}
