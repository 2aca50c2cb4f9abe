package generator

import "trivia-service/internal/domain"

// FallbackCount is used when the requested count cannot be met.
const FallbackCount = 5

// fallbackQuestions is the fixed general-knowledge set substituted when the
// external generator fails or times out.
var fallbackQuestions = []domain.Question{
	mcq("What is the capital of France?", "London", "Berlin", "Paris", "Madrid", "C"),
	mcq("What is 2 + 2?", "3", "4", "5", "6", "B"),
	mcq("Which planet is known as the Red Planet?", "Venus", "Mars", "Jupiter", "Saturn", "B"),
	mcq("What is the largest ocean on Earth?", "Atlantic", "Indian", "Arctic", "Pacific", "D"),
	mcq("Who painted the Mona Lisa?", "Van Gogh", "Picasso", "Leonardo da Vinci", "Rembrandt", "C"),
	mcq("What is the chemical symbol for gold?", "Go", "Gd", "Au", "Ag", "C"),
	mcq("How many continents are there?", "5", "6", "7", "8", "C"),
	mcq("In which year did the Second World War end?", "1943", "1944", "1945", "1946", "C"),
}

// FallbackSet returns count questions, cycling the fixed set if count exceeds
// it. The result is always non-empty.
func FallbackSet(count int) []domain.Question {
	if count <= 0 {
		count = FallbackCount
	}
	set := make([]domain.Question, 0, count)
	for len(set) < count {
		set = append(set, fallbackQuestions[len(set)%len(fallbackQuestions)])
	}
	return set
}

func mcq(prompt, a, b, c, d, correct string) domain.Question {
	texts := []string{a, b, c, d}
	options := make([]domain.Option, 4)
	for i, label := range domain.OptionLabels {
		options[i] = domain.Option{Label: label, Text: texts[i]}
	}
	return domain.Question{Prompt: prompt, Options: options, Correct: correct}
}
