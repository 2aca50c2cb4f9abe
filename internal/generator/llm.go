package generator

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"trivia-service/internal/domain"
)

// LLMClient generates trivia questions through an OpenAI-compatible
// chat-completions API (Groq in production).
type LLMClient struct {
	httpClient *http.Client
	apiURL     string
	apiKey     string
	model      string
}

func NewLLMClient(apiURL, apiKey, model string) *LLMClient {
	return &LLMClient{
		// Per-attempt deadlines come from the caller's context.
		httpClient: &http.Client{},
		apiURL:     strings.TrimRight(apiURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

const systemPrompt = `Generate %d random multiple choice questions about %s.

Rules:
- Exactly %d questions
- 4 options per question
- Only one correct answer
- Mix easy, medium, and hard difficulty

Return ONLY valid JSON in this format:
[
  {
    "question": "Question text",
    "options": ["Option A", "Option B", "Option C", "Option D"],
    "answer": "Correct option text"
  }
]`

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type rawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// Questions asks the model for count questions about topic. Any transport,
// status, or parse trouble surfaces as an error; the Adapter above decides
// what to do with it.
func (c *LLMClient) Questions(ctx context.Context, count int, topic string) ([]domain.Question, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: fmt.Sprintf(systemPrompt, count, topic, count)},
			{Role: "user", Content: fmt.Sprintf("Generate quiz with %d questions about %s", count, topic)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation API status %d: %s", resp.StatusCode, payload)
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return nil, fmt.Errorf("generation API returned no choices")
	}
	return parseQuestions(chat.Choices[0].Message.Content)
}

// parseQuestions converts the model's JSON array into labeled questions. The
// correct answer text is matched to its option case-insensitively; a question
// whose answer matches no option defaults to A, as the original game did.
func parseQuestions(content string) ([]domain.Question, error) {
	content = strings.TrimSpace(content)
	// Models occasionally wrap the JSON in a code fence.
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []rawQuestion
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("parse questions: %w", err)
	}

	questions := make([]domain.Question, 0, len(raw))
	for _, rq := range raw {
		if rq.Question == "" || len(rq.Options) != len(domain.OptionLabels) {
			continue
		}
		q := domain.Question{Prompt: rq.Question, Correct: domain.OptionLabels[0]}
		q.Options = make([]domain.Option, len(rq.Options))
		for i, text := range rq.Options {
			q.Options[i] = domain.Option{Label: domain.OptionLabels[i], Text: text}
			if strings.EqualFold(text, rq.Answer) {
				q.Correct = domain.OptionLabels[i]
			}
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("no usable questions in response")
	}
	return questions, nil
}
