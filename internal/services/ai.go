package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/agency-management-api/internal/constants"
)

// TaskGenerator turns a free-text brief into task suggestions.
type TaskGenerator interface {
	GenerateTasksFromBrief(ctx context.Context, stageName, brief string) ([]GeneratedTask, error)
}

type AIService struct {
	client *openai.Client
}

type GeneratedTask struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// GenerateTasksFromBrief asks the model for the tasks needed to deliver a stage
func (s *AIService) GenerateTasksFromBrief(ctx context.Context, stageName, brief string) ([]GeneratedTask, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	today := time.Now().Format(constants.DateLayout)
	prompt := fmt.Sprintf(`You are a project planning assistant for a digital agency.
Break the brief below into concrete tasks for the project stage "%s".

Today: %s

Brief:
%s

Return a JSON array of at most %d tasks in this format:
[
  {
    "name": "short task name",
    "description": "what needs to be done",
    "priority": "low | medium | high | urgent",
    "due_date": "ISO8601 date, e.g. 2026-10-28T00:00:00Z, or null when the brief gives no deadline"
  }
]

Rules:
- Return [] when the brief contains no actionable work
- Convert relative deadlines ("next Friday") into dates
- Return JSON only, with no surrounding text`, stageName, today, brief, constants.MaxAIGeneratedTasks)

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)

	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	content := stripCodeFence(resp.Choices[0].Message.Content)

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(content), &tasks); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}

	return tasks, nil
}

// stripCodeFence removes a ```json ... ``` wrapper some model replies carry.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
