package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"google.golang.org/genai"
)

const geminiModel = "gemini-2.5-flash"

var errNoAPIKey = errors.New("GEMINI_API_KEY not configured")

// GeminiGenerator produces checklist templates and report summaries through
// the Gemini API. Every method degrades instead of failing hard: the caller
// falls back to static content on any error.
type GeminiGenerator struct{}

func NewGeminiGenerator() *GeminiGenerator { return &GeminiGenerator{} }

func geminiClient(ctx context.Context) (*genai.Client, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errNoAPIKey
	}
	return genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
}

// GenerateChecklist asks the model for a structured {task, description} array
// tailored to the equipment and activity.
func (g *GeminiGenerator) GenerateChecklist(ctx context.Context, equipmentName, activityName string) ([]GeneratedTask, error) {
	client, err := geminiClient(ctx)
	if err != nil {
		return nil, err
	}

	task := "Maintenance Checklist for " + equipmentName
	if activityName != "" {
		task = fmt.Sprintf("Task: %s for %s", activityName, equipmentName)
	}

	prompt := fmt.Sprintf(`Generate a professional technical checklist for: %q.

If the task is "Inspection", focus on visual checks, wear and tear, and safety.
If the task is "Lubrication", focus on grease points, oil levels, and leak checks.
If the task is "Thermography", focus on hotspots, connections, and temperature readings.
If the task is "Preventive Maintenance (PM)", include tightening, cleaning, and parts replacement checks.

Keep descriptions concise, technical, and in Persian (Farsi).`, task)

	resp, err := client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"task":        {Type: genai.TypeString, Description: "The main action title of the checklist item in Persian"},
					"description": {Type: genai.TypeString, Description: "A brief instruction on what to check in Persian"},
				},
				Required: []string{"task", "description"},
			},
		},
	})
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if text == "" {
		return nil, errors.New("empty generation response")
	}

	var tasks []GeneratedTask
	if err := json.Unmarshal([]byte(text), &tasks); err != nil {
		return nil, fmt.Errorf("malformed generation response: %w", err)
	}
	return tasks, nil
}

// FailureDetail is a failed task with the inspector's comment, passed to the
// analysis prompt.
type FailureDetail struct {
	Task    string `json:"task"`
	Comment string `json:"comment"`
}

// AnalyzeReport returns a short Persian summary of a submitted report for the
// maintenance manager.
func (g *GeminiGenerator) AnalyzeReport(ctx context.Context, equipmentName, activityName string, passed int, failures []FailureDetail) (string, error) {
	client, err := geminiClient(ctx)
	if err != nil {
		return "", err
	}

	if activityName == "" {
		activityName = "General Inspection"
	}
	detail, _ := json.Marshal(failures)
	prompt := fmt.Sprintf(`You are a CMMS Maintenance Manager. Analyze this inspection report.
Equipment: %s
Activity: %s

Summary:
- Passed Checks: %d
- Failed Checks: %d

Details of Failures:
%s

Provide a short, 2-sentence summary in Persian (Farsi) regarding the equipment status and any urgent recommendations.`,
		equipmentName, activityName, passed, len(failures), detail)

	resp, err := client.Models.GenerateContent(ctx, geminiModel, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp.Text() == "" {
		return "", errors.New("empty analysis response")
	}
	return resp.Text(), nil
}
