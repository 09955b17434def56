package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/focusloop/focusbot/internal/logging"
)

// Classifier turns a raw user message into a classified Result.
// Implementations must never fail the conversation: when classification is
// impossible they return KindUnknown, not an error.
type Classifier interface {
	Classify(ctx context.Context, message, promptContext string) (*Result, error)
}

const classifySystemPrompt = `You are the intent classifier for a work-tracking assistant with pomodoro-style focus sessions.
Analyze the user's message and respond with a single JSON object:

{
  "intent": one of "create_project", "create_projects", "create_task", "create_tasks",
            "list_projects", "list_tasks", "show_summary", "delete_project",
            "start_session", "pause_sessions", "resume_sessions", "complete_session",
            "going_out", "coming_back", "help", "unknown",
  "project": {"name", "description", "deadline"}            for create_project,
  "projects": [...]                                          for create_projects,
  "task": {"project_ref", "title", "description", "deadline", "estimated_minutes"} for create_task,
  "tasks": [...]                                             for create_tasks,
  "session": {"task_ref", "work_minutes", "break_minutes"}   for start_session,
  "session": {"session_id"}                                  for complete_session,
  "away": {"reason", "duration_minutes"}                     for going_out,
  "project_ref": "..."  for list_tasks (optional) and delete_project,
  "task_ref": "..."     when the user references a task by id, title, or description
}

Dates are YYYY-MM-DD. References may be ids, exact names, or free text - pass them through verbatim.
Respond with the JSON object only.`

// jsonPattern extracts the first JSON object from a model reply that may
// carry prose around it
var jsonPattern = regexp.MustCompile(`(?s)\{.*\}`)

// AnthropicClassifier classifies messages with Claude, falling back to
// keyword detection when the API call or its output is unusable.
type AnthropicClassifier struct {
	client anthropic.Client
	model  string
}

// NewAnthropicClassifier creates a classifier using the given API key and model
func NewAnthropicClassifier(apiKey, model string) *AnthropicClassifier {
	return &AnthropicClassifier{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Classify sends the message to the model and parses the JSON verdict.
// promptContext carries the caller-assembled conversation context.
func (c *AnthropicClassifier) Classify(ctx context.Context, message, promptContext string) (*Result, error) {
	user := message
	if promptContext != "" {
		user = promptContext + "\n\nNew message: " + message
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: classifySystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	})
	if err != nil {
		logging.Warnf("Intent classification API call failed, using keyword fallback: %v", err)
		return ClassifyKeywords(message), nil
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			text.WriteString(tb.Text)
		}
	}

	result, err := parseResult(text.String())
	if err != nil {
		logging.Warnf("Intent classification returned unparseable output, using keyword fallback: %v", err)
		return ClassifyKeywords(message), nil
	}
	return result, nil
}

func parseResult(raw string) (*Result, error) {
	match := jsonPattern.FindString(raw)
	if match == "" {
		return nil, fmt.Errorf("no JSON object in classifier output")
	}
	var result Result
	if err := json.Unmarshal([]byte(match), &result); err != nil {
		return nil, fmt.Errorf("parse classifier output: %w", err)
	}
	if result.Kind == "" {
		result.Kind = KindUnknown
	}
	return &result, nil
}

// KeywordClassifier is the offline Classifier used when no API key is
// configured. It wraps ClassifyKeywords.
type KeywordClassifier struct{}

// Classify detects the intent kind from keywords alone
func (KeywordClassifier) Classify(_ context.Context, message, _ string) (*Result, error) {
	return ClassifyKeywords(message), nil
}

// keywordRules maps detection phrases to intent kinds, checked in order so
// the more specific phrases win
var keywordRules = []struct {
	kind    Kind
	phrases []string
}{
	{KindPauseSessions, []string{"pause", "hold the timer", "stop the timer"}},
	{KindResumeSessions, []string{"resume", "unpause", "back to work"}},
	{KindStartSession, []string{"start a pomodoro", "start pomodoro", "start a session", "start working on", "start the timer", "begin working"}},
	{KindCompleteSession, []string{"finish the session", "complete the session", "done with the session"}},
	{KindCreateProject, []string{"new project", "create a project", "create project", "add a project"}},
	{KindCreateTask, []string{"new task", "create a task", "create task", "add a task"}},
	{KindListProjects, []string{"list projects", "show projects", "what projects"}},
	{KindListTasks, []string{"list tasks", "show tasks", "what tasks", "my tasks"}},
	{KindDeleteProject, []string{"delete project", "delete the project", "remove project"}},
	{KindShowSummary, []string{"summary", "status", "progress", "how am i doing"}},
	{KindGoingOut, []string{"going out", "stepping out", "heading out", "be right back"}},
	{KindComingBack, []string{"i'm back", "im back", "back now"}},
	{KindHelp, []string{"help", "what can you do", "usage"}},
}

// ClassifyKeywords is the pure, offline fallback classifier. It detects the
// intent kind but extracts no entities; the orchestrator prompts for the rest.
func ClassifyKeywords(message string) *Result {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lower, phrase) {
				return &Result{Kind: rule.kind}
			}
		}
	}
	return &Result{Kind: KindUnknown}
}
