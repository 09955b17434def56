package intent

import (
	"context"
	"testing"
)

func TestClassifyKeywords(t *testing.T) {
	tests := []struct {
		message string
		want    Kind
	}{
		{"please pause everything", KindPauseSessions},
		{"ok, resume", KindResumeSessions},
		{"start a pomodoro on the landing page", KindStartSession},
		{"I'm done with the session", KindCompleteSession},
		{"create a project called Website", KindCreateProject},
		{"add a task to the backend project", KindCreateTask},
		{"show projects", KindListProjects},
		{"what tasks do I have?", KindListTasks},
		{"delete project Website", KindDeleteProject},
		{"how am I doing today?", KindShowSummary},
		{"stepping out for lunch", KindGoingOut},
		{"i'm back", KindComingBack},
		{"help", KindHelp},
		{"the weather is nice", KindUnknown},
		{"", KindUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.message, func(t *testing.T) {
			got := ClassifyKeywords(tc.message)
			if got.Kind != tc.want {
				t.Errorf("ClassifyKeywords(%q) = %s, want %s", tc.message, got.Kind, tc.want)
			}
		})
	}
}

func TestClassifyKeywordsCaseInsensitive(t *testing.T) {
	got := ClassifyKeywords("PAUSE")
	if got.Kind != KindPauseSessions {
		t.Errorf("got %s", got.Kind)
	}
}

func TestKeywordClassifierNeverErrors(t *testing.T) {
	c := KeywordClassifier{}
	result, err := c.Classify(context.Background(), "gibberish input", "")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Kind != KindUnknown {
		t.Errorf("got %s", result.Kind)
	}
}

func TestParseResult(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		result, err := parseResult(`{"intent": "start_session", "session": {"task_ref": "landing page", "work_minutes": 50}}`)
		if err != nil {
			t.Fatalf("parseResult: %v", err)
		}
		if result.Kind != KindStartSession {
			t.Errorf("kind = %s", result.Kind)
		}
		if result.Session == nil || result.Session.TaskRef != "landing page" || result.Session.WorkMinutes != 50 {
			t.Errorf("session = %+v", result.Session)
		}
	})

	t.Run("json wrapped in prose", func(t *testing.T) {
		result, err := parseResult("Sure, here is the classification:\n{\"intent\": \"help\"}\nLet me know.")
		if err != nil {
			t.Fatalf("parseResult: %v", err)
		}
		if result.Kind != KindHelp {
			t.Errorf("kind = %s", result.Kind)
		}
	})

	t.Run("missing intent defaults to unknown", func(t *testing.T) {
		result, err := parseResult(`{"project_ref": "website"}`)
		if err != nil {
			t.Fatalf("parseResult: %v", err)
		}
		if result.Kind != KindUnknown {
			t.Errorf("kind = %s", result.Kind)
		}
	})

	t.Run("no json at all", func(t *testing.T) {
		if _, err := parseResult("I could not classify that."); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("multiple entities", func(t *testing.T) {
		result, err := parseResult(`{"intent": "create_tasks", "tasks": [{"title": "one"}, {"title": "two", "estimated_minutes": 15}]}`)
		if err != nil {
			t.Fatalf("parseResult: %v", err)
		}
		if len(result.Tasks) != 2 || result.Tasks[1].EstimatedMinutes != 15 {
			t.Errorf("tasks = %+v", result.Tasks)
		}
	})
}
