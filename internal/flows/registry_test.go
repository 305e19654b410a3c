package flows

import (
	"testing"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

func TestRegistryContents(t *testing.T) {
	all := All()
	if len(all) < 3 {
		t.Fatalf("expected at least 3 registered flows, got %d", len(all))
	}

	for _, id := range []string{"boiler_no_heat", "blocked_drain", "dripping_tap"} {
		flow, ok := GetFlowByID(id)
		if !ok {
			t.Errorf("flow %s should be registered", id)
			continue
		}
		if flow.ID != id {
			t.Errorf("flow ID mismatch: %s vs %s", flow.ID, id)
		}
		if len(flow.Steps) == 0 {
			t.Errorf("flow %s has no steps", id)
		}
		if flow.MaxAttempts <= 0 {
			t.Errorf("flow %s has no attempt budget", id)
		}
	}

	if _, ok := GetFlowByID("nonexistent"); ok {
		t.Error("unknown flow ID should not resolve")
	}
}

// Every transition target in every flow must resolve to a real step; a
// dangling step ID is an authoring bug that would escalate mid-session.
func TestFlowGraphIntegrity(t *testing.T) {
	for _, flow := range All() {
		for _, step := range flow.Steps {
			for _, tr := range step.Transitions {
				checkAction(t, flow, step.ID, tr.Action)
			}
			checkAction(t, flow, step.ID, step.FallbackTransition.Action)
		}
	}
}

func checkAction(t *testing.T, flow models.Flow, stepID string, action models.TransitionAction) {
	t.Helper()
	if action.Type == models.ActionGotoStep {
		if _, ok := flow.StepByID(action.StepID); !ok {
			t.Errorf("flow %s step %s: goto target %q does not exist", flow.ID, stepID, action.StepID)
		}
	}
	if action.Type == "" {
		t.Errorf("flow %s step %s: transition with empty action type", flow.ID, stepID)
	}
}

func TestGetFlowsByCategory(t *testing.T) {
	heating := GetFlowsByCategory(models.CategoryHeating)
	if len(heating) == 0 {
		t.Fatal("expected at least one heating flow")
	}
	for _, f := range heating {
		if f.Category != models.CategoryHeating {
			t.Errorf("flow %s has category %s", f.ID, f.Category)
		}
	}

	if got := GetFlowsByCategory(models.CategoryElectrical); len(got) != 0 {
		t.Errorf("no electrical flows are registered, got %d", len(got))
	}
}

func TestFindFlowByKeywords(t *testing.T) {
	cases := []struct {
		name     string
		keywords []string
		want     string
	}{
		{"exact boiler keyword", []string{"boiler"}, "boiler_no_heat"},
		{"multiple heating keywords", []string{"radiators", "cold"}, "boiler_no_heat"},
		{"drain keywords", []string{"sink", "blocked"}, "blocked_drain"},
		{"tap keywords", []string{"tap", "dripping"}, "dripping_tap"},
		{"single weak partial is below threshold", []string{"plug"}, ""},
		{"unrelated words", []string{"banana", "spaceship"}, ""},
		{"empty input", nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindFlowByKeywords(tc.keywords); got != tc.want {
				t.Errorf("FindFlowByKeywords(%v) = %q, want %q", tc.keywords, got, tc.want)
			}
		})
	}
}

func TestSelectFlowForIssue(t *testing.T) {
	if got := SelectFlowForIssue(models.CategoryHeating, "my boiler is broken and the house is cold"); got != "boiler_no_heat" {
		t.Errorf("keyword selection failed, got %q", got)
	}

	// No keyword hit, but the category has a registered flow.
	if got := SelectFlowForIssue(models.CategoryDrainage, "water will not go away"); got != "blocked_drain" {
		t.Errorf("category fallback failed, got %q", got)
	}

	// No keyword hit and no flow for the category.
	if got := SelectFlowForIssue(models.CategoryElectrical, "sparks everywhere"); got != "" {
		t.Errorf("expected no selection, got %q", got)
	}
}
