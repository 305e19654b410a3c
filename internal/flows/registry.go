// Package flows provides the static catalog of troubleshooting flows.
//
// Flow definitions are pure data registered at init time into a process-wide
// read-only registry keyed by flow ID. The registry is never mutated after
// startup and is never re-parsed per request.
package flows

import (
	"log/slog"
	"strings"

	"github.com/Courtneyezra/FixPipe/internal/models"
)

// MinKeywordScore is the precision floor for keyword flow selection: a flow
// needs at least one exact keyword match or several partial matches before
// it is chosen, to avoid false-positive selection.
const MinKeywordScore = 2

var (
	registry = make(map[string]models.Flow)
	// order preserves registration order so that score ties keep the first
	// registered flow.
	order []string
)

// Register adds a flow to the catalog. Called from init in the definition files.
func Register(f models.Flow) {
	if _, exists := registry[f.ID]; exists {
		slog.Warn("flows.Register: duplicate flow ID, overwriting", "flowID", f.ID)
	} else {
		order = append(order, f.ID)
	}
	registry[f.ID] = f
}

// GetFlowByID retrieves a flow from the catalog.
func GetFlowByID(id string) (models.Flow, bool) {
	f, ok := registry[id]
	return f, ok
}

// All returns every registered flow in registration order.
func All() []models.Flow {
	out := make([]models.Flow, 0, len(order))
	for _, id := range order {
		out = append(out, registry[id])
	}
	return out
}

// GetFlowsByCategory returns the flows for one issue category.
func GetFlowsByCategory(category models.IssueCategory) []models.Flow {
	var out []models.Flow
	for _, id := range order {
		if registry[id].Category == category {
			out = append(out, registry[id])
		}
	}
	return out
}

// FindFlowByKeywords scores every flow against the given keywords and
// returns the best-scoring flow ID, or "" if no flow reaches MinKeywordScore.
//
// Scoring: +2 per exact keyword match against a trigger keyword, +1 per
// substring containment in either direction for every (keyword, trigger)
// pair. A single short keyword can contribute multiple partial points
// across triggers.
func FindFlowByKeywords(keywords []string) string {
	bestID := ""
	bestScore := 0

	for _, id := range order {
		flow := registry[id]
		score := 0
		for _, kw := range keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			for _, trigger := range flow.TriggerKeywords {
				trigger = strings.ToLower(trigger)
				if kw == trigger {
					score += 2
				} else if strings.Contains(kw, trigger) || strings.Contains(trigger, kw) {
					score++
				}
			}
		}
		if score > bestScore {
			bestScore = score
			bestID = id
		}
	}

	if bestScore < MinKeywordScore {
		slog.Debug("flows.FindFlowByKeywords below threshold", "bestScore", bestScore, "keywords", keywords)
		return ""
	}
	slog.Debug("flows.FindFlowByKeywords matched", "flowID", bestID, "score", bestScore)
	return bestID
}

// SelectFlowForIssue picks a flow for a free-text issue description,
// falling back to the first registered flow of the given category when
// keyword selection finds nothing.
func SelectFlowForIssue(category models.IssueCategory, description string) string {
	if id := FindFlowByKeywords(strings.Fields(description)); id != "" {
		return id
	}
	for _, id := range order {
		if registry[id].Category == category {
			slog.Debug("flows.SelectFlowForIssue category fallback", "flowID", id, "category", category)
			return id
		}
	}
	return ""
}
