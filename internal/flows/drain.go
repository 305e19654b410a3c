package flows

import "github.com/Courtneyezra/FixPipe/internal/models"

// blockedDrainFlow walks a tenant through clearing a single blocked drain.
// Multiple slow drains at once indicate a main-line blockage and go straight
// to a callout.
var blockedDrainFlow = models.Flow{
	ID:          "blocked_drain",
	Name:        "Blocked drain",
	Description: "Diagnoses and clears a blocked or slow-draining sink or shower",
	Category:    models.CategoryDrainage,
	TriggerKeywords: []string{
		"drain", "blocked", "clogged", "sink", "shower", "slow draining", "plughole",
	},
	SafeForDIY:           true,
	SafetyWarning:        "⚠️ Please don't pour chemical drain cleaner down before we've had a look — it makes any later repair work hazardous for you and our engineers.",
	MaxAttempts:          3,
	EstimatedTimeMinutes: 15,
	EscalationDataNeeded: []string{
		"Which drain is affected",
		"Photo or video of the water draining",
	},
	Steps: []models.Step{
		{
			ID:       "assess_blockage",
			Type:     models.StepTypeQuestion,
			Template: "Is it just the one sink or shower that's blocked, or are several drains in the property slow at the same time?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "single_drain",
					Patterns:      []string{`\bone\b`, `\bjust\b`, `\bsingle\b`, `only the`, `\bkitchen\b`, `\bbathroom\b`},
					SemanticMatch: "Only one drain is affected",
					Examples:      []string{"just the kitchen sink", "only one"},
				},
				{
					ID:            "multiple_drains",
					Patterns:      []string{`\bseveral\b`, `\bmultiple\b`, `\ball\b`, `both`, `everything`},
					SemanticMatch: "More than one drain is slow or blocked at the same time",
					Examples:      []string{"all of them are slow", "both the sink and the shower"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "single_drain"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "try_boiling_water"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "multiple_drains"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{
					Type:        models.ActionEscalate,
					Reason:      "could not establish extent of the blockage",
					CollectData: []string{"Which drain is affected"},
				},
			},
		},
		{
			ID:       "try_boiling_water",
			Type:     models.StepTypeInstruction,
			Template: "Let's try the gentle option first: pour a full kettle of just-boiled water slowly down the plughole in two or three stages. (Skip this if the pipework is plastic and the water is bath-hot instead.) Is it draining any better?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "water_helped",
					Patterns:      []string{`\byes\b`, `\bbetter\b`, `draining now`, `\bcleared\b`, `\bworked\b`},
					SemanticMatch: "The drain is flowing better after the hot water",
					Examples:      []string{"yes that helped", "it's draining now"},
				},
				{
					ID:            "water_no_change",
					Patterns:      []string{`\bno\b`, `\bstill\b`, `no change`, `same`, `nothing`},
					SemanticMatch: "The drain is still blocked after the hot water",
					Examples:      []string{"no difference", "still blocked"},
				},
			},
			Transitions: []models.Transition{
				// High-confidence interpretations move straight on; marginal
				// ones fall through to the declared matches below.
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "water_helped"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_clear"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "water_no_change"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "try_plunger"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionExpression, Expression: "confidence >= 0.8"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "try_plunger"},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionGotoStep, StepID: "try_plunger"},
			},
		},
		{
			ID:       "try_plunger",
			Type:     models.StepTypeInstruction,
			Template: "Next up: a plunger. Block the overflow hole with a wet cloth, sit the plunger over the plughole with a little water in the basin, and give it 10–15 sharp pumps. Any luck?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "plunger_helped",
					Patterns:      []string{`\byes\b`, `\bcleared\b`, `draining`, `\bworked\b`, `that did it`},
					SemanticMatch: "The plunger cleared the blockage",
					Examples:      []string{"yes, that did it", "draining fine now"},
				},
				{
					ID:            "plunger_no",
					Patterns:      []string{`\bno\b`, `\bstill\b`, `no plunger`, `don'?t have`, `nothing`},
					SemanticMatch: "The plunger didn't work, or the tenant has no plunger",
					Examples:      []string{"still blocked", "I don't have a plunger"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "plunger_helped"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_clear"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "plunger_no"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "confirm_clear",
			Type:     models.StepTypeConfirmation,
			Template: "Run the tap on full for 30 seconds or so. Is the water draining away freely?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "clear_yes",
					Patterns:      []string{`\byes\b`, `\bfreely\b`, `\bfine\b`, `all clear`, `draining`},
					SemanticMatch: "The drain is flowing freely again",
					Examples:      []string{"yes, all clear", "draining fine"},
				},
				{
					ID:            "clear_no",
					Patterns:      []string{`\bno\b`, `\bslow\b`, `backing up`, `still`},
					SemanticMatch: "The drain is still slow or backing up",
					Examples:      []string{"it's still a bit slow", "backing up again"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "clear_yes"},
					Action: models.TransitionAction{
						Type:       models.ActionResolve,
						Resolution: "Great stuff — the drain is clear! 💪 A monthly kettle of hot water down that plughole will help keep it that way.",
					},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "clear_no"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
	},
}

func init() {
	Register(blockedDrainFlow)
}
