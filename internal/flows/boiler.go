package flows

import "github.com/Courtneyezra/FixPipe/internal/models"

// boilerNoHeatFlow walks a tenant through the common causes of a boiler
// producing no heat: power, system pressure, and a lockout reset.
var boilerNoHeatFlow = models.Flow{
	ID:          "boiler_no_heat",
	Name:        "Boiler not heating",
	Description: "Diagnoses a boiler that is not producing heat or hot water",
	Category:    models.CategoryHeating,
	TriggerKeywords: []string{
		"boiler", "heating", "no heat", "cold", "radiators", "hot water",
	},
	SafeForDIY:           true,
	SafetyWarning:        "⚠️ Safety first: if you can smell gas, stop now, open the windows, do not touch any switches, and call the National Gas Emergency line on 0800 111 999.",
	MaxAttempts:          3,
	EstimatedTimeMinutes: 15,
	EscalationDataNeeded: []string{
		"Boiler make and model",
		"Any error code shown on the display",
		"Photo of the boiler front panel",
	},
	Steps: []models.Step{
		{
			ID:       "check_power",
			Type:     models.StepTypeQuestion,
			Template: "Let's start with the basics. Is your boiler's display or power light on?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "power_yes",
					Patterns:      []string{`\byes\b`, `\byeah\b`, `\byep\b`, `\bit'?s on\b`, `display is on`, `light is on`},
					SemanticMatch: "The boiler has power: its display or light is on",
					Examples:      []string{"yes", "yeah the screen is lit", "the light's on"},
				},
				{
					ID:            "power_no",
					Patterns:      []string{`\bno\b`, `\bnope\b`, `\boff\b`, `\bdead\b`, `\bblank\b`, `nothing on`},
					SemanticMatch: "The boiler appears to have no power: display off, blank, or dead",
					Examples:      []string{"no", "it's completely dead", "screen is blank"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "power_yes"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "check_pressure"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "power_no"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "check_fused_switch"},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{
					Type:        models.ActionEscalate,
					Reason:      "could not determine boiler power state",
					CollectData: []string{"Boiler make and model", "Photo of the boiler front panel"},
				},
			},
		},
		{
			ID:       "check_fused_switch",
			Type:     models.StepTypeInstruction,
			Template: "There's usually a fused switch on the wall near the boiler (it looks like a light switch with a small fuse holder). Check it's switched **on**, and check your fuse box for a tripped breaker. Did that bring the display back?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "switch_helped",
					Patterns:      []string{`\byes\b`, `\bon now\b`, `\bback on\b`, `working now`, `display is on`},
					SemanticMatch: "Power has been restored to the boiler after checking the switch or breaker",
					Examples:      []string{"yes it's back on", "that did it, display is on"},
				},
				{
					ID:            "switch_no",
					Patterns:      []string{`\bno\b`, `\bstill\b.*\b(off|dead|blank)\b`, `nothing`},
					SemanticMatch: "The boiler still has no power after checking the switch and fuse box",
					Examples:      []string{"no, still dead", "nothing changed"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "switch_helped"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "check_pressure"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "switch_no"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "check_pressure",
			Type:     models.StepTypeQuestion,
			Template: "Good. Now look at the pressure gauge on the front of the boiler. What does it read, in bar? (Most systems should sit between 1 and 1.5 bar.)",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "pressure_low",
					Patterns:      []string{`\b0?\.\d+\s*bar`, `\b0\s*bar`, `\blow\b`, `below 1`, `under 1`, `\bred\b`},
					SemanticMatch: "The pressure is low: below 1 bar, or the needle is in the red/low zone",
					Examples:      []string{"0.3 bar", "it's showing low", "needle is in the red"},
				},
				{
					ID:            "pressure_ok",
					Patterns:      []string{`\b1\.\d+\s*bar`, `\b1\s*bar`, `\b1\.5\b`, `\bnormal\b`, `\bgreen\b`, `\bfine\b`},
					SemanticMatch: "The pressure is normal: between 1 and 1.5 bar, or the needle is in the green zone",
					Examples:      []string{"1.2 bar", "looks normal", "it's in the green"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "pressure_low"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "repressurize_instructions"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "pressure_ok"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "reset_boiler"},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{
					Type:        models.ActionEscalate,
					Reason:      "could not read boiler pressure",
					CollectData: []string{"Photo of the pressure gauge", "Boiler make and model"},
				},
			},
		},
		{
			ID:       "repressurize_instructions",
			Type:     models.StepTypeInstruction,
			Template: "The pressure is too low, which stops the boiler firing. Here's how to top it up:\n1. Find the filling loop — a flexible silver hose under the boiler with one or two small valves.\n2. Open the valve(s) slowly and watch the gauge rise.\n3. Close the valves when it reads about **1.2 bar**.\nLet me know when you're done, or if you can't find the filling loop.",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "repressurized",
					Patterns:      []string{`\bdone\b`, `\byes\b`, `1\.\d+\s*bar`, `topped up`, `\bok\b`},
					SemanticMatch: "The tenant has repressurized the system to around 1.2 bar",
					Examples:      []string{"done, it reads 1.2 now", "ok topped it up"},
				},
				{
					ID:            "cant_do",
					Patterns:      []string{`can'?t\b`, `\bno\b`, `can'?t find`, `\bstuck\b`, `not sure`},
					SemanticMatch: "The tenant cannot find the filling loop or cannot complete the repressurize procedure",
					Examples:      []string{"I can't find any hose", "the valve is stuck"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "repressurized"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_heating"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "cant_do"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "reset_boiler",
			Type:     models.StepTypeInstruction,
			Template: "The pressure looks fine, so the boiler may be in lockout. Press and hold the **reset** button for about 10 seconds, then give it a couple of minutes. Did the boiler fire up?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "reset_worked",
					Patterns:      []string{`\byes\b`, `fired up`, `\bworking\b`, `\bheating\b`, `came on`},
					SemanticMatch: "The boiler restarted after the reset",
					Examples:      []string{"yes it fired up", "it's working again"},
				},
				{
					ID:            "reset_no_change",
					Patterns:      []string{`\bno\b`, `\bstill\b`, `nothing`, `error`, `\bcode\b`},
					SemanticMatch: "The boiler did not restart, or is showing an error code",
					Examples:      []string{"no, still showing F22", "nothing happened"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "reset_worked"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_heating"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "reset_no_change"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "confirm_heating",
			Type:     models.StepTypeConfirmation,
			Template: "Give it 10–15 minutes — are the radiators warming up now?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "heating_yes",
					Patterns:      []string{`\byes\b`, `\bwarm\b`, `warming`, `\bhot\b`, `working`},
					SemanticMatch: "The heating is working again: radiators are warming up",
					Examples:      []string{"yes they're getting warm", "all working now"},
				},
				{
					ID:            "heating_no",
					Patterns:      []string{`\bno\b`, `\bstill cold\b`, `not warm`, `nothing`},
					SemanticMatch: "The radiators are still cold after waiting",
					Examples:      []string{"no, still cold", "nothing's happening"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "heating_yes"},
					Action: models.TransitionAction{
						Type:       models.ActionResolve,
						Resolution: "Brilliant — your heating is back on! 🎉 The low pressure was the culprit. If it drops again within a few weeks there may be a small leak in the system, so keep an eye on the gauge.",
					},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "heating_no"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{
					Type:        models.ActionEscalate,
					Reason:      "heating state unclear after remedial steps",
					CollectData: []string{"Any error code shown on the display"},
				},
			},
		},
	},
}

func init() {
	Register(boilerNoHeatFlow)
}
