package flows

import "github.com/Courtneyezra/FixPipe/internal/models"

// drippingTapFlow walks a tenant through isolating the water supply and
// replacing the washer or cartridge on a dripping tap.
var drippingTapFlow = models.Flow{
	ID:          "dripping_tap",
	Name:        "Dripping tap",
	Description: "Diagnoses and fixes a dripping or leaking tap",
	Category:    models.CategoryPlumbing,
	TriggerKeywords: []string{
		"tap", "dripping", "drip", "leaking", "faucet", "washer",
	},
	SafeForDIY:           true,
	MaxAttempts:          3,
	EstimatedTimeMinutes: 20,
	EscalationDataNeeded: []string{
		"Photo of the tap",
		"Which room the tap is in",
	},
	Steps: []models.Step{
		{
			ID:       "isolate_water",
			Type:     models.StepTypeInstruction,
			Template: "First, let's stop the water. Look under the sink for a small isolation valve on the pipe — turn the screw a quarter turn with a flathead screwdriver so the slot sits **across** the pipe. Were you able to shut the water off?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "isolated_yes",
					Patterns:      []string{`\byes\b`, `\bdone\b`, `\boff\b`, `shut it off`, `turned it`},
					SemanticMatch: "The tenant has isolated the water supply to the tap",
					Examples:      []string{"yes it's off", "done, no more water"},
				},
				{
					ID:            "no_valve",
					Patterns:      []string{`\bno\b`, `can'?t find`, `no valve`, `\bstuck\b`, `won'?t turn`},
					SemanticMatch: "There is no isolation valve, it can't be found, or it is stuck",
					Examples:      []string{"I can't see any valve", "it won't budge"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "isolated_yes"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "identify_tap_type"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "no_valve"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "identify_tap_type",
			Type:     models.StepTypeQuestion,
			Template: "What kind of tap is it? A **traditional** tap with separate twist heads for hot and cold, or a **lever** mixer tap you push up and swing side to side?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "tap_twist",
					Patterns:      []string{`\btwist\b`, `traditional`, `\bseparate\b`, `two taps`, `\bheads\b`},
					SemanticMatch: "A traditional twist-head tap with separate hot and cold heads",
					Examples:      []string{"the old twisty kind", "two separate taps"},
				},
				{
					ID:            "tap_lever",
					Patterns:      []string{`\blever\b`, `\bmixer\b`, `\bswing\b`, `push up`, `single handle`},
					SemanticMatch: "A single-lever mixer tap",
					Examples:      []string{"it's a mixer with one handle", "lever type"},
				},
				{
					ID:            "tap_unsure",
					Patterns:      []string{`not sure`, `\bunsure\b`, `don'?t know`, `no idea`},
					SemanticMatch: "The tenant is unsure what type of tap it is",
					Examples:      []string{"not sure what it's called", "no idea"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "tap_twist"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "replace_washer"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "tap_lever"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "replace_cartridge"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "tap_unsure"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "photo_request"},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionGotoStep, StepID: "photo_request"},
			},
		},
		{
			ID:       "photo_request",
			Type:     models.StepTypeMediaRequest,
			Template: "No problem — could you send me a photo of the tap so I can tell which type it is?",
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionMediaReceived, MediaType: models.MediaTypePhoto},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "replace_washer"},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{
					Type:        models.ActionEscalate,
					Reason:      "could not identify tap type",
					CollectData: []string{"Photo of the tap", "Which room the tap is in"},
				},
			},
		},
		{
			ID:       "replace_washer",
			Type:     models.StepTypeInstruction,
			Template: "A drip on a twist tap almost always means a worn washer:\n1. Put the plug in so nothing falls down the drain.\n2. Unscrew or prise off the tap head cover and undo the valve with a spanner.\n3. Swap the rubber washer at the bottom (a 1/2\" washer from any DIY shop fits most taps).\n4. Reassemble and turn the water back on.\nHow did it go?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "washer_done",
					Patterns:      []string{`\bdone\b`, `\byes\b`, `replaced`, `swapped`, `\bfitted\b`},
					SemanticMatch: "The tenant has replaced the washer and reassembled the tap",
					Examples:      []string{"done, all back together", "swapped it"},
				},
				{
					ID:            "washer_stuck",
					Patterns:      []string{`\bstuck\b`, `can'?t\b`, `won'?t\b`, `\bseized\b`, `too tight`},
					SemanticMatch: "A part is seized or the tenant cannot complete the washer replacement",
					Examples:      []string{"the valve is seized solid", "I can't undo it"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "washer_done"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_fixed"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "washer_stuck"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "replace_cartridge",
			Type:     models.StepTypeInstruction,
			Template: "Lever taps use a ceramic cartridge rather than a washer. Prise off the small hot/cold cap, undo the grub screw underneath, lift the lever off, and unscrew the cartridge with a spanner. Take it to a plumbers' merchant for a like-for-like replacement, then refit. Were you able to swap it?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "cartridge_done",
					Patterns:      []string{`\bdone\b`, `\byes\b`, `replaced`, `swapped`, `\bfitted\b`},
					SemanticMatch: "The tenant has replaced the cartridge and reassembled the tap",
					Examples:      []string{"yes, new cartridge in", "done"},
				},
				{
					ID:            "cartridge_stuck",
					Patterns:      []string{`\bstuck\b`, `can'?t\b`, `won'?t\b`, `\bseized\b`},
					SemanticMatch: "The tenant cannot complete the cartridge replacement",
					Examples:      []string{"I can't get the lever off"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "cartridge_done"},
					Action:    models.TransitionAction{Type: models.ActionGotoStep, StepID: "confirm_fixed"},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "cartridge_stuck"},
					Action:    models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
				},
			},
			FallbackTransition: models.Transition{
				Action: models.TransitionAction{Type: models.ActionEndFlow, Outcome: models.OutcomeNeedsCallout},
			},
		},
		{
			ID:       "confirm_fixed",
			Type:     models.StepTypeConfirmation,
			Template: "Turn the water back on and run the tap for a few seconds, then close it. Has the drip stopped?",
			ExpectedResponses: []models.ExpectedResponse{
				{
					ID:            "fixed_yes",
					Patterns:      []string{`\byes\b`, `stopped`, `no more drip`, `\bfixed\b`, `all good`},
					SemanticMatch: "The drip has stopped",
					Examples:      []string{"yes, drip's gone", "all fixed"},
				},
				{
					ID:            "fixed_no",
					Patterns:      []string{`\bno\b`, `still drip`, `still leaking`, `\bworse\b`},
					SemanticMatch: "The tap is still dripping or leaking",
					Examples:      []string{"no, still dripping", "it's worse now"},
				},
			},
			Transitions: []models.Transition{
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "fixed_yes"},
					Action: models.TransitionAction{
						Type:       models.ActionResolve,
						Resolution: "Nice work — that drip is sorted! 🔧 You've saved yourself a callout. If it starts again within a few weeks the tap seat may be worn, which is a bigger job, so let us know.",
					},
				},
				{
					Condition: models.TransitionCondition{Type: models.ConditionResponseMatches, ResponseID: "fixed_no"},
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
	Register(drippingTapFlow)
}
