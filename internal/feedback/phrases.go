package feedback

import "github.com/verte-zerg/sketchcoach/internal/model"

type tip int

const (
	tipShape tip = iota
	tipClose
	tipLarger
	tipSmaller
	tipCenter
	tipTrace
	tipFaster
	tipSlower
	tipSteady
	tipRefine
	tipNext
)

// Phrases may reference {shape} (the guide) and {label} (the predicted shape).
var technicalPhrases = map[tip]string{
	tipShape:   "Your stroke reads as a {label}; follow the {shape} guide's outline.",
	tipClose:   "Finish the {shape} where you started so the outline closes.",
	tipLarger:  "Draw larger: match the full extent of the {shape} guide.",
	tipSmaller: "Draw smaller: stay inside the {shape} guide's bounds.",
	tipCenter:  "Center your stroke on the {shape} guide.",
	tipTrace:   "Trace closer to the {shape} guide line.",
	tipFaster:  "Keep the stroke moving; the {shape} took longer than expected.",
	tipSlower:  "Slow down; precision beats speed on the {shape}.",
	tipSteady:  "Keep an even pace from start to finish.",
	tipRefine:  "Tighten the curve where the {shape} drifts from the guide.",
	tipNext:    "Clean {shape}. Move on to the next shape.",
}

var artisticPhrases = map[tip]string{
	tipShape:   "The form suggests a {label}; let the {shape}'s character come through.",
	tipClose:   "Let the {shape}'s contour flow back into its starting point.",
	tipLarger:  "Give the {shape} more room; use the whole space of the guide.",
	tipSmaller: "Rein the {shape} in; keep the form within the guide.",
	tipCenter:  "Anchor the {shape} around the middle of the composition.",
	tipTrace:   "Feel the {shape}'s contour and let your line hug it.",
	tipFaster:  "Commit to the gesture; a confident {shape} reads better.",
	tipSlower:  "Breathe and slow the gesture; let the {shape} form deliberately.",
	tipSteady:  "Keep the rhythm of your line consistent.",
	tipRefine:  "Refine the rhythm of the {shape}'s contour.",
	tipNext:    "A beautiful {shape}. Carry that flow into the next form.",
}

func vocabularyFor(category model.LessonCategory) map[tip]string {
	if category == model.CategoryMastery {
		return artisticPhrases
	}
	return technicalPhrases
}

var encouragements = map[Band]map[model.SkillLevel]string{
	BandExcellent: {
		model.LevelBeginner:     "Excellent! That's a fantastic stroke.",
		model.LevelIntermediate: "Excellent work. Very precise.",
		model.LevelAdvanced:     "Excellent. Near-perfect control.",
	},
	BandGood: {
		model.LevelBeginner:     "Good job! You got it right.",
		model.LevelIntermediate: "Good. That's a correct stroke.",
		model.LevelAdvanced:     "Correct. A little more polish will make it excellent.",
	},
	BandNeedsImprovement: {
		model.LevelBeginner:     "Nice effort! You're getting closer.",
		model.LevelIntermediate: "Needs improvement, but the shape is taking form.",
		model.LevelAdvanced:     "Needs improvement. Focus on control.",
	},
	BandKeepTrying: {
		model.LevelBeginner:     "Keep trying! Every stroke builds the habit.",
		model.LevelIntermediate: "Keep trying. Slow down and follow the guide.",
		model.LevelAdvanced:     "Keep trying. Reset and go again.",
	},
}

func encouragement(band Band, level model.SkillLevel) string {
	byLevel := encouragements[band]
	if msg, ok := byLevel[level]; ok {
		return msg
	}
	return byLevel[model.LevelBeginner]
}
