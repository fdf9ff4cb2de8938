package agent

import (
	"fmt"
	"strings"
)

// Tone is the sentiment classification of an incoming post.
type Tone string

const (
	ToneNeutral Tone = "neutral"
	ToneHostile Tone = "hostile"
)

// Response-intensity tier thresholds. Boundaries are inclusive: an
// intensity of exactly 0.4 is "strong", exactly 0.7 is "maximum".
const (
	tierMaximum = 0.7
	tierStrong  = 0.4
)

// hostileKeywords maps trigger words to intensity weights. The classifier
// takes the maximum matched weight, so adding a stronger keyword to a text
// can never lower its intensity.
var hostileKeywords = map[string]float64{
	"lame":      0.2,
	"boring":    0.3,
	"cringe":    0.4,
	"dumb":      0.4,
	"stupid":    0.5,
	"trash":     0.5,
	"garbage":   0.6,
	"clown":     0.6,
	"idiot":     0.7,
	"hate":      0.7,
	"pathetic":  0.8,
	"scam":      0.8,
	"worthless": 0.9,
	"shut up":   0.9,
}

// Classify scans text case-insensitively against the keyword table and
// returns the tone plus an intensity in [0,1]. Deterministic and pure.
func Classify(text string) (Tone, float64) {
	lower := strings.ToLower(text)
	intensity := 0.0
	for keyword, weight := range hostileKeywords {
		if strings.Contains(lower, keyword) && weight > intensity {
			intensity = weight
		}
	}
	if intensity > 0 {
		return ToneHostile, intensity
	}
	return ToneNeutral, 0
}

// BuildReplyPrompt produces the user prompt and a system-prompt suffix for
// replying to text with the given classification. Hostile tones escalate
// through three condescension tiers; neutral gets a plain reply template.
func BuildReplyPrompt(text string, tone Tone, intensity float64) (userPrompt, systemSuffix string) {
	if tone != ToneHostile {
		userPrompt = fmt.Sprintf(
			"Write a short, witty reply to this post: %q. "+
				"Keep it under 100 characters, casual and quick. "+
				"No hashtags, no usernames, no emojis.", text)
		return userPrompt, ""
	}

	switch {
	case intensity >= tierMaximum:
		userPrompt = fmt.Sprintf(
			"Someone is being openly hostile: %q. "+
				"Write a reply under 100 characters that dismantles them with maximum condescension. "+
				"Treat their take as beneath serious discussion. No slurs, no threats, no hashtags.", text)
		systemSuffix = "\nFor this reply: be witheringly condescending. You find this person's hostility amusing and entirely unworthy of effort."
	case intensity >= tierStrong:
		userPrompt = fmt.Sprintf(
			"Someone is being rude: %q. "+
				"Write a reply under 100 characters that is strongly condescending without being cruel. "+
				"No hashtags, no usernames.", text)
		systemSuffix = "\nFor this reply: be firmly condescending, like correcting a student who didn't do the reading."
	default:
		userPrompt = fmt.Sprintf(
			"Someone is being mildly snarky: %q. "+
				"Write a reply under 100 characters with light, amused condescension. "+
				"No hashtags, no usernames.", text)
		systemSuffix = "\nFor this reply: be mildly condescending, more amused than bothered."
	}
	return userPrompt, systemSuffix
}
