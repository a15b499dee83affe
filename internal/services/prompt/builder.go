// Package prompt builds the time-embedded poem prompt. Building is pure:
// the caller supplies the clock reading, so the same instant always yields
// the same prompt text for a given tone, format, and request ID.
package prompt

import (
	"fmt"
	"strings"
	"time"

	"github.com/chronoverse/chronoverse/internal/models"
)

var toneStyles = map[models.Tone]string{
	models.ToneWhimsical: "light, playful metaphors; gentle alliteration",
	models.ToneStoic:     "calm, restrained, simple diction",
	models.ToneWistful:   "short, soft, nostalgia",
	models.ToneFunny:     "wry, amusing humor",
	models.ToneHaiku:     "write exactly 3 lines with 5/7/5 syllables including the time.",
	models.ToneNoir:      "moody, cinematic; concrete imagery",
	models.ToneMinimal:   "ultra-brief; no adjectives",
	models.ToneCosmic:    "space/time motifs; awe",
	models.ToneRomantic:  "tender, warm; candlelit imagery",
}

// ToneStyle returns the style hint injected into the prompt for a tone.
func ToneStyle(tone models.Tone) string {
	return toneStyles[tone]
}

// Builder renders poem prompts from a clock reading.
type Builder struct{}

// NewBuilder creates a prompt builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// FormatTime renders the local time in the requested clock format. The
// 12-hour form carries no meridiem suffix: AM/PM is only ever computed
// to classify the daypart and is discarded before the string escapes.
func FormatTime(now time.Time, format models.ClockFormat) string {
	if format == models.Clock24h {
		return now.Format("15:04")
	}
	return now.Format("3:04")
}

// DaypartFor maps a local hour and minute to a human daypart label that
// never leaks AM/PM tokens into the prompt.
func DaypartFor(local time.Time) string {
	hm := local.Hour()*60 + local.Minute()
	switch {
	case hm >= 4*60 && hm <= 5*60+59:
		return "pre-dawn"
	case hm >= 6*60 && hm <= 7*60+59:
		return "early morning"
	case hm >= 8*60 && hm <= 11*60+29:
		return "morning"
	case hm >= 11*60+30 && hm <= 13*60+29:
		return "midday"
	case hm >= 13*60+30 && hm <= 16*60+59:
		return "afternoon"
	case hm >= 17*60 && hm <= 20*60+29:
		return "evening"
	default:
		return "late night"
	}
}

// Build renders the full prompt for one request. The local time must
// already be in the caller's timezone. requestID salts the
// micro-directive choice so retries of the same request see the same
// prompt.
func (b *Builder) Build(local time.Time, tone models.Tone, format models.ClockFormat, requestID string) models.ResolvedPrompt {
	timeUsed := FormatTime(local, format.Normalize())
	daypart := DaypartFor(local)
	minuteOfDay := local.Hour()*60 + local.Minute()

	hint, directiveID := pickDirective(minuteOfDay, tone, requestID)

	var sb strings.Builder
	sb.WriteString("You are a Master Poet writing brief, time-aware poems.\n")
	sb.WriteString("<<RULES>>\n")
	sb.WriteString("- Write a short poem that includes the time exactly once.\n")
	sb.WriteString("- Write the time anywhere in the poem (number or english form).\n")
	sb.WriteString("- Length: <= 3 lines and <180 characters.\n")
	sb.WriteString("- Voice: punchy, fun, accessible; prefer concrete images and active verbs.\n")
	sb.WriteString("- Output the poem only.\n")
	sb.WriteString("- Mind the input but it's optional to include in poem text.\n")
	sb.WriteString("<<INPUT>>\n")
	fmt.Fprintf(&sb, "time: %s\n", timeUsed)
	fmt.Fprintf(&sb, "daypart: %s\n", daypart)
	fmt.Fprintf(&sb, "tone: %s\n", tone)
	fmt.Fprintf(&sb, "style: %s\n", toneStyles[tone])
	if hint != "" {
		sb.WriteString(hint)
		sb.WriteString("\n")
	}
	sb.WriteString("<<OUTPUT>>\n")

	return models.ResolvedPrompt{
		Text:        sb.String(),
		TimeUsed:    timeUsed,
		Daypart:     daypart,
		DirectiveID: directiveID,
	}
}
