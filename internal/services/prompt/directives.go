package prompt

import (
	"crypto/sha256"
	"fmt"
	"math/big"

	"github.com/chronoverse/chronoverse/internal/models"
)

// Micro-directives inject one small constraint per poem so back-to-back
// requests in the same minute family do not read identically. Selection
// is salted with the request ID, keeping multi-process instances aligned.

var places = []string{
	"beach dune", "bus-stop bench", "rooftop edge", "diner booth",
	"ferry deck", "library", "alley loading dock", "parking lot median",
	"laundromat aisle", "under a tree", "train platform", "underpass",
	"porch steps", "fire escape", "office break room", "waiting room",
	"hospital corridor", "airport gate", "bodega aisle", "bridge",
	"drive-thru lane", "vacant lot", "motel balcony", "bus shelter",
	"subway car", "skate-park edge", "school bleachers", "cemetery path",
	"farmers-market", "river levee", "diner counter", "porch swing",
	"front stoop",
}

var colors = []string{
	"indigo", "ochre", "rust", "lilac", "cobalt", "sage", "marigold",
	"teal", "ivory", "amber", "coral", "mint", "mauve", "navy", "slate",
	"rose", "burgundy", "forest", "mustard",
}

var motionVerbs = []string{
	"drift", "swerve", "scuff", "shuffle", "jolt", "shiver", "sidle",
	"veer", "tilt", "stall", "skid", "skim", "glide", "creep", "amble",
	"lurch", "tremble", "quiver", "teeter", "wobble", "pivot", "dart",
	"slip", "bob",
}

var materials = []string{
	"tin", "denim", "plywood", "basalt", "vinyl", "rebar", "terracotta",
	"cork", "graphite",
}

var voices = []string{
	"second person ('you')",
	"first plural ('we')",
	"overheard dialogue",
	"note-to-self",
}

var forms = []string{
	"monostich (1 line)",
	"two lines with a colon in L1",
	"three-item list",
	"one-sentence poem (<=120 chars)",
	"one long line (<=180 chars)",
	"two sentences; second begins 'but'",
	"question-only (<=80 chars)",
	"abecedarian fragment (A,B)",
}

var lightWeather = []string{
	"sodium light", "neon wash", "dawn-blue", "rain mist", "heat shimmer",
	"fog halo", "flickering fluorescent", "overcast glare", "TV blue",
	"siren flash", "snow glow", "smoke haze",
}

type directive struct {
	id     string
	render func(salt string) string
}

var directives = []directive{
	{"place", func(salt string) string {
		return fmt.Sprintf("For this poem only: set it at a %s.", hashChoice(places, salt))
	}},
	{"color", func(salt string) string {
		return fmt.Sprintf("For this poem only: include exactly one color word: %s.", hashChoice(colors, salt))
	}},
	{"material", func(salt string) string {
		return fmt.Sprintf("For this poem only: include the word '%s' once.", hashChoice(materials, salt))
	}},
	{"motionverb", func(salt string) string {
		return fmt.Sprintf("For this poem only: use one present-tense motion verb: %s.", hashChoice(motionVerbs, salt))
	}},
	{"light", func(salt string) string {
		return fmt.Sprintf("For this poem only: mention the light/weather once (%s).", hashChoice(lightWeather, salt))
	}},
	{"voice", func(salt string) string {
		return fmt.Sprintf("For this poem only: write in %s.", hashChoice(voices, salt))
	}},
	{"form", func(salt string) string {
		return fmt.Sprintf("For this poem only: form = %s.", hashChoice(forms, salt))
	}},
}

// bucketOrder rotates which directive family is active per minute.
// Names without a mapping fall back to the full directive set, which
// leaves room to add banks without renumbering the rotation.
var bucketOrder = []string{
	"place", "sensory", "object", "motionverb", "light", "voice", "form",
	"material", "color", "geography", "figurative", "lens", "microbeat",
	"sound", "digit",
}

var bucketMap = map[string][]string{
	"place":      {"place"},
	"motionverb": {"motionverb"},
	"light":      {"light"},
	"voice":      {"voice"},
	"form":       {"form"},
	"material":   {"material"},
	"color":      {"color"},
}

// hashChoice deterministically picks one element of seq using a salt.
func hashChoice(seq []string, salt string) string {
	sum := sha256.Sum256([]byte(salt))
	h := new(big.Int).SetBytes(sum[:])
	idx := new(big.Int).Mod(h, big.NewInt(int64(len(seq)))).Int64()
	return seq[idx]
}

// pickDirective selects and renders one micro-directive for the given
// local minute of day. The salt makes the in-bucket choice stable for
// the same request ID.
func pickDirective(minuteOfDay int, _ models.Tone, salt string) (text, id string) {
	bucket := bucketOrder[minuteOfDay%len(bucketOrder)]

	var candidates []directive
	if ids, ok := bucketMap[bucket]; ok {
		for _, d := range directives {
			for _, id := range ids {
				if d.id == id {
					candidates = append(candidates, d)
				}
			}
		}
	}
	if len(candidates) == 0 {
		candidates = directives
	}

	var chosen directive
	if len(candidates) == 1 {
		chosen = candidates[0]
	} else {
		sum := sha256.Sum256([]byte(salt))
		h := new(big.Int).SetBytes(sum[:])
		idx := new(big.Int).Mod(h, big.NewInt(int64(len(candidates)))).Int64()
		chosen = candidates[idx]
	}

	return chosen.render(salt), chosen.id
}
