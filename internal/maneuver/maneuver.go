// Package maneuver turns a routing step into the next-turn banner: an
// arrow, the instruction text without markup and a distance in miles.
package maneuver

import (
	"fmt"
	"regexp"
	"strings"
)

// MetersPerMile is the conversion used for the banner distance.
const MetersPerMile = 1609.34

// RouteStep is one instruction unit of a computed route, as delivered by
// the routing provider.
type RouteStep struct {
	ManeuverHint    string  `json:"maneuver_hint"`
	InstructionHTML string  `json:"instruction_html"`
	DistanceMeters  float64 `json:"distance_meters"`
}

type Arrow int

const (
	Straight Arrow = iota
	Left
	Right
)

func (a Arrow) String() string {
	switch a {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "straight"
	}
}

// Glyph is the character drawn in the banner.
func (a Arrow) Glyph() string {
	switch a {
	case Left:
		return "←"
	case Right:
		return "→"
	default:
		return "↑"
	}
}

func (a Arrow) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Arrow) UnmarshalText(b []byte) error {
	switch string(b) {
	case "left":
		*a = Left
	case "right":
		*a = Right
	case "straight":
		*a = Straight
	default:
		return fmt.Errorf("unknown arrow %q", b)
	}
	return nil
}

// Display is the derived next-turn banner.
type Display struct {
	Arrow         Arrow  `json:"arrow" msgpack:"arrow"`
	Text          string `json:"text" msgpack:"text"`
	DistanceLabel string `json:"distance_label" msgpack:"distance_label"`
}

func (d Display) String() string {
	return fmt.Sprintf("%s %s — %s", d.Arrow.Glyph(), d.Text, d.DistanceLabel)
}

func Format(step RouteStep) Display {
	return Display{
		Arrow:         ArrowFor(step.ManeuverHint),
		Text:          StripTags(step.InstructionHTML),
		DistanceLabel: MilesLabel(step.DistanceMeters),
	}
}

// ArrowFor classifies a maneuver hint. "left" is checked before "right" and
// anything else is straight ahead.
func ArrowFor(hint string) Arrow {
	h := strings.ToLower(hint)
	switch {
	case strings.Contains(h, "left"):
		return Left
	case strings.Contains(h, "right"):
		return Right
	default:
		return Straight
	}
}

var reTag = regexp.MustCompile(`<[^>]+>`)

// StripTags removes every <...> span. Entities are left as they are.
func StripTags(html string) string {
	return reTag.ReplaceAllString(html, "")
}

func MilesLabel(meters float64) string {
	return fmt.Sprintf("%.2f mi", meters/MetersPerMile)
}
