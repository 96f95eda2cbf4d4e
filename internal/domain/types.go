package domain

import (
	"fmt"
	"strings"
)

const (
	BoardSize  = 20
	ColorCount = 4
)

// Color is the content of a board field and the owner of a piece.
type Color int

const (
	ColorNone Color = iota
	Blue
	Yellow
	Red
	Green
)

var colorNames = map[Color]string{
	ColorNone: "NONE",
	Blue:      "BLUE",
	Yellow:    "YELLOW",
	Red:       "RED",
	Green:     "GREEN",
}

func (c Color) String() string {
	if name, ok := colorNames[c]; ok {
		return name
	}
	return "NONE"
}

// Valid reports whether c is one of the four playing colors.
func (c Color) Valid() bool {
	return c >= Blue && c <= Green
}

// Team returns the team playing this color. BLUE and RED belong to team ONE.
func (c Color) Team() Team {
	switch c {
	case Blue, Red:
		return TeamOne
	case Yellow, Green:
		return TeamTwo
	}
	return TeamNone
}

func ParseColor(raw string) (Color, error) {
	switch strings.ToUpper(raw) {
	case "NONE":
		return ColorNone, nil
	case "BLUE":
		return Blue, nil
	case "YELLOW":
		return Yellow, nil
	case "RED":
		return Red, nil
	case "GREEN":
		return Green, nil
	}
	return ColorNone, fmt.Errorf("unknown color %q", raw)
}

// Team is one of the two sides of a game.
type Team int

const (
	TeamNone Team = iota
	TeamOne
	TeamTwo
)

func (t Team) String() string {
	switch t {
	case TeamOne:
		return "ONE"
	case TeamTwo:
		return "TWO"
	}
	return "NONE"
}

func (t Team) Opponent() Team {
	switch t {
	case TeamOne:
		return TeamTwo
	case TeamTwo:
		return TeamOne
	}
	return TeamNone
}

func ParseTeam(raw string) (Team, error) {
	switch strings.ToUpper(raw) {
	case "NONE":
		return TeamNone, nil
	case "ONE":
		return TeamOne, nil
	case "TWO":
		return TeamTwo, nil
	}
	return TeamNone, fmt.Errorf("unknown team %q", raw)
}

// Rotation describes how a piece shape is turned before placement.
type Rotation int

const (
	RotationNone Rotation = iota
	RotationRight
	RotationMirror
	RotationLeft
)

func (r Rotation) String() string {
	switch r {
	case RotationNone:
		return "NONE"
	case RotationRight:
		return "RIGHT"
	case RotationMirror:
		return "MIRROR"
	case RotationLeft:
		return "LEFT"
	}
	return fmt.Sprintf("Rotation(%d)", int(r))
}

func (r Rotation) Valid() bool {
	return r >= RotationNone && r <= RotationLeft
}

func ParseRotation(raw string) (Rotation, error) {
	switch strings.ToUpper(raw) {
	case "NONE":
		return RotationNone, nil
	case "RIGHT":
		return RotationRight, nil
	case "MIRROR":
		return RotationMirror, nil
	case "LEFT":
		return RotationLeft, nil
	}
	return RotationNone, fmt.Errorf("unknown rotation %q", raw)
}

// Player is an entry of the game roster.
type Player struct {
	Team        Team   `json:"team"`
	DisplayName string `json:"displayName"`
}

// ScoreCause tells why a player got the score it got.
type ScoreCause string

const (
	CauseRegular       ScoreCause = "REGULAR"
	CauseLeft          ScoreCause = "LEFT"
	CauseRuleViolation ScoreCause = "RULE_VIOLATION"
	CauseSoftTimeout   ScoreCause = "SOFT_TIMEOUT"
	CauseHardTimeout   ScoreCause = "HARD_TIMEOUT"
	CauseUnknown       ScoreCause = "UNKNOWN"
)

type Score struct {
	Player Player     `json:"player"`
	Points int        `json:"points"`
	Cause  ScoreCause `json:"cause,omitempty"`
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(b []byte) error {
	parsed, err := ParseColor(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

func (t Team) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Team) UnmarshalText(b []byte) error {
	parsed, err := ParseTeam(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

func (r Rotation) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Rotation) UnmarshalText(b []byte) error {
	parsed, err := ParseRotation(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
