package domain

import "fmt"

// Vec2 is a board position. x grows to the right, y grows downwards.
type Vec2 struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (v Vec2) String() string {
	return fmt.Sprintf("(%d, %d)", v.X, v.Y)
}

func IsInBounds(v Vec2) bool {
	return v.X >= 0 && v.Y >= 0 && v.X < BoardSize && v.Y < BoardSize
}

// Board is the 20x20 grid of fields, indexed [y][x].
// It is a value type so copying a snapshot copies the board.
type Board [BoardSize][BoardSize]Color

func NewBoard() Board {
	return Board{}
}

func (b *Board) Get(v Vec2) Color {
	if !IsInBounds(v) {
		return ColorNone
	}
	return b[v.Y][v.X]
}

func (b *Board) Set(v Vec2, c Color) {
	if IsInBounds(v) {
		b[v.Y][v.X] = c
	}
}

// CountObstructed returns the number of occupied fields.
func (b *Board) CountObstructed() int {
	count := 0
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if b[y][x] != ColorNone {
				count++
			}
		}
	}
	return count
}

// Snapshot is the server's view of the game after a committed move.
// Fields the server may leave out are zero: nil players, ColorNone,
// TeamNone, and no entry in RemainingShapes.
type Snapshot struct {
	Turn              int     `json:"turn"`
	Round             int     `json:"round"`
	CurrentColorIndex int     `json:"currentColorIndex"`
	OrderedColors     []Color `json:"orderedColors"`
	StartPiece        string  `json:"startPiece"`
	StartColor        Color   `json:"startColor,omitempty"`
	StartTeam         Team    `json:"startTeam,omitempty"`
	First             *Player `json:"first,omitempty"`
	Second            *Player `json:"second,omitempty"`

	// RemainingShapes lists the shape names each color has not placed yet.
	RemainingShapes map[Color][]string `json:"remainingShapes,omitempty"`

	Board Board `json:"-"`
}

// CurrentColor returns ColorNone once every color has left the turn queue.
func (s Snapshot) CurrentColor() Color {
	if s.CurrentColorIndex < 0 || s.CurrentColorIndex >= len(s.OrderedColors) {
		return ColorNone
	}
	return s.OrderedColors[s.CurrentColorIndex]
}

func (s Snapshot) CurrentTeam() Team {
	return s.CurrentColor().Team()
}

// Roster returns the two players when the snapshot carries both.
func (s Snapshot) Roster() ([]Player, bool) {
	if s.First == nil || s.Second == nil {
		return nil, false
	}
	return []Player{*s.First, *s.Second}, true
}

// HasShape reports whether c still holds the named shape. A snapshot
// without shape lists for c reports true.
func (s Snapshot) HasShape(c Color, shape string) bool {
	shapes, ok := s.RemainingShapes[c]
	if !ok {
		return true
	}
	for _, name := range shapes {
		if name == shape {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	c := s
	if s.OrderedColors != nil {
		c.OrderedColors = make([]Color, len(s.OrderedColors))
		copy(c.OrderedColors, s.OrderedColors)
	}
	if s.First != nil {
		p := *s.First
		c.First = &p
	}
	if s.Second != nil {
		p := *s.Second
		c.Second = &p
	}
	if s.RemainingShapes != nil {
		c.RemainingShapes = make(map[Color][]string, len(s.RemainingShapes))
		for color, shapes := range s.RemainingShapes {
			c.RemainingShapes[color] = append([]string{}, shapes...)
		}
	}
	return c
}

var fieldLetters = map[Color]byte{
	ColorNone: '.',
	Blue:      'B',
	Yellow:    'Y',
	Red:       'R',
	Green:     'G',
}

// Rows renders the board one string per row, '.' for empty fields.
func (b *Board) Rows() []string {
	rows := make([]string, BoardSize)
	line := make([]byte, BoardSize)
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			line[x] = fieldLetters[b[y][x]]
		}
		rows[y] = string(line)
	}
	return rows
}

// BoardFromRows parses the output of Rows.
func BoardFromRows(rows []string) (Board, error) {
	var b Board
	if len(rows) != BoardSize {
		return b, fmt.Errorf("board has %d rows, want %d", len(rows), BoardSize)
	}
	for y, row := range rows {
		if len(row) != BoardSize {
			return b, fmt.Errorf("board row %d has %d fields, want %d", y, len(row), BoardSize)
		}
		for x := 0; x < BoardSize; x++ {
			c, ok := letterFields[row[x]]
			if !ok {
				return b, fmt.Errorf("board row %d: unknown field %q", y, row[x])
			}
			b[y][x] = c
		}
	}
	return b, nil
}

var letterFields = map[byte]Color{
	'.': ColorNone,
	'B': Blue,
	'Y': Yellow,
	'R': Red,
	'G': Green,
}
