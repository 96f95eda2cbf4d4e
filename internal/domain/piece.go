package domain

import "fmt"

// Shape is one of the 21 Blokus piece shapes.
type Shape struct {
	Name    string
	Squares int
}

var PieceShapes = []Shape{
	{"MONO", 1},
	{"DOMINO", 2},
	{"TRIO_L", 3},
	{"TRIO_I", 3},
	{"TETRO_O", 4},
	{"TETRO_T", 4},
	{"TETRO_I", 4},
	{"TETRO_L", 4},
	{"TETRO_Z", 4},
	{"PENTO_L", 5},
	{"PENTO_T", 5},
	{"PENTO_V", 5},
	{"PENTO_S", 5},
	{"PENTO_Z", 5},
	{"PENTO_I", 5},
	{"PENTO_P", 5},
	{"PENTO_W", 5},
	{"PENTO_U", 5},
	{"PENTO_R", 5},
	{"PENTO_X", 5},
	{"PENTO_Y", 5},
}

var shapesByName = func() map[string]Shape {
	m := make(map[string]Shape, len(PieceShapes))
	for _, s := range PieceShapes {
		m[s.Name] = s
	}
	return m
}()

func ShapeByName(name string) (Shape, bool) {
	s, ok := shapesByName[name]
	return s, ok
}

// Piece is a shape placed with a color, a transformation and the
// top left corner of its bounding box.
type Piece struct {
	Kind     string   `json:"kind"`
	Rotation Rotation `json:"rotation"`
	Flipped  bool     `json:"isFlipped"`
	Color    Color    `json:"color"`
	Position Vec2     `json:"position"`
}

type MoveKind int

const (
	SetMove MoveKind = iota
	SkipMove
)

// Move is either a set move placing a piece or a skip move for a color.
// Moves are comparable with ==.
type Move struct {
	Kind  MoveKind `json:"kind"`
	Color Color    `json:"color"`
	Piece Piece    `json:"piece"`
}

func NewSetMove(p Piece) Move {
	return Move{Kind: SetMove, Color: p.Color, Piece: p}
}

func NewSkipMove(c Color) Move {
	return Move{Kind: SkipMove, Color: c}
}

func (m Move) IsSkip() bool {
	return m.Kind == SkipMove
}

func (m Move) String() string {
	if m.Kind == SkipMove {
		return fmt.Sprintf("Skip(%s)", m.Color)
	}
	p := m.Piece
	return fmt.Sprintf("Set(%s %s %s flipped=%t at %s)", p.Color, p.Kind, p.Rotation, p.Flipped, p.Position)
}

// Squares returns the number of board fields the move covers.
func (m Move) Squares() int {
	if m.Kind == SkipMove {
		return 0
	}
	s, _ := ShapeByName(m.Piece.Kind)
	return s.Squares
}

// ContainsMove reports whether m is an element of moves.
func ContainsMove(moves []Move, m Move) bool {
	for _, candidate := range moves {
		if candidate == m {
			return true
		}
	}
	return false
}
