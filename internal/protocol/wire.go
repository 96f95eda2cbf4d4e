package protocol

import "encoding/xml"

// Element names of top level frames.
const (
	elemJoin         = "join"
	elemJoinPrepared = "joinPrepared"
	elemJoined       = "joined"
	elemMemberJoined = "memberJoined"
	elemLeft         = "left"
	elemRoom         = "room"
	elemError        = "error"
)

// Values of the class attribute of <data>.
const (
	classWelcome     = "welcomeMessage"
	classMemento     = "memento"
	classMoveRequest = "moveRequest"
	classSetMove     = "sc.plugin2021.SetMove"
	classSkipMove    = "sc.plugin2021.SkipMove"
	classResult      = "result"
	classError       = "error"
)

type wireJoin struct {
	XMLName         xml.Name
	ReservationCode string `xml:"reservationCode,attr,omitempty"`
	GameType        string `xml:"gameType,attr,omitempty"`
}

type wireJoined struct {
	XMLName     xml.Name
	RoomID      string `xml:"roomId,attr"`
	Reservation string `xml:"reservation,attr,omitempty"`
}

// wireMember is shared by <memberJoined> and <left>.
type wireMember struct {
	XMLName     xml.Name
	RoomID      string `xml:"roomId,attr"`
	DisplayName string `xml:"displayName,attr,omitempty"`
}

type wireError struct {
	XMLName xml.Name
	Code    string `xml:"code,attr,omitempty"`
	Message string `xml:"message,attr,omitempty"`
}

type wireRoom struct {
	XMLName xml.Name
	RoomID  string    `xml:"roomId,attr"`
	Data    *wireData `xml:"data"`
}

// wireMoveBody is the payload of a set or skip move, used both inside a
// move request and as the body of a move response.
type wireMoveBody struct {
	Piece *wirePiece `xml:"piece"`
	Color string     `xml:"color,omitempty"`
}

type wireMove struct {
	Class string `xml:"class,attr"`
	wireMoveBody
}

type wireData struct {
	Class   string `xml:"class,attr"`
	Team    string `xml:"color,attr,omitempty"`
	Timeout string `xml:"timeout,attr,omitempty"`
	Code    string `xml:"code,attr,omitempty"`
	Message string `xml:"message,attr,omitempty"`

	Players []wirePlayer `xml:"player"`
	State   *wireState   `xml:"state"`
	Moves   []wireMove   `xml:"move"`
	wireMoveBody
	Scores []wireScore `xml:"score"`
	Winner *wirePlayer `xml:"winner"`
}

type wirePlayer struct {
	Team        string `xml:"team,attr"`
	DisplayName string `xml:"displayName,attr"`
}

type wireScore struct {
	Team        string `xml:"team,attr"`
	DisplayName string `xml:"displayName,attr"`
	Value       string `xml:"value,attr"`
	Cause       string `xml:"cause,attr,omitempty"`
}

type wireState struct {
	Turn              string           `xml:"turn,attr"`
	Round             string           `xml:"round,attr"`
	CurrentColorIndex string           `xml:"currentColorIndex,attr"`
	StartPiece        string           `xml:"startPiece,attr"`
	First             *wireStatePlayer `xml:"first"`
	Second            *wireStatePlayer `xml:"second"`
	StartColor        *string          `xml:"startColor"`
	StartTeam         *string          `xml:"startTeam"`
	OrderedColors     *wireColors      `xml:"orderedColors"`
	Board             *wireBoard       `xml:"board"`
	BlueShapes        *wireShapes      `xml:"blueShapes"`
	YellowShapes      *wireShapes      `xml:"yellowShapes"`
	RedShapes         *wireShapes      `xml:"redShapes"`
	GreenShapes       *wireShapes      `xml:"greenShapes"`
}

// wireStatePlayer is a roster entry inside a memento; the team is the
// <color> child.
type wireStatePlayer struct {
	DisplayName string `xml:"displayName,attr"`
	Team        string `xml:"color"`
}

type wireShapes struct {
	Shapes []string `xml:"shape"`
}

type wireColors struct {
	Colors []string `xml:"color"`
}

type wireBoard struct {
	Fields []wireField `xml:"field"`
}

type wireField struct {
	X       string `xml:"x,attr"`
	Y       string `xml:"y,attr"`
	Content string `xml:"content,attr"`
}

type wirePiece struct {
	Color    string        `xml:"color,attr"`
	Kind     string        `xml:"kind,attr"`
	Rotation string        `xml:"rotation,attr"`
	Flipped  string        `xml:"isFlipped,attr"`
	Position *wirePosition `xml:"position"`
}

type wirePosition struct {
	X string `xml:"x,attr"`
	Y string `xml:"y,attr"`
}
