package protocol

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

func malformed(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrMalformedMessage, err)
}

func schemaErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrSchemaViolation, fmt.Sprintf(format, args...))
}

func unencodable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrUnencodableMove, fmt.Sprintf(format, args...))
}

// Decode turns one complete frame into a Message.
func Decode(frame []byte) (Message, error) {
	root, err := rootElement(frame)
	if err != nil {
		return nil, err
	}

	switch root {
	case elemJoin, elemJoinPrepared:
		var w wireJoin
		if err := unmarshal(frame, &w); err != nil {
			return nil, err
		}
		if root == elemJoinPrepared && w.ReservationCode == "" {
			return nil, schemaErr("joinPrepared without reservationCode")
		}
		return Join{GameType: w.GameType, Reservation: w.ReservationCode}, nil

	case elemJoined:
		var w wireJoined
		if err := unmarshal(frame, &w); err != nil {
			return nil, err
		}
		if w.RoomID == "" {
			return nil, schemaErr("joined without roomId")
		}
		return Joined{GameID: w.RoomID, Reservation: w.Reservation}, nil

	case elemMemberJoined, elemLeft:
		var w wireMember
		if err := unmarshal(frame, &w); err != nil {
			return nil, err
		}
		if w.RoomID == "" {
			return nil, schemaErr("%s without roomId", root)
		}
		if root == elemLeft {
			return MemberLeft{GameID: w.RoomID, DisplayName: w.DisplayName}, nil
		}
		return MemberJoined{GameID: w.RoomID, DisplayName: w.DisplayName}, nil

	case elemError:
		var w wireError
		if err := unmarshal(frame, &w); err != nil {
			return nil, err
		}
		return ServerError{Code: w.Code, Text: w.Message}, nil

	case elemRoom:
		var w wireRoom
		if err := unmarshal(frame, &w); err != nil {
			return nil, err
		}
		if w.RoomID == "" {
			return nil, schemaErr("room without roomId")
		}
		if w.Data == nil {
			return nil, schemaErr("room %s without data", w.RoomID)
		}
		return decodeData(w.RoomID, w.Data)
	}

	return nil, fmt.Errorf("%w: <%s>", domain.ErrUnknownMessageType, root)
}

// rootElement checks that frame is exactly one well-formed element and
// returns its name.
func rootElement(frame []byte) (string, error) {
	dec := xml.NewDecoder(bytes.NewReader(frame))
	root := ""
	depth := 0
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", malformed(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if depth == 0 {
				if root != "" {
					return "", malformed(fmt.Errorf("second root element <%s>", t.Name.Local))
				}
				root = t.Name.Local
			}
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			if depth == 0 && len(bytes.TrimSpace(t)) > 0 {
				return "", malformed(fmt.Errorf("text outside of root element"))
			}
		}
	}
	if root == "" {
		return "", malformed(fmt.Errorf("no element in frame"))
	}
	if depth != 0 {
		return "", malformed(fmt.Errorf("unclosed element <%s>", root))
	}
	return root, nil
}

func unmarshal(frame []byte, v any) error {
	if err := xml.Unmarshal(frame, v); err != nil {
		return schemaErr("%v", err)
	}
	return nil
}

func decodeData(roomID string, d *wireData) (Message, error) {
	switch d.Class {
	case classWelcome:
		team, err := parseSide(d.Team)
		if err != nil {
			return nil, schemaErr("welcome color: %v", err)
		}
		// the roster may instead arrive with the first memento
		if len(d.Players) == 0 {
			return Welcome{GameID: roomID, Team: team}, nil
		}
		if len(d.Players) != 2 {
			return nil, schemaErr("welcome roster has %d players, want 2", len(d.Players))
		}
		players := make([]domain.Player, 0, len(d.Players))
		for _, wp := range d.Players {
			p, err := decodePlayer(wp)
			if err != nil {
				return nil, err
			}
			players = append(players, p)
		}
		if players[0].Team == players[1].Team {
			return nil, schemaErr("welcome roster has two players of team %s", players[0].Team)
		}
		return Welcome{GameID: roomID, Team: team, Players: players}, nil

	case classMemento:
		if d.State == nil {
			return nil, schemaErr("memento without state")
		}
		snapshot, err := decodeState(d.State)
		if err != nil {
			return nil, err
		}
		return StateUpdate{GameID: roomID, Snapshot: snapshot}, nil

	case classMoveRequest:
		var limit time.Duration
		if d.Timeout != "" {
			ms, err := strconv.Atoi(d.Timeout)
			if err != nil || ms < 0 {
				return nil, schemaErr("moveRequest timeout %q", d.Timeout)
			}
			limit = time.Duration(ms) * time.Millisecond
		}
		var moves []domain.Move
		for _, wm := range d.Moves {
			m, err := decodeMove(wm.Class, wm.wireMoveBody)
			if err != nil {
				return nil, err
			}
			moves = append(moves, m)
		}
		return MoveRequest{GameID: roomID, LegalMoves: moves, TimeLimit: limit}, nil

	case classSetMove, classSkipMove:
		m, err := decodeMove(d.Class, d.wireMoveBody)
		if err != nil {
			return nil, err
		}
		return MoveResponse{GameID: roomID, Move: m}, nil

	case classResult:
		var scores []domain.Score
		for _, ws := range d.Scores {
			s, err := decodeScore(ws)
			if err != nil {
				return nil, err
			}
			scores = append(scores, s)
		}
		var winner *domain.Player
		if d.Winner != nil {
			p, err := decodePlayer(*d.Winner)
			if err != nil {
				return nil, err
			}
			winner = &p
		}
		return Result{GameID: roomID, Scores: scores, Winner: winner}, nil

	case classError:
		return ServerError{GameID: roomID, Code: d.Code, Text: d.Message}, nil
	}

	return nil, fmt.Errorf("%w: data class %q", domain.ErrUnknownMessageType, d.Class)
}

// parseSide accepts only the two playing teams.
func parseSide(raw string) (domain.Team, error) {
	team, err := domain.ParseTeam(raw)
	if err != nil {
		return domain.TeamNone, err
	}
	if team == domain.TeamNone {
		return domain.TeamNone, fmt.Errorf("team NONE is not a side")
	}
	return team, nil
}

func decodePlayer(w wirePlayer) (domain.Player, error) {
	team, err := parseSide(w.Team)
	if err != nil {
		return domain.Player{}, schemaErr("player %q: %v", w.DisplayName, err)
	}
	return domain.Player{Team: team, DisplayName: w.DisplayName}, nil
}

func decodeScore(w wireScore) (domain.Score, error) {
	p, err := decodePlayer(wirePlayer{Team: w.Team, DisplayName: w.DisplayName})
	if err != nil {
		return domain.Score{}, err
	}
	points, err := strconv.Atoi(w.Value)
	if err != nil {
		return domain.Score{}, schemaErr("score value %q", w.Value)
	}
	return domain.Score{Player: p, Points: points, Cause: domain.ScoreCause(w.Cause)}, nil
}

func atoiAttr(name, raw string) (int, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, schemaErr("%s %q is not an integer", name, raw)
	}
	if n < 0 {
		return 0, schemaErr("%s %d is negative", name, n)
	}
	return n, nil
}

func decodeState(w *wireState) (domain.Snapshot, error) {
	var s domain.Snapshot
	var err error
	if s.Turn, err = atoiAttr("turn", w.Turn); err != nil {
		return s, err
	}
	if s.Round, err = atoiAttr("round", w.Round); err != nil {
		return s, err
	}
	if s.CurrentColorIndex, err = atoiAttr("currentColorIndex", w.CurrentColorIndex); err != nil {
		return s, err
	}
	if _, ok := domain.ShapeByName(w.StartPiece); !ok {
		return s, schemaErr("unknown startPiece %q", w.StartPiece)
	}
	s.StartPiece = w.StartPiece

	if w.OrderedColors == nil {
		return s, schemaErr("state without orderedColors")
	}
	for _, raw := range w.OrderedColors.Colors {
		c, err := domain.ParseColor(raw)
		if err != nil || c == domain.ColorNone {
			return s, schemaErr("ordered color %q", raw)
		}
		s.OrderedColors = append(s.OrderedColors, c)
	}
	if len(s.OrderedColors) > 0 && s.CurrentColorIndex >= len(s.OrderedColors) {
		return s, schemaErr("currentColorIndex %d out of %d colors", s.CurrentColorIndex, len(s.OrderedColors))
	}

	if s.First, err = decodeStatePlayer("first", w.First); err != nil {
		return s, err
	}
	if s.Second, err = decodeStatePlayer("second", w.Second); err != nil {
		return s, err
	}
	if s.First != nil && s.Second != nil && s.First.Team == s.Second.Team {
		return s, schemaErr("first and second player are both team %s", s.First.Team)
	}
	if w.StartColor != nil {
		c, err := domain.ParseColor(*w.StartColor)
		if err != nil || !c.Valid() {
			return s, schemaErr("startColor %q", *w.StartColor)
		}
		s.StartColor = c
	}
	if w.StartTeam != nil {
		t, err := parseSide(*w.StartTeam)
		if err != nil {
			return s, schemaErr("startTeam: %v", err)
		}
		s.StartTeam = t
	}
	for _, cs := range stateShapes(w) {
		if cs.list == nil {
			continue
		}
		names := make([]string, 0, len(cs.list.Shapes))
		for _, raw := range cs.list.Shapes {
			shape, ok := domain.ShapeByName(raw)
			if !ok {
				return s, schemaErr("unknown %s shape %q", cs.color, raw)
			}
			names = append(names, shape.Name)
		}
		if s.RemainingShapes == nil {
			s.RemainingShapes = make(map[domain.Color][]string)
		}
		s.RemainingShapes[cs.color] = names
	}

	if w.Board == nil {
		return s, schemaErr("state without board")
	}
	for _, f := range w.Board.Fields {
		x, err := atoiAttr("field x", f.X)
		if err != nil {
			return s, err
		}
		y, err := atoiAttr("field y", f.Y)
		if err != nil {
			return s, err
		}
		pos := domain.Vec2{X: x, Y: y}
		if !domain.IsInBounds(pos) {
			return s, schemaErr("field %s outside of the board", pos)
		}
		c, err := domain.ParseColor(f.Content)
		if err != nil {
			return s, schemaErr("field %s: %v", pos, err)
		}
		s.Board.Set(pos, c)
	}
	return s, nil
}

type colorShapes struct {
	color domain.Color
	list  *wireShapes
}

// stateShapes pairs each color with its shape list field, in turn order.
func stateShapes(w *wireState) []colorShapes {
	return []colorShapes{
		{domain.Blue, w.BlueShapes},
		{domain.Yellow, w.YellowShapes},
		{domain.Red, w.RedShapes},
		{domain.Green, w.GreenShapes},
	}
}

func decodeStatePlayer(elem string, w *wireStatePlayer) (*domain.Player, error) {
	if w == nil {
		return nil, nil
	}
	team, err := parseSide(w.Team)
	if err != nil {
		return nil, schemaErr("%s player %q: %v", elem, w.DisplayName, err)
	}
	return &domain.Player{Team: team, DisplayName: w.DisplayName}, nil
}

func decodeMove(class string, body wireMoveBody) (domain.Move, error) {
	switch class {
	case classSetMove:
		if body.Piece == nil {
			return domain.Move{}, schemaErr("set move without piece")
		}
		p, err := decodePiece(body.Piece)
		if err != nil {
			return domain.Move{}, err
		}
		return domain.NewSetMove(p), nil
	case classSkipMove:
		c, err := domain.ParseColor(body.Color)
		if err != nil || c == domain.ColorNone {
			return domain.Move{}, schemaErr("skip move color %q", body.Color)
		}
		return domain.NewSkipMove(c), nil
	}
	return domain.Move{}, schemaErr("unknown move class %q", class)
}

func decodePiece(w *wirePiece) (domain.Piece, error) {
	var p domain.Piece
	c, err := domain.ParseColor(w.Color)
	if err != nil || c == domain.ColorNone {
		return p, schemaErr("piece color %q", w.Color)
	}
	if _, ok := domain.ShapeByName(w.Kind); !ok {
		return p, schemaErr("unknown piece kind %q", w.Kind)
	}
	rotation, err := domain.ParseRotation(w.Rotation)
	if err != nil {
		return p, schemaErr("piece rotation: %v", err)
	}
	flipped, err := strconv.ParseBool(w.Flipped)
	if err != nil {
		return p, schemaErr("piece isFlipped %q", w.Flipped)
	}
	if w.Position == nil {
		return p, schemaErr("piece without position")
	}
	x, err := atoiAttr("position x", w.Position.X)
	if err != nil {
		return p, err
	}
	y, err := atoiAttr("position y", w.Position.Y)
	if err != nil {
		return p, err
	}
	pos := domain.Vec2{X: x, Y: y}
	if !domain.IsInBounds(pos) {
		return p, schemaErr("piece position %s outside of the board", pos)
	}

	p.Color = c
	p.Kind = w.Kind
	p.Rotation = rotation
	p.Flipped = flipped
	p.Position = pos
	return p, nil
}
