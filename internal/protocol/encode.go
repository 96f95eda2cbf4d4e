package protocol

import (
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/iamasit07/blokus-client/internal/domain"
)

func name(local string) xml.Name {
	return xml.Name{Local: local}
}

func marshal(v any) ([]byte, error) {
	b, err := xml.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal frame: %w", err)
	}
	return b, nil
}

func room(gameID string, d *wireData) ([]byte, error) {
	return marshal(wireRoom{XMLName: name(elemRoom), RoomID: gameID, Data: d})
}

// Encode renders m in canonical form, so Encode(Decode(b)) == b for
// any b produced by Encode.
func Encode(m Message) ([]byte, error) {
	switch v := m.(type) {
	case Join:
		if v.Reservation != "" {
			return marshal(wireJoin{XMLName: name(elemJoinPrepared), ReservationCode: v.Reservation, GameType: v.GameType})
		}
		return marshal(wireJoin{XMLName: name(elemJoin), GameType: v.GameType})

	case Joined:
		return marshal(wireJoined{XMLName: name(elemJoined), RoomID: v.GameID, Reservation: v.Reservation})

	case MemberJoined:
		return marshal(wireMember{XMLName: name(elemMemberJoined), RoomID: v.GameID, DisplayName: v.DisplayName})

	case MemberLeft:
		return marshal(wireMember{XMLName: name(elemLeft), RoomID: v.GameID, DisplayName: v.DisplayName})

	case Welcome:
		d := &wireData{Class: classWelcome, Team: v.Team.String()}
		for _, p := range v.Players {
			d.Players = append(d.Players, encodePlayer(p))
		}
		return room(v.GameID, d)

	case StateUpdate:
		return room(v.GameID, &wireData{Class: classMemento, State: encodeState(v.Snapshot)})

	case MoveRequest:
		d := &wireData{Class: classMoveRequest}
		if v.TimeLimit > 0 {
			d.Timeout = strconv.FormatInt(v.TimeLimit.Milliseconds(), 10)
		}
		for _, m := range v.LegalMoves {
			class, body, err := encodeMoveBody(m)
			if err != nil {
				return nil, err
			}
			d.Moves = append(d.Moves, wireMove{Class: class, wireMoveBody: body})
		}
		return room(v.GameID, d)

	case MoveResponse:
		return EncodeMove(v.GameID, v.Move)

	case Result:
		d := &wireData{Class: classResult}
		for _, s := range v.Scores {
			d.Scores = append(d.Scores, wireScore{
				Team:        s.Player.Team.String(),
				DisplayName: s.Player.DisplayName,
				Value:       strconv.Itoa(s.Points),
				Cause:       string(s.Cause),
			})
		}
		if v.Winner != nil {
			w := encodePlayer(*v.Winner)
			d.Winner = &w
		}
		return room(v.GameID, d)

	case ServerError:
		if v.GameID == "" {
			return marshal(wireError{XMLName: name(elemError), Code: v.Code, Message: v.Text})
		}
		return room(v.GameID, &wireData{Class: classError, Code: v.Code, Message: v.Text})
	}

	return nil, fmt.Errorf("%w: cannot encode %T", domain.ErrUnknownMessageType, m)
}

// EncodeMove renders the move response frame for the given game.
func EncodeMove(gameID string, m domain.Move) ([]byte, error) {
	if gameID == "" {
		return nil, unencodable("move without game id")
	}
	class, body, err := encodeMoveBody(m)
	if err != nil {
		return nil, err
	}
	return room(gameID, &wireData{Class: class, wireMoveBody: body})
}

func encodeMoveBody(m domain.Move) (string, wireMoveBody, error) {
	switch m.Kind {
	case domain.SkipMove:
		if !m.Color.Valid() {
			return "", wireMoveBody{}, unencodable("skip move without color")
		}
		return classSkipMove, wireMoveBody{Color: m.Color.String()}, nil
	case domain.SetMove:
		p, err := encodePiece(m.Piece)
		if err != nil {
			return "", wireMoveBody{}, err
		}
		return classSetMove, wireMoveBody{Piece: p}, nil
	}
	return "", wireMoveBody{}, unencodable("unknown move kind %d", m.Kind)
}

func encodePiece(p domain.Piece) (*wirePiece, error) {
	if !p.Color.Valid() {
		return nil, unencodable("piece without color")
	}
	if _, ok := domain.ShapeByName(p.Kind); !ok {
		return nil, unencodable("unknown piece kind %q", p.Kind)
	}
	if !p.Rotation.Valid() {
		return nil, unencodable("rotation %d out of range", int(p.Rotation))
	}
	if !domain.IsInBounds(p.Position) {
		return nil, unencodable("position %s outside of the board", p.Position)
	}
	return &wirePiece{
		Color:    p.Color.String(),
		Kind:     p.Kind,
		Rotation: p.Rotation.String(),
		Flipped:  strconv.FormatBool(p.Flipped),
		Position: &wirePosition{X: strconv.Itoa(p.Position.X), Y: strconv.Itoa(p.Position.Y)},
	}, nil
}

func encodePlayer(p domain.Player) wirePlayer {
	return wirePlayer{Team: p.Team.String(), DisplayName: p.DisplayName}
}

func encodeState(s domain.Snapshot) *wireState {
	w := &wireState{
		Turn:              strconv.Itoa(s.Turn),
		Round:             strconv.Itoa(s.Round),
		CurrentColorIndex: strconv.Itoa(s.CurrentColorIndex),
		StartPiece:        s.StartPiece,
		OrderedColors:     &wireColors{},
		Board:             &wireBoard{},
	}
	w.First = encodeStatePlayer(s.First)
	w.Second = encodeStatePlayer(s.Second)
	if s.StartColor != domain.ColorNone {
		c := s.StartColor.String()
		w.StartColor = &c
	}
	if s.StartTeam != domain.TeamNone {
		t := s.StartTeam.String()
		w.StartTeam = &t
	}
	for _, c := range s.OrderedColors {
		w.OrderedColors.Colors = append(w.OrderedColors.Colors, c.String())
	}
	w.BlueShapes = encodeShapes(s.RemainingShapes, domain.Blue)
	w.YellowShapes = encodeShapes(s.RemainingShapes, domain.Yellow)
	w.RedShapes = encodeShapes(s.RemainingShapes, domain.Red)
	w.GreenShapes = encodeShapes(s.RemainingShapes, domain.Green)
	for y := 0; y < domain.BoardSize; y++ {
		for x := 0; x < domain.BoardSize; x++ {
			c := s.Board[y][x]
			if c == domain.ColorNone {
				continue
			}
			w.Board.Fields = append(w.Board.Fields, wireField{
				X:       strconv.Itoa(x),
				Y:       strconv.Itoa(y),
				Content: c.String(),
			})
		}
	}
	return w
}

func encodeStatePlayer(p *domain.Player) *wireStatePlayer {
	if p == nil {
		return nil
	}
	return &wireStatePlayer{DisplayName: p.DisplayName, Team: p.Team.String()}
}

func encodeShapes(remaining map[domain.Color][]string, c domain.Color) *wireShapes {
	shapes, ok := remaining[c]
	if !ok {
		return nil
	}
	return &wireShapes{Shapes: append([]string(nil), shapes...)}
}
