package protocol

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/iamasit07/blokus-client/internal/domain"
)

func samplePiece() domain.Piece {
	return domain.Piece{
		Kind:     "PENTO_Y",
		Rotation: domain.RotationRight,
		Color:    domain.Blue,
		Position: domain.Vec2{X: 0, Y: 0},
	}
}

func sampleSnapshot() domain.Snapshot {
	s := domain.Snapshot{
		Turn:              3,
		Round:             1,
		CurrentColorIndex: 3,
		OrderedColors:     []domain.Color{domain.Blue, domain.Yellow, domain.Red, domain.Green},
		StartPiece:        "PENTO_Y",
		Board:             domain.NewBoard(),
	}
	s.Board.Set(domain.Vec2{X: 0, Y: 0}, domain.Blue)
	s.Board.Set(domain.Vec2{X: 19, Y: 0}, domain.Yellow)
	s.Board.Set(domain.Vec2{X: 19, Y: 19}, domain.Red)
	return s
}

// fullSnapshot carries every optional part of a memento.
func fullSnapshot() domain.Snapshot {
	s := sampleSnapshot()
	s.First = &domain.Player{Team: domain.TeamOne, DisplayName: "Alice"}
	s.Second = &domain.Player{Team: domain.TeamTwo, DisplayName: "Bob"}
	s.StartColor = domain.Blue
	s.StartTeam = domain.TeamOne
	s.RemainingShapes = map[domain.Color][]string{
		domain.Blue:   {"MONO", "DOMINO"},
		domain.Yellow: {},
		domain.Green:  {"PENTO_X"},
	}
	return s
}

func sampleMessages() []Message {
	alice := domain.Player{Team: domain.TeamOne, DisplayName: "Alice"}
	bob := domain.Player{Team: domain.TeamTwo, DisplayName: "Bob"}
	return []Message{
		Join{GameType: DefaultGameType},
		Join{Reservation: "r-42"},
		Joined{GameID: "g1", Reservation: "r-42"},
		Joined{GameID: "g1"},
		MemberJoined{GameID: "g1", DisplayName: "Bob"},
		MemberLeft{GameID: "g1", DisplayName: "Bob"},
		Welcome{GameID: "g1", Team: domain.TeamOne, Players: []domain.Player{alice, bob}},
		Welcome{GameID: "g1", Team: domain.TeamTwo},
		StateUpdate{GameID: "g1", Snapshot: sampleSnapshot()},
		StateUpdate{GameID: "g1", Snapshot: fullSnapshot()},
		MoveRequest{
			GameID:     "g1",
			LegalMoves: []domain.Move{domain.NewSetMove(samplePiece()), domain.NewSkipMove(domain.Blue)},
			TimeLimit:  5 * time.Second,
		},
		MoveRequest{GameID: "g1"},
		MoveResponse{GameID: "g1", Move: domain.NewSetMove(samplePiece())},
		MoveResponse{GameID: "g1", Move: domain.NewSkipMove(domain.Green)},
		Result{
			GameID: "g1",
			Scores: []domain.Score{
				{Player: alice, Points: 10, Cause: domain.CauseRegular},
				{Player: bob, Points: 5, Cause: domain.CauseSoftTimeout},
			},
			Winner: &alice,
		},
		Result{GameID: "g1", Scores: []domain.Score{{Player: alice, Points: 7}, {Player: bob, Points: 7}}},
		ServerError{GameID: "g1", Code: "E1", Text: "rule violation"},
		ServerError{Text: "unknown reservation"},
	}
}

func TestRoundTripAllVariants(t *testing.T) {
	for _, m := range sampleMessages() {
		b, err := Encode(m)
		if err != nil {
			t.Fatalf("encode %#v: %v", m, err)
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("decode %s: %v", b, err)
		}
		if !reflect.DeepEqual(got, m) {
			t.Fatalf("round trip mismatch\n got %#v\nwant %#v", got, m)
		}
		again, err := Encode(got)
		if err != nil {
			t.Fatalf("re-encode %#v: %v", got, err)
		}
		if !bytes.Equal(again, b) {
			t.Fatalf("re-encoded bytes differ\n got %s\nwant %s", again, b)
		}
	}
}

func TestCanonicalServerFrames(t *testing.T) {
	frames := []string{
		`<joined roomId="g1" reservation="r1"></joined>`,
		`<memberJoined roomId="g1" displayName="Bob"></memberJoined>`,
		`<left roomId="g1"></left>`,
		`<room roomId="g1"><data class="welcomeMessage" color="TWO"><player team="ONE" displayName="Alice"></player><player team="TWO" displayName="Bob"></player></data></room>`,
		`<room roomId="g1"><data class="welcomeMessage" color="ONE"></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="PENTO_Y"><first displayName="Alice"><color>ONE</color></first><second displayName="Bob"><color>TWO</color></second><startColor>BLUE</startColor><startTeam>ONE</startTeam><orderedColors><color>BLUE</color><color>YELLOW</color><color>RED</color><color>GREEN</color></orderedColors><board><field x="3" y="0" content="RED"></field></board><blueShapes><shape>MONO</shape><shape>DOMINO</shape></blueShapes><yellowShapes></yellowShapes><redShapes><shape>PENTO_Y</shape></redShapes><greenShapes></greenShapes></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="PENTO_Y"><orderedColors><color>BLUE</color><color>YELLOW</color><color>RED</color><color>GREEN</color></orderedColors><board></board></state></data></room>`,
		`<room roomId="g1"><data class="moveRequest" timeout="2000"><move class="sc.plugin2021.SetMove"><piece color="BLUE" kind="MONO" rotation="NONE" isFlipped="false"><position x="0" y="0"></position></piece></move><move class="sc.plugin2021.SkipMove"><color>BLUE</color></move></data></room>`,
		`<room roomId="g1"><data class="result"><score team="ONE" displayName="Alice" value="10" cause="REGULAR"></score><score team="TWO" displayName="Bob" value="5" cause="REGULAR"></score><winner team="ONE" displayName="Alice"></winner></data></room>`,
		`<room roomId="g1"><data class="error" code="E1" message="boom"></data></room>`,
		`<error message="no such reservation"></error>`,
	}
	for _, f := range frames {
		m, err := Decode([]byte(f))
		if err != nil {
			t.Fatalf("decode %s: %v", f, err)
		}
		b, err := Encode(m)
		if err != nil {
			t.Fatalf("encode %#v: %v", m, err)
		}
		if string(b) != f {
			t.Fatalf("not byte equivalent\n got %s\nwant %s", b, f)
		}
	}
}

func TestDecodeAcceptsSelfClosingTags(t *testing.T) {
	m, err := Decode([]byte(`<?xml version="1.0" encoding="UTF-8"?><joined roomId="g7"/>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if m != (Joined{GameID: "g7"}) {
		t.Fatalf("got %#v", m)
	}

	m, err = Decode([]byte(`<room roomId="g7"><data class="moveRequest" timeout="1500"/></room>`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	req, ok := m.(MoveRequest)
	if !ok {
		t.Fatalf("got %T, want MoveRequest", m)
	}
	if req.TimeLimit != 1500*time.Millisecond || len(req.LegalMoves) != 0 {
		t.Fatalf("unexpected request %#v", req)
	}
}

func TestDecodeMalformed(t *testing.T) {
	frames := []string{
		`not xml at all`,
		`<room roomId="g1"><data class="memento">`,
		`<joined roomId="g1"></left>`,
		`<joined roomId="g1"/><joined roomId="g2"/>`,
		`<joined roomId="g1"/> trailing`,
		``,
	}
	for _, f := range frames {
		_, err := Decode([]byte(f))
		if !errors.Is(err, domain.ErrMalformedMessage) {
			t.Fatalf("decode %q: got %v, want ErrMalformedMessage", f, err)
		}
	}
}

func TestDecodeUnknownMessageType(t *testing.T) {
	frames := []string{
		`<observe roomId="g1"/>`,
		`<room roomId="g1"><data class="sc.framework.plugins.protocol.Bogus"/></room>`,
	}
	for _, f := range frames {
		_, err := Decode([]byte(f))
		if !errors.Is(err, domain.ErrUnknownMessageType) {
			t.Fatalf("decode %q: got %v, want ErrUnknownMessageType", f, err)
		}
	}
}

func TestDecodeSchemaViolation(t *testing.T) {
	frames := []string{
		`<joined/>`,
		`<joinPrepared/>`,
		`<room><data class="memento"/></room>`,
		`<room roomId="g1"/>`,
		`<room roomId="g1"><data class="welcomeMessage" color="ONE"><player team="ONE" displayName="A"/></data></room>`,
		`<room roomId="g1"><data class="welcomeMessage" color="ONE"><player team="ONE" displayName="A"/><player team="ONE" displayName="B"/></data></room>`,
		`<room roomId="g1"><data class="welcomeMessage" color="PURPLE"><player team="ONE" displayName="A"/><player team="TWO" displayName="B"/></data></room>`,
		`<room roomId="g1"><data class="memento"/></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="PENTO_Y"><orderedColors/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="x" round="1" currentColorIndex="0" startPiece="PENTO_Y"><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="4" startPiece="PENTO_Y"><orderedColors><color>BLUE</color></orderedColors><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="HEXO"><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><orderedColors/><board><field x="20" y="0" content="RED"/></board></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><startColor>NONE</startColor><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><startTeam>NONE</startTeam><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><orderedColors/><board/><redShapes><shape>HEXO</shape></redShapes></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><first displayName="A"><color>ONE</color></first><second displayName="B"><color>ONE</color></second><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="memento"><state turn="0" round="1" currentColorIndex="0" startPiece="MONO"><first displayName="A"><color>BLUE</color></first><orderedColors/><board/></state></data></room>`,
		`<room roomId="g1"><data class="moveRequest" timeout="soon"/></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SetMove"/></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SkipMove"><color>NONE</color></move></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SetMove"><piece color="RED" kind="MONO" rotation="NONE" isFlipped="false"><position x="25" y="0"/></piece></move></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SetMove"><piece color="RED" kind="HEXO" rotation="NONE" isFlipped="false"><position x="0" y="0"/></piece></move></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SetMove"><piece color="RED" kind="MONO" rotation="SIDEWAYS" isFlipped="false"><position x="0" y="0"/></piece></move></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.SetMove"><piece color="RED" kind="MONO" rotation="NONE" isFlipped="maybe"><position x="0" y="0"/></piece></move></data></room>`,
		`<room roomId="g1"><data class="moveRequest"><move class="sc.plugin2021.JumpMove"/></data></room>`,
		`<room roomId="g1"><data class="result"><score team="ONE" displayName="A" value="ten"/></data></room>`,
	}
	for _, f := range frames {
		_, err := Decode([]byte(f))
		if !errors.Is(err, domain.ErrSchemaViolation) {
			t.Fatalf("decode %q: got %v, want ErrSchemaViolation", f, err)
		}
	}
}

func TestEncodeMoveCanonical(t *testing.T) {
	b, err := EncodeMove("g1", domain.NewSetMove(samplePiece()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `<room roomId="g1"><data class="sc.plugin2021.SetMove"><piece color="BLUE" kind="PENTO_Y" rotation="RIGHT" isFlipped="false"><position x="0" y="0"></position></piece></data></room>`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}

	b, err = EncodeMove("g1", domain.NewSkipMove(domain.Red))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want = `<room roomId="g1"><data class="sc.plugin2021.SkipMove"><color>RED</color></data></room>`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}
}

func TestEncodeMoveUnencodable(t *testing.T) {
	outside := samplePiece()
	outside.Position = domain.Vec2{X: 20, Y: 3}
	negative := samplePiece()
	negative.Position = domain.Vec2{X: 0, Y: -1}
	unknownKind := samplePiece()
	unknownKind.Kind = "HEXO"
	badRotation := samplePiece()
	badRotation.Rotation = domain.Rotation(7)
	noColor := samplePiece()
	noColor.Color = domain.ColorNone

	moves := []domain.Move{
		domain.NewSetMove(outside),
		domain.NewSetMove(negative),
		domain.NewSetMove(unknownKind),
		domain.NewSetMove(badRotation),
		domain.NewSetMove(noColor),
		domain.NewSkipMove(domain.ColorNone),
		{Kind: domain.MoveKind(9), Color: domain.Blue},
	}
	for _, m := range moves {
		if _, err := EncodeMove("g1", m); !errors.Is(err, domain.ErrUnencodableMove) {
			t.Fatalf("encode %v: got %v, want ErrUnencodableMove", m, err)
		}
	}
	if _, err := EncodeMove("", domain.NewSkipMove(domain.Blue)); !errors.Is(err, domain.ErrUnencodableMove) {
		t.Fatalf("encode without game id: got %v", err)
	}
}

type sliceSource struct {
	frames []string
}

func (s *sliceSource) ReceiveFrame() ([]byte, error) {
	if len(s.frames) == 0 {
		return nil, io.EOF
	}
	f := s.frames[0]
	s.frames = s.frames[1:]
	return []byte(f), nil
}

func TestDecoderSequence(t *testing.T) {
	src := &sliceSource{frames: []string{
		`<joined roomId="g1"/>`,
		`<left roomId="g1"/>`,
	}}
	dec := NewDecoder(src)

	m, err := dec.Next()
	if err != nil || m.Kind() != KindJoined {
		t.Fatalf("first: %v %v", m, err)
	}
	m, err = dec.Next()
	if err != nil || m.Kind() != KindMemberLeft {
		t.Fatalf("second: %v %v", m, err)
	}
	if _, err = dec.Next(); err != io.EOF {
		t.Fatalf("third: got %v, want io.EOF", err)
	}
	if !dec.Done() {
		t.Fatalf("decoder should report a graceful end")
	}
	if _, err = dec.Next(); err != io.EOF {
		t.Fatalf("sequence restarted: %v", err)
	}
}

func TestDecoderStopsAfterBadFrame(t *testing.T) {
	src := &sliceSource{frames: []string{`<joined`, `<joined roomId="g1"/>`}}
	dec := NewDecoder(src)

	if _, err := dec.Next(); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Fatalf("got %v, want ErrMalformedMessage", err)
	}
	if _, err := dec.Next(); !errors.Is(err, domain.ErrMalformedMessage) {
		t.Fatalf("decoder continued after a bad frame: %v", err)
	}
	if dec.Done() {
		t.Fatalf("a bad frame is not a graceful end")
	}
}

func TestDecodeMementoRosterAndShapes(t *testing.T) {
	frame := `<room roomId="g1"><data class="memento"><state turn="2" round="1" currentColorIndex="2" startPiece="PENTO_Y">` +
		`<startTeam>ONE</startTeam><startColor>BLUE</startColor>` +
		`<first displayName="Alice"><color>ONE</color></first><second displayName="Bob"><color>TWO</color></second>` +
		`<board/><orderedColors><color>BLUE</color><color>YELLOW</color><color>RED</color><color>GREEN</color></orderedColors>` +
		`<blueShapes><shape>MONO</shape></blueShapes></state></data></room>`

	m, err := Decode([]byte(frame))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	s := m.(StateUpdate).Snapshot
	roster, ok := s.Roster()
	if !ok || roster[0].DisplayName != "Alice" || roster[1].Team != domain.TeamTwo {
		t.Fatalf("roster %+v %v", roster, ok)
	}
	if s.StartColor != domain.Blue || s.StartTeam != domain.TeamOne {
		t.Fatalf("start %s %s", s.StartColor, s.StartTeam)
	}
	if !s.HasShape(domain.Blue, "MONO") || s.HasShape(domain.Blue, "DOMINO") || !s.HasShape(domain.Red, "DOMINO") {
		t.Fatalf("remaining shapes %v", s.RemainingShapes)
	}

	// elements in another order re-encode in canonical order with nothing lost
	b, err := Encode(m)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	again, err := Decode(b)
	if err != nil || !reflect.DeepEqual(again, m) {
		t.Fatalf("re-decode %v\n got %#v\nwant %#v", err, again, m)
	}
}
