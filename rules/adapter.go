// Package rules wraps the chess engine behind pure operations over an
// explicit, serializable game state. Callers never see engine types.
package rules

import (
	"strings"

	chess "github.com/corentings/chess/v2"
)

// Side is the color to move or the owner of a captured piece.
type Side string

const (
	White Side = "w"
	Black Side = "b"
)

// Move is a square-to-square move as submitted by a client.
type Move struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}

func (m Move) uci() string {
	return strings.ToLower(strings.TrimSpace(m.From) + strings.TrimSpace(m.To) + strings.TrimSpace(m.Promotion))
}

// Capture identifies a captured piece: owning side and piece letter
// (p, n, b, r, q).
type Capture struct {
	Color Side   `json:"color"`
	Piece string `json:"piece"`
}

// State is an immutable board position, side to move included.
// The zero value is the standard starting position.
type State struct {
	fen string
}

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NewState returns the standard starting position.
func NewState() State {
	return State{fen: startFEN}
}

// Decode parses a FEN string into a State. The returned state is
// normalized through the engine so Encode round-trips exactly.
func Decode(fen string) (State, error) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return State{}, err
	}
	return State{fen: chess.NewGame(opt).FEN()}, nil
}

// Encode returns the canonical FEN for the state.
func (s State) Encode() string {
	if s.fen == "" {
		return startFEN
	}
	return s.fen
}

// TurnOf reports whose move is next.
func TurnOf(s State) Side {
	game := load(s)
	if game.Position().Turn() == chess.White {
		return White
	}
	return Black
}

// Outcome is the tagged result of Apply. When Accepted is false the
// move was illegal or malformed and State/Captured are meaningless.
type Outcome struct {
	Accepted bool
	State    State
	Captured *Capture
}

// Apply validates and applies a move against the state. Any malformed
// input (unknown square, illegal move, bad promotion) yields a rejected
// outcome; Apply never panics and never mutates its arguments.
func Apply(s State, mv Move) Outcome {
	game := load(s)
	pos := game.Position()

	m, err := chess.UCINotation{}.Decode(pos, mv.uci())
	if err != nil {
		return Outcome{}
	}

	captured := capturedBy(pos, m)

	if err := game.Move(m, nil); err != nil {
		return Outcome{}
	}

	return Outcome{
		Accepted: true,
		State:    State{fen: game.FEN()},
		Captured: captured,
	}
}

// capturedBy derives the captured piece from the pre-move position. For
// en passant the captured pawn does not sit on the destination square.
func capturedBy(pos *chess.Position, m *chess.Move) *Capture {
	if !m.HasTag(chess.Capture) && !m.HasTag(chess.EnPassant) {
		return nil
	}

	color := Black
	if pos.Turn() == chess.Black {
		color = White
	}

	if m.HasTag(chess.EnPassant) {
		return &Capture{Color: color, Piece: "p"}
	}

	piece := pos.Board().Piece(m.S2())
	if piece == chess.NoPiece {
		return nil
	}

	return &Capture{Color: color, Piece: pieceLetter(piece.Type())}
}

func pieceLetter(t chess.PieceType) string {
	switch t {
	case chess.Pawn:
		return "p"
	case chess.Knight:
		return "n"
	case chess.Bishop:
		return "b"
	case chess.Rook:
		return "r"
	case chess.Queen:
		return "q"
	case chess.King:
		return "k"
	}
	return ""
}

func load(s State) *chess.Game {
	opt, err := chess.FEN(s.Encode())
	if err != nil {
		// states are only built by NewState/Decode/Apply, so the FEN
		// is always engine-produced; fall back to the start position
		return chess.NewGame()
	}
	return chess.NewGame(opt)
}
