// Package game holds the per-gameKind conventions the session layer needs:
// which sides exist, who moves first, and the canonical starting position.
// Board contents are opaque everywhere else.
package game

import (
	"encoding/json"

	"github.com/MarcMahler/gamehub-backend/internal/domain"
)

type kindInfo struct {
	firstSide  string
	secondSide string
	board      func() json.RawMessage
}

var kinds = map[domain.GameKind]kindInfo{
	domain.KindTicTacToe: {
		firstSide:  "x",
		secondSide: "o",
		board:      emptyCells(9),
	},
	domain.KindChess: {
		firstSide:  "white",
		secondSide: "black",
		// starting position in FEN piece placement
		board: func() json.RawMessage {
			b, _ := json.Marshal("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR")
			return b
		},
	},
	domain.KindCheckers: {
		firstSide:  "black",
		secondSide: "red",
		board:      checkersBoard,
	},
	domain.KindConnect4: {
		firstSide:  "red",
		secondSide: "yellow",
		board:      emptyCells(0),
	},
}

// Valid reports whether the kind is part of the supported enumeration.
func Valid(kind domain.GameKind) bool {
	_, ok := kinds[kind]
	return ok
}

// All returns the supported game kinds.
func All() []domain.GameKind {
	return []domain.GameKind{
		domain.KindTicTacToe,
		domain.KindChess,
		domain.KindCheckers,
		domain.KindConnect4,
	}
}

// Sides returns the two side tokens; the first one belongs to the creator
// and moves first.
func Sides(kind domain.GameKind) (first, second string) {
	info := kinds[kind]
	return info.firstSide, info.secondSide
}

// InitialBoard returns the canonical starting position, JSON-encoded.
func InitialBoard(kind domain.GameKind) json.RawMessage {
	info, ok := kinds[kind]
	if !ok {
		return json.RawMessage("[]")
	}
	return info.board()
}

func emptyCells(n int) func() json.RawMessage {
	return func() json.RawMessage {
		cells := make([]string, n)
		for i := range cells {
			cells[i] = ""
		}
		b, _ := json.Marshal(cells)
		return b
	}
}

// checkersBoard lays out an 8x8 board as 64 cells: black pieces on the dark
// squares of the top three rows, red on the bottom three.
func checkersBoard() json.RawMessage {
	cells := make([]string, 64)
	for i := range cells {
		row, col := i/8, i%8
		if (row+col)%2 == 1 {
			switch {
			case row < 3:
				cells[i] = "b"
			case row > 4:
				cells[i] = "r"
			}
		}
	}
	b, _ := json.Marshal(cells)
	return b
}
