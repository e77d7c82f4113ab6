package console

import (
	"fmt"
	"strings"

	"github.com/wricardo/seabattle/game/engine"
)

// CellIcon returns the character used for a cell. Own ships show their size;
// an unrevealed enemy ship reads as water.
func CellIcon(state engine.CellState, shipSize int, reveal bool) byte {
	switch state {
	case engine.ShipPresent:
		if shipSize > 0 {
			return byte('0' + shipSize)
		}
		if reveal {
			return 'S'
		}
		return '.'
	case engine.Hit:
		return 'X'
	case engine.Miss:
		return 'O'
	case engine.Destroyed:
		return '#'
	}
	return '.'
}

// RenderBoard draws a board with a column header and row numbers. When ships
// is non-nil their sizes are drawn on intact cells.
func RenderBoard(b *engine.Board, ships []engine.ShipInfo, reveal bool) string {
	sizes := make(map[engine.Position]int)
	for _, s := range ships {
		for i := 0; i < s.Length; i++ {
			p := engine.Position{X: s.X, Y: s.Y + i}
			if s.Horizontal {
				p = engine.Position{X: s.X + i, Y: s.Y}
			}
			sizes[p] = s.Length
		}
	}

	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < b.Width(); x++ {
		fmt.Fprintf(&sb, "%2d", x%100)
	}
	sb.WriteByte('\n')
	for y := 0; y < b.Height(); y++ {
		fmt.Fprintf(&sb, "%3d", y)
		for x := 0; x < b.Width(); x++ {
			sb.WriteByte(' ')
			sb.WriteByte(CellIcon(b.At(x, y), sizes[engine.Position{X: x, Y: y}], reveal))
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// RenderGame draws both boards, the human board first
func RenderGame(e *engine.GameEngine, reveal bool) string {
	var sb strings.Builder
	sb.WriteString("Your board:\n")
	sb.WriteString(RenderBoard(e.PlayerBoard(), e.PlayerShips(), false))
	sb.WriteString("\nEnemy board:\n")
	sb.WriteString(RenderBoard(e.EnemyBoard(), nil, reveal))
	return sb.String()
}
