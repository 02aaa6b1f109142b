// Package client holds the terminal front ends of the room server.
package client

import (
	"fmt"
	"sync"

	tl "github.com/JoelOtter/termloop"

	"github.com/yourusername/pitchside/internal/client/connection"
	"github.com/yourusername/pitchside/internal/game"
)

// DiamondView is a read-only termloop rendering of a room: the field with
// its runners and a scoreboard, redrawn from the connection's state mirror.
type DiamondView struct {
	game  *tl.Game
	level *tl.BaseLevel
	conn  *connection.Manager

	scoreboard *tl.Text
	count      *tl.Text
	lastPlay   *tl.Text
	diamond    *DiamondEntity

	mu   sync.Mutex
	play string
}

// NewDiamondView creates the termloop game for conn.
func NewDiamondView(conn *connection.Manager) *DiamondView {
	g := tl.NewGame()
	level := tl.NewBaseLevel(tl.Cell{
		Bg: tl.ColorGreen,
		Fg: tl.ColorWhite,
		Ch: ' ',
	})
	g.Screen().SetLevel(level)

	v := &DiamondView{
		game:       g,
		level:      level,
		conn:       conn,
		scoreboard: tl.NewText(2, 1, "", tl.ColorWhite, tl.ColorBlack),
		count:      tl.NewText(2, 2, "", tl.ColorYellow, tl.ColorBlack),
		lastPlay:   tl.NewText(2, 17, "", tl.ColorWhite, tl.ColorGreen),
		diamond:    NewDiamondEntity(14, 5),
	}
	level.AddEntity(v.scoreboard)
	level.AddEntity(v.count)
	level.AddEntity(v.lastPlay)
	level.AddEntity(v.diamond)
	level.AddEntity(&viewUpdater{view: v})

	conn.OnEvent(func(e connection.Event) {
		if p, ok := e.(connection.PlayEvent); ok {
			v.mu.Lock()
			v.play = p.Text
			v.mu.Unlock()
		}
	})
	return v
}

// Start runs the termloop loop until Esc or q.
func (v *DiamondView) Start() {
	v.game.Start()
}

// refresh copies the mirror into the entities.
func (v *DiamondView) refresh() {
	g := v.conn.State().Game()
	v.scoreboard.SetText(ScoreLine(g))
	v.count.SetText(fmt.Sprintf("B %d  S %d  O %d   %s", g.Count.Balls, g.Count.Strikes, g.Count.Outs, g.Status))
	v.diamond.bases = g.Bases
	v.diamond.live = g.BallInPlay

	v.mu.Lock()
	v.lastPlay.SetText(v.play)
	v.mu.Unlock()
}

// ScoreLine is the one-line scoreboard used by the termloop view.
func ScoreLine(g game.GameState) string {
	half := "Top"
	if g.Half == game.HalfBottom {
		half = "Bot"
	}
	line := fmt.Sprintf("%s %d   AWAY %d - HOME %d", half, g.Inning, g.Score.Away, g.Score.Home)
	if g.Status == game.StatusEnded {
		line += "   FINAL"
	}
	return line
}

// DiamondEntity draws the four bases; occupied bases use a runner glyph.
type DiamondEntity struct {
	x, y  int
	bases game.Bases
	live  bool
}

// NewDiamondEntity places the diamond with home plate's column at x and
// second base's row at y.
func NewDiamondEntity(x, y int) *DiamondEntity {
	return &DiamondEntity{x: x, y: y}
}

// basePositions are offsets from (x, y) for first, second, third and home.
var basePositions = [4][2]int{{8, 5}, {0, 0}, {-8, 5}, {0, 10}}

// Draw draws the diamond
func (d *DiamondEntity) Draw(screen *tl.Screen) {
	for i := 1; i < 5; i++ {
		screen.RenderCell(d.x+i*8/5, d.y+i, &tl.Cell{Fg: tl.ColorYellow, Ch: '\\'})
		screen.RenderCell(d.x-i*8/5, d.y+i, &tl.Cell{Fg: tl.ColorYellow, Ch: '/'})
		screen.RenderCell(d.x+8-i*8/5, d.y+5+i, &tl.Cell{Fg: tl.ColorYellow, Ch: '/'})
		screen.RenderCell(d.x-8+i*8/5, d.y+5+i, &tl.Cell{Fg: tl.ColorYellow, Ch: '\\'})
	}
	for i, pos := range basePositions {
		cell := &tl.Cell{Fg: tl.ColorWhite, Ch: '◇'}
		switch {
		case i == 3:
			cell.Ch = '⌂'
		case d.bases[i]:
			cell = &tl.Cell{Fg: tl.ColorRed, Ch: '◆'}
		}
		screen.RenderCell(d.x+pos[0], d.y+pos[1], cell)
	}
	if d.live {
		screen.RenderCell(d.x, d.y+5, &tl.Cell{Fg: tl.ColorWhite, Ch: '●'})
	}
}

// Tick does nothing; the diamond only reflects the mirror.
func (d *DiamondEntity) Tick(tl.Event) {}

// Position returns the entity position
func (d *DiamondEntity) Position() (int, int) {
	return d.x, d.y
}

// Size returns the entity size
func (d *DiamondEntity) Size() (int, int) {
	return 17, 11
}

// viewUpdater refreshes the view every few frames and handles quitting.
type viewUpdater struct {
	view  *DiamondView
	ticks int
}

func (u *viewUpdater) Draw(*tl.Screen) {}

func (u *viewUpdater) Tick(event tl.Event) {
	u.ticks++
	if u.ticks%3 == 0 {
		u.view.refresh()
	}
	if event.Type == tl.EventKey && (event.Key == tl.KeyEsc || event.Ch == 'q') {
		u.view.conn.Disconnect()
		u.view.game.End()
	}
}

func (u *viewUpdater) Position() (int, int) { return 0, 0 }

func (u *viewUpdater) Size() (int, int) { return 0, 0 }
