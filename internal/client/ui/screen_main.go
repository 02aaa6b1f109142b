package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yourusername/pitchside/internal/game"
	"github.com/yourusername/pitchside/internal/protocol"
)

const maxChatInput = 280

type pitchKind struct {
	name  string
	speed float64
}

var pitchKinds = []pitchKind{
	{"fastball", 93},
	{"sinker", 90},
	{"slider", 85},
	{"changeup", 82},
	{"curveball", 78},
	{"knuckleball", 70},
}

// cellLocation maps a 1-9 grid cell, laid out like a phone keypad seen from
// the catcher, to a point in the strike zone.
func cellLocation(cell int) protocol.Location {
	if cell < 1 || cell > 9 {
		cell = 5
	}
	i := cell - 1
	return protocol.Location{
		X: float64(i%3-1) * 0.6,
		Y: float64(1-i/3) * 0.6,
	}
}

// fielderFor picks the fielder best placed for the batted ball: outfielders
// for anything carrying past the infield, split by spray angle.
func fielderFor(t *game.Trajectory) string {
	if t == nil {
		return string(game.PosPitcher)
	}
	if t.Distance > 150 {
		switch {
		case t.SprayAngle < -15:
			return string(game.PosLeftField)
		case t.SprayAngle > 15:
			return string(game.PosRightField)
		}
		return string(game.PosCenterField)
	}
	switch {
	case t.SprayAngle < -20:
		return string(game.PosThirdBase)
	case t.SprayAngle < 0:
		return string(game.PosShortstop)
	case t.SprayAngle < 20:
		return string(game.PosSecondBase)
	}
	return string(game.PosFirstBase)
}

// leadRunner returns the most advanced occupied base, or 0.
func leadRunner(b game.Bases) int {
	for base := 3; base >= 1; base-- {
		if b[base-1] {
			return base
		}
	}
	return 0
}

// updateMainGame handles key presses on the game screen
func (m Model) updateMainGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.chatInputActive {
		switch msg.String() {
		case "esc":
			m.chatInputActive = false
			m.chatInput = ""
			return m, nil

		case "enter":
			if strings.TrimSpace(m.chatInput) != "" {
				m.act(m.connMgr.Chat(m.chatInput))
			}
			m.chatInput = ""
			m.chatInputActive = false
			return m, nil

		case "backspace":
			if r := []rune(m.chatInput); len(r) > 0 {
				m.chatInput = string(r[:len(r)-1])
			}
			return m, nil

		default:
			if len(m.chatInput) >= maxChatInput {
				return m, nil
			}
			switch msg.Type {
			case tea.KeySpace:
				m.chatInput += " "
			case tea.KeyRunes:
				m.chatInput += string(msg.Runes)
			}
			return m, nil
		}
	}

	if m.throwing {
		m.throwing = false
		switch key := msg.String(); key {
		case "1", "2", "3", "4":
			m.act(m.connMgr.Throw(int(key[0] - '0')))
		default:
			m.status = "throw cancelled"
		}
		return m, nil
	}

	switch key := msg.String(); key {
	case "ctrl+c", "q":
		m.Disconnect()
		return m, tea.Quit

	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		m.cell = int(key[0] - '0')

	case "k":
		m.pitchKind = (m.pitchKind + 1) % len(pitchKinds)
		m.status = "pitch: " + pitchKinds[m.pitchKind].name

	case "p":
		k := pitchKinds[m.pitchKind]
		m.act(m.connMgr.Pitch(k.name, k.speed, cellLocation(m.cell)))

	case " ":
		m.act(m.connMgr.Swing(cellLocation(m.cell)))

	case "x":
		m.act(m.connMgr.Take())

	case "c":
		m.act(m.connMgr.Catch(fielderFor(m.game.LastHit)))

	case "t":
		m.throwing = true
		m.status = "throw to which base? 1-3, 4 for home"

	case "h":
		m.act(m.connMgr.ReturnBall())

	case "b":
		m.act(m.connMgr.Run(0, 1))

	case "a":
		lead := leadRunner(m.game.Bases)
		if lead == 0 {
			m.status = "no runner on base"
			return m, nil
		}
		m.act(m.connMgr.Run(lead, lead+1))

	case "enter":
		m.chatInputActive = true
		m.chatInput = ""

	case "ctrl+r":
		m.act(m.connMgr.Sync())
	}

	return m, nil
}

// act records a send failure in the status line.
func (m *Model) act(err error) {
	if err != nil {
		m.status = "not sent: " + err.Error()
		return
	}
	m.status = ""
}

// viewMainGame renders the scoreboard, field and chat
func (m Model) viewMainGame() string {
	chatWidth := m.width / 3
	if chatWidth < 24 {
		chatWidth = 24
	}
	fieldWidth := m.width - chatWidth - 4
	bodyHeight := m.height - 6

	left := lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderScoreboard(),
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			gameBoxStyle.Render(renderDiamond(m.game.Bases, m.game.BallInPlay)),
			gameBoxStyle.Render(renderZone(m.cell, m.game.PendingPitch != nil)),
		),
		m.renderTicker(fieldWidth),
	)
	right := m.renderChatPanel(chatWidth, bodyHeight)

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(fieldWidth).Render(left),
		right,
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderStatusBar())
}

// renderScoreboard renders inning, score, count and status
func (m Model) renderScoreboard() string {
	g := m.game
	arrow := "▲"
	if g.Half == game.HalfBottom {
		arrow = "▼"
	}
	inning := fmt.Sprintf("%s %d of %d", arrow, g.Inning, g.MaxInnings)
	score := awayStyle.Render(fmt.Sprintf("AWAY %d", g.Score.Away)) + "  " +
		homeStyle.Render(fmt.Sprintf("HOME %d", g.Score.Home))
	count := fmt.Sprintf("B %d  S %d  O %d", g.Count.Balls, g.Count.Strikes, g.Count.Outs)

	status := string(g.Status)
	if g.Status == game.StatusEnded {
		status = "final"
		if g.Winner != "" {
			status += ", " + string(g.Winner) + " wins"
		}
	}

	return scoreboardStyle.Render(lipgloss.JoinHorizontal(
		lipgloss.Center,
		highlightStyle.Render(inning), "   ", score, "   ", count, "   ", mutedStyle.Render(status),
	))
}

// renderDiamond draws the bases; occupied bases are filled.
func renderDiamond(b game.Bases, live bool) string {
	base := func(occupied bool) string {
		if occupied {
			return runnerStyle.Render("◆")
		}
		return baseStyle.Render("◇")
	}
	ball := " "
	if live {
		ball = runnerStyle.Render("●")
	}
	lines := []string{
		"      " + base(b[1]) + "      ",
		"    ╱   ╲    ",
		"  " + base(b[2]) + "   " + ball + "   " + base(b[0]) + "  ",
		"    ╲   ╱    ",
		"      " + baseStyle.Render("⌂") + "      ",
	}
	return strings.Join(lines, "\n")
}

// renderZone draws the 3x3 location grid with the selected cell.
func renderZone(cell int, pitchPending bool) string {
	var rows []string
	for r := 0; r < 3; r++ {
		var cells []string
		for c := 0; c < 3; c++ {
			n := r*3 + c + 1
			label := fmt.Sprintf(" %d ", n)
			if n == cell {
				label = cursorStyle.Render(fmt.Sprintf("[%d]", n))
			} else {
				label = mutedStyle.Render(label)
			}
			cells = append(cells, label)
		}
		rows = append(rows, strings.Join(cells, ""))
	}
	caption := mutedStyle.Render("zone")
	if pitchPending {
		caption = runnerStyle.Render("pitch!")
	}
	return strings.Join(append(rows, caption), "\n")
}

// renderTicker lists the latest plays
func (m Model) renderTicker(width int) string {
	lines := make([]string, 0, len(m.ticker))
	for i, t := range m.ticker {
		if i == len(m.ticker)-1 {
			lines = append(lines, highlightStyle.Render("» "+t))
			continue
		}
		lines = append(lines, mutedStyle.Render("  "+t))
	}
	if len(lines) == 0 {
		lines = append(lines, mutedStyle.Render("Waiting for the first pitch."))
	}
	return gameBoxStyle.Width(max(width-4, 10)).Render(strings.Join(lines, "\n"))
}

// renderChatPanel renders peers, chat and the input box
func (m Model) renderChatPanel(width, height int) string {
	title := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Width(width).
		Align(lipgloss.Center).
		Render("ROOM " + m.roomID)

	var peerLines []string
	for _, p := range m.peers {
		name := p.DisplayName
		if p.IsHost {
			name += " ★"
		}
		switch p.Side {
		case game.SideHome:
			peerLines = append(peerLines, homeStyle.Render("H ")+name)
		case game.SideAway:
			peerLines = append(peerLines, awayStyle.Render("A ")+name)
		default:
			peerLines = append(peerLines, mutedStyle.Render("· "+name))
		}
	}

	displayCount := height - len(peerLines) - 6
	if displayCount < 1 {
		displayCount = 1
	}
	messages := m.chat.GetMessages()
	if len(messages) > displayCount {
		messages = messages[len(messages)-displayCount:]
	}
	var chatLines []string
	for _, c := range messages {
		sender := mutedStyle.Render(c.Sender + ":")
		if c.IsOwn {
			sender = highlightStyle.Render(c.Sender + ":")
		}
		chatLines = append(chatLines, sender+" "+c.Content)
	}
	if len(chatLines) == 0 {
		chatLines = append(chatLines, mutedStyle.Render("No messages yet. Press enter to type."))
	}

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		strings.Join(peerLines, "\n"),
		"",
		lipgloss.NewStyle().Height(displayCount).Render(strings.Join(chatLines, "\n")),
		m.renderChatInputBox(width-4),
	)
	return chatBoxStyle.Width(width).Render(content)
}

// renderChatInputBox renders the chat input box (adapts to width)
func (m Model) renderChatInputBox(width int) string {
	inputText := m.chatInput
	if m.chatInputActive {
		inputText += cursorStyle.Render("|")
	} else if inputText == "" {
		inputText = mutedStyle.Render("enter to chat")
	}
	return lipgloss.NewStyle().
		Width(width).
		Height(1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(mutedColor).
		Render("> " + inputText)
}

// controlsFor lists the keys that make sense for our seat right now.
func controlsFor(side game.Side, g game.GameState) string {
	if !side.IsPlayer() {
		return "spectating  •  ctrl+r sync  •  q quit"
	}
	batting := g.BattingSide() == side
	switch {
	case g.BallInPlay && batting:
		return "b run to first  •  a advance lead runner"
	case g.BallInPlay:
		return "c catch  •  t+1-4 throw  •  h return ball"
	case batting:
		return "1-9 aim  •  space swing  •  x take"
	}
	return "1-9 aim  •  k pitch type  •  p pitch"
}

// renderStatusBar renders the bottom status bar
func (m Model) renderStatusBar() string {
	var side string
	switch m.you.Side {
	case game.SideHome:
		side = homeStyle.Render("HOME")
	case game.SideAway:
		side = awayStyle.Render("AWAY")
	default:
		side = mutedStyle.Render("SPECTATOR")
	}
	player := lipgloss.NewStyle().Foreground(successColor).Bold(true).Render(m.you.DisplayName)

	controls := mutedStyle.Render(controlsFor(m.you.Side, m.game) + "  •  enter chat")
	if m.chatInputActive {
		controls = mutedStyle.Render("ENTER: Send  •  ESC: Cancel")
	}

	line := player + " " + side + "  •  " + controls
	if m.status != "" {
		line += "\n" + errorStyle.Render(m.status)
	}
	return lipgloss.NewStyle().
		Foreground(fgColor).
		Width(m.width).
		Padding(1, 0).
		Align(lipgloss.Center).
		Render(line)
}
