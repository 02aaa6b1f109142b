package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/yourusername/pitchside/internal/client"
	"github.com/yourusername/pitchside/internal/client/connection"
	"github.com/yourusername/pitchside/internal/client/ui"
	"github.com/yourusername/pitchside/internal/logging"
)

func main() {
	serverURL := flag.String("server", "ws://localhost:8080/ws", "WebSocket server URL")
	roomID := flag.String("room", "lobby", "Room ID to join")
	playerName := flag.String("name", "", "Display name (server picks one when empty)")
	useTermloop := flag.Bool("termloop", false, "Watch the room in the read-only termloop diamond view")
	logFile := flag.String("log", "", "Write client logs to this file")
	flag.Parse()

	// the terminal belongs to the UI, so logs go to a file or nowhere
	var out io.Writer = io.Discard
	if *logFile != "" {
		f, err := os.OpenFile(*logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintln(os.Stderr, "open log:", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := logging.New(out, logging.Config{Level: "debug", Service: "pitchside-client"})

	mgr := connection.NewManager(*serverURL, *roomID, *playerName, logger)

	if *useTermloop {
		runTermloop(mgr)
		return
	}

	p := tea.NewProgram(ui.NewModel(mgr, *serverURL, *roomID), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	mgr.Disconnect()
}

// runTermloop connects once and hands the terminal to the diamond view.
func runTermloop(mgr *connection.Manager) {
	view := client.NewDiamondView(mgr)
	if err := mgr.Connect(); err != nil {
		fmt.Fprintln(os.Stderr, "connect:", err)
		os.Exit(1)
	}
	view.Start()
}
