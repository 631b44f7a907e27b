package tui

import (
	"expert/chat"
	"expert/logger"
	"expert/session"

	tea "github.com/charmbracelet/bubbletea"
)

type TUIConfig struct {
	Controller *chat.Controller
	Session    *session.Session
}

// Run starts the TUI application
func Run(config TUIConfig) error {
	status := make(chan string, 16)
	logger.StatusChan = status
	defer func() { logger.StatusChan = nil }()

	p := tea.NewProgram(
		initialModel(config),
		tea.WithAltScreen(),
	)

	done := make(chan struct{})
	defer close(done)
	go forwardStatus(p, status, done)

	_, err := p.Run()
	return err
}

// forwardStatus is the only reader of the status channel; views come and
// go, so none of them listens on it directly.
func forwardStatus(p *tea.Program, status <-chan string, done <-chan struct{}) {
	for {
		select {
		case text := <-status:
			p.Send(statusMsg(text))
		case <-done:
			return
		}
	}
}

func initialModel(config TUIConfig) tea.Model {
	return newChatViewModel(&sharedState{config: config})
}
