package tui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"expert/chat"
	"expert/logger"
)

type transcriptViewMode int

const (
	transcriptCompactMode transcriptViewMode = iota
	transcriptExpandedMode
)

// transcriptViewModel browses the current session one exchange at a time.
type transcriptViewModel struct {
	shared      *sharedState
	exchanges   []exchange
	viewport    viewport.Model
	cursor      int
	mode        transcriptViewMode
	expandedIdx int // -1 = none
	ready       bool
	width       int
	height      int
}

func newTranscriptViewModel(shared *sharedState) *transcriptViewModel {
	vp := viewport.New(shared.width, shared.height-5)
	vp.YPosition = 0

	return &transcriptViewModel{
		shared:      shared,
		exchanges:   exchanges(shared.config.Session.Turns()),
		viewport:    vp,
		mode:        transcriptCompactMode,
		expandedIdx: -1,
		width:       shared.width,
		height:      shared.height,
	}
}

func (m *transcriptViewModel) Init() tea.Cmd {
	return nil
}

func (m *transcriptViewModel) scrollToSelection() {
	if len(m.exchanges) == 0 {
		return
	}

	// question + answer + blank
	linesPerExchange := 3
	cursorLine := m.cursor * linesPerExchange

	viewportTop := m.viewport.YOffset
	viewportBottom := viewportTop + m.viewport.Height

	if cursorLine < viewportTop {
		m.viewport.SetYOffset(cursorLine)
	}

	cursorBottom := cursorLine + linesPerExchange
	if cursorBottom > viewportBottom {
		newOffset := cursorBottom - m.viewport.Height
		if newOffset < 0 {
			newOffset = 0
		}
		m.viewport.SetYOffset(newOffset)
	}
}

func (m *transcriptViewModel) backToChat() (tea.Model, tea.Cmd) {
	chatView := newChatViewModel(m.shared)
	return chatView, tea.Sequence(
		chatView.Init(),
		func() tea.Msg {
			return tea.WindowSizeMsg{
				Width:  m.shared.width,
				Height: m.shared.height,
			}
		},
	)
}

func (m *transcriptViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var vpCmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.mode == transcriptExpandedMode {
			switch msg.String() {
			case "esc", "q":
				m.mode = transcriptCompactMode
				m.expandedIdx = -1
				m.updateContent()
				m.scrollToSelection()
				return m, nil
			case "y":
				copyAnswer(m.exchanges[m.expandedIdx].answer)
				return m, nil
			}
			m.viewport, vpCmd = m.viewport.Update(msg)
			return m, vpCmd
		}

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc", "q":
			return m.backToChat()

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.updateContent()
				m.scrollToSelection()
			}

		case "down", "j":
			if m.cursor < len(m.exchanges)-1 {
				m.cursor++
				m.updateContent()
				m.scrollToSelection()
			}

		case "g":
			m.cursor = 0
			m.updateContent()
			m.scrollToSelection()

		case "G":
			if len(m.exchanges) > 0 {
				m.cursor = len(m.exchanges) - 1
			}
			m.updateContent()
			m.scrollToSelection()

		case "enter", "e":
			if m.cursor < len(m.exchanges) {
				m.expandedIdx = m.cursor
				m.mode = transcriptExpandedMode
				m.updateContent()
				m.viewport.GotoTop()
			}

		case "y":
			if m.cursor < len(m.exchanges) {
				copyAnswer(m.exchanges[m.cursor].answer)
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-5)
			m.viewport.YPosition = 0
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 5
		}
		m.updateContent()
		m.scrollToSelection()
	}

	return m, vpCmd
}

func (m *transcriptViewModel) updateContent() {
	if len(m.exchanges) == 0 {
		m.viewport.SetContent(dimStyle.Render("Ще немає жодного запитання."))
		return
	}

	switch m.mode {
	case transcriptCompactMode:
		m.viewport.SetContent(m.renderCompactMode())
	case transcriptExpandedMode:
		m.viewport.SetContent(m.renderExpandedMode())
	}
}

func copyAnswer(answer string) {
	if answer == "" || answer == chat.NeutralMessage {
		return
	}
	if err := clipboard.WriteAll(answer); err != nil {
		logger.Debug.Printf("clipboard: %v", err)
	}
}

func truncate(text string, width int) string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)
	if width < 10 || len(runes) <= width {
		return text
	}
	return string(runes[:width-3]) + "..."
}

func (m *transcriptViewModel) renderCompactMode() string {
	var b strings.Builder

	for i, e := range m.exchanges {
		cursor := "  "
		style := itemStyle

		if i == m.cursor {
			cursor = "▶ "
			style = selectedItemStyle
		}

		line := fmt.Sprintf("%s[%d] %s", cursor, i+1, dimStyle.Render("П:"))
		b.WriteString(style.Render(line))
		b.WriteString(" ")
		b.WriteString(style.Render(truncate(e.question, m.width-20)))
		b.WriteString("\n")

		b.WriteString(style.Render("    " + dimStyle.Render("В: ") + truncate(e.answer, m.width-20)))
		b.WriteString("\n\n")
	}

	return b.String()
}

func (m *transcriptViewModel) renderExpandedMode() string {
	if m.expandedIdx < 0 || m.expandedIdx >= len(m.exchanges) {
		return ""
	}

	e := m.exchanges[m.expandedIdx]
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Запитання %d з %d", m.expandedIdx+1, len(m.exchanges))))
	b.WriteString("\n\n")

	b.WriteString(userPromptStyle.Render("Запитання:"))
	b.WriteString("\n")
	b.WriteString(e.question)
	b.WriteString("\n\n")

	b.WriteString(aiResponseStyle.Render("Відповідь:"))
	b.WriteString("\n")
	rendered, err := glamour.Render(e.answer, "dark")
	if err != nil {
		rendered = e.answer
	}
	b.WriteString(rendered)

	return b.String()
}

func (m *transcriptViewModel) View() string {
	var help string
	switch m.mode {
	case transcriptCompactMode:
		help = "↑/↓/j/k вибір • enter/e розгорнути • y копіювати • g/G початок/кінець • esc/q назад"
	case transcriptExpandedMode:
		help = "y копіювати • esc/q назад"
	}

	return fmt.Sprintf(
		"%s %s\n\n%s\n\n%s",
		headerStyle.Render("Історія розмови"),
		dimStyle.Render(fmt.Sprintf("[%d]", len(m.exchanges))),
		m.viewport.View(),
		helpStyle.Render(help),
	)
}
