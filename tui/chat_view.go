package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"expert/chat"
	"expert/logger"
	"expert/session"
)

const (
	title   = "Експерт з сертифікації послуг охорони (ДСТУ)"
	caption = "Постав запитання щодо ДСТУ 4030, ДСТУ CLC_TS 50131-7, ДСТУ EN 16763."
)

type chatViewModel struct {
	shared   *sharedState
	textarea textarea.Model
	viewport viewport.Model
	spinner  spinner.Model
	ready    bool
	sending  bool
	width    int
	height   int

	statusMessage string
	statusSeq     int
}

// statusMsg carries a logger.Screen line forwarded by Run.
type statusMsg string

// clearStatusMsg clears the status line unless a newer one replaced it.
type clearStatusMsg int

type turnDoneMsg struct {
	answer string
	err    error
}

func newChatViewModel(shared *sharedState) *chatViewModel {
	ta := textarea.New()
	ta.Placeholder = "Напиши запитання…"
	ta.Focus()
	ta.CharLimit = 5000
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(shared.width - 4)
	ta.SetHeight(3)

	vp := viewport.New(shared.width, shared.height-10)
	vp.YPosition = 0

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = loadingStyle

	return &chatViewModel{
		shared:   shared,
		textarea: ta,
		viewport: vp,
		spinner:  sp,
		width:    shared.width,
		height:   shared.height,
	}
}

func (m *chatViewModel) Init() tea.Cmd {
	logger.Debug.Printf("init")

	return textarea.Blink
}

func (m *chatViewModel) sendMessage(prompt string) tea.Cmd {
	controller := m.shared.config.Controller
	s := m.shared.config.Session

	return func() tea.Msg {
		answer, err := controller.HandleTurn(context.Background(), s, prompt)
		return turnDoneMsg{answer: answer, err: err}
	}
}

func (m *chatViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case statusMsg:
		return m, m.setStatus(string(msg))

	case clearStatusMsg:
		if int(msg) == m.statusSeq {
			m.statusMessage = ""
		}
		return m, nil

	case spinner.TickMsg:
		if !m.sending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.updateViewportContent()
		return m, cmd

	case turnDoneMsg:
		m.sending = false
		m.updateViewportContent()
		var turnErr *chat.TurnError
		if errors.As(msg.err, &turnErr) {
			return m, m.setStatus("Деталі помилки записано в журнал.")
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "ctrl+a":
			if m.sending {
				return m, nil
			}
			transcriptView := newTranscriptViewModel(m.shared)
			return transcriptView, tea.Sequence(
				transcriptView.Init(),
				func() tea.Msg {
					return tea.WindowSizeMsg{
						Width:  m.shared.width,
						Height: m.shared.height,
					}
				},
			)

		case "ctrl+r":
			if m.sending {
				return m, nil
			}
			m.shared.config.Session.Reset()
			m.updateViewportContent()
			return m, m.setStatus("Розмову почато спочатку.")

		case "ctrl+y":
			answer := lastAnswer(m.shared.config.Session.Turns())
			if answer == "" {
				return m, nil
			}
			if err := clipboard.WriteAll(answer); err != nil {
				logger.Debug.Printf("clipboard: %v", err)
				return m, nil
			}
			return m, m.setStatus("Відповідь скопійовано.")

		case "enter", "ctrl+w":
			if m.sending || strings.TrimSpace(m.textarea.Value()) == "" {
				return m, nil
			}
			m.sending = true
			prompt := m.textarea.Value()
			m.textarea.Reset()
			return m, tea.Batch(m.sendMessage(prompt), m.spinner.Tick)

		case "pgup", "ctrl+u":
			m.viewport.HalfViewUp()
			return m, nil

		case "pgdown", "ctrl+d":
			m.viewport.HalfViewDown()
			return m, nil

		default:
			if m.sending {
				return m, nil
			}
			m.textarea, tiCmd = m.textarea.Update(msg)
			return m, tiCmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.shared.width = msg.Width
		m.shared.height = msg.Height

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-10)
			m.viewport.YPosition = 0
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 10
		}

		m.textarea.SetWidth(msg.Width - 4)
		m.updateViewportContent()
	}

	return m, tea.Batch(tiCmd, vpCmd)
}

// setStatus shows text and schedules a single clear for it.
func (m *chatViewModel) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.statusMessage = text
	if text == "" {
		return nil
	}

	seq := m.statusSeq
	return tea.Tick(3*time.Second, func(t time.Time) tea.Msg {
		return clearStatusMsg(seq)
	})
}

func (m *chatViewModel) View() string {
	if !m.ready {
		return loadingStyle.Render("Завантаження…")
	}

	status := ""
	if m.sending {
		status = sendingStyle.Render(fmt.Sprintf(" %s Думаю над відповіддю…", m.spinner.View()))
	}
	if m.statusMessage != "" {
		status = dimStyle.Render(fmt.Sprintf("%s %s", status, m.statusMessage))
	}

	helpText := "enter: надіслати • /точно: пошук у документах • ctrl+r: почати спочатку • ctrl+y: копіювати • ctrl+a: історія • ctrl+c: вихід"

	return fmt.Sprintf(
		"%s\n%s\n%s\n\n%s\n%s%s",
		headerStyle.Render(title),
		captionStyle.Render(caption),
		m.viewport.View(),
		m.textarea.View(),
		helpStyle.Render(helpText),
		status,
	)
}

func (m *chatViewModel) updateViewportContent() {
	if !m.ready {
		return
	}

	var b strings.Builder

	for _, turn := range m.shared.config.Session.Turns() {
		switch turn.Role {
		case session.RoleUser:
			b.WriteString(userPromptStyle.Render(fmt.Sprintf("Ви: %s", turn.Text)))
			b.WriteString("\n\n")
		case session.RoleAssistant:
			if turn.Text == chat.NeutralMessage {
				b.WriteString(failedAnswerStyle.Render(turn.Text))
				b.WriteString("\n\n")
				continue
			}
			rendered, err := glamour.Render(turn.Text, "dark")
			if err != nil {
				rendered = turn.Text
			}
			b.WriteString(aiResponseStyle.Render(rendered))
			b.WriteString("\n")
			b.WriteString(strings.Repeat("─", m.width))
			b.WriteString("\n\n")
		}
	}

	m.viewport.SetContent(b.String())
	if m.viewport.Height > 0 && m.viewport.Width > 0 {
		m.viewport.GotoBottom()
	}
}
