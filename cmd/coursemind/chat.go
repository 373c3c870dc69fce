// This file implements the interactive chat interface using bubbletea.
package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"coursemind/cmd/coursemind/ui"
	"coursemind/internal/rag"
	"coursemind/internal/tools"
)

// chatModel is the main model for the interactive chat interface.
type chatModel struct {
	// UI components
	textinput textinput.Model
	viewport  viewport.Model
	spinner   spinner.Model
	styles    ui.Styles
	renderer  *glamour.TermRenderer

	// State
	history   []chatMessage
	isLoading bool
	err       error
	width     int
	height    int
	ready     bool

	// Session
	sessionID string

	// Backend
	system *rag.System
}

type chatMessage struct {
	role    string // "user" or "assistant"
	content string
	sources []tools.Source
	time    time.Time
}

// Messages for tea updates.
type (
	answerMsg struct {
		answer  string
		sources []tools.Source
	}
	errMsg struct{ err error }
)

func newChatModel(system *rag.System) chatModel {
	input := textinput.New()
	input.Placeholder = "Ask about the course materials..."
	input.Focus()
	input.CharLimit = 2000

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	styles := ui.DefaultStyles()
	sp.Style = styles.Spinner

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)

	return chatModel{
		textinput: input,
		spinner:   sp,
		styles:    styles,
		renderer:  renderer,
		system:    system,
		sessionID: system.CreateSession(),
	}
}

func (m chatModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		headerHeight := 2
		footerHeight := 3
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.viewport.SetContent(m.renderHistory())

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			if m.isLoading {
				break
			}
			input := strings.TrimSpace(m.textinput.Value())
			if input == "" {
				break
			}
			m.textinput.Reset()

			switch input {
			case "/quit", "/exit":
				return m, tea.Quit
			case "/clear":
				m.system.ClearSession(m.sessionID)
				m.sessionID = m.system.CreateSession()
				m.history = nil
				m.viewport.SetContent(m.renderHistory())
				return m, nil
			}

			m.history = append(m.history, chatMessage{role: "user", content: input, time: time.Now()})
			m.isLoading = true
			m.err = nil
			m.viewport.SetContent(m.renderHistory())
			m.viewport.GotoBottom()
			cmds = append(cmds, m.askCmd(input), m.spinner.Tick)
		}

	case answerMsg:
		m.isLoading = false
		m.history = append(m.history, chatMessage{
			role:    "assistant",
			content: msg.answer,
			sources: msg.sources,
			time:    time.Now(),
		})
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case errMsg:
		m.isLoading = false
		m.err = msg.err
		m.viewport.SetContent(m.renderHistory())
		m.viewport.GotoBottom()

	case spinner.TickMsg:
		if m.isLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	var cmd tea.Cmd
	m.textinput, cmd = m.textinput.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// askCmd runs one query off the UI goroutine.
func (m chatModel) askCmd(question string) tea.Cmd {
	system, sessionID := m.system, m.sessionID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		answer, sources, err := system.Answer(ctx, question, sessionID)
		if err != nil {
			return errMsg{err: err}
		}
		return answerMsg{answer: answer, sources: sources}
	}
}

func (m chatModel) renderHistory() string {
	var b strings.Builder
	for _, msg := range m.history {
		if msg.role == "user" {
			b.WriteString(m.styles.UserTurn.Render("You: " + msg.content))
			b.WriteString("\n\n")
			continue
		}

		content := msg.content
		if m.renderer != nil {
			if rendered, err := m.renderer.Render(content); err == nil {
				content = strings.TrimSpace(rendered)
			}
		}
		b.WriteString(m.styles.Answer.Render(content))
		b.WriteString("\n")
		for _, src := range msg.sources {
			line := "  " + src.Text
			if src.Link != "" {
				line += " (" + src.Link + ")"
			}
			b.WriteString(m.styles.Source.Render(line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(m.styles.Error.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m chatModel) View() string {
	if !m.ready {
		return "Starting coursemind..."
	}

	header := m.styles.Header.Width(m.width).Render("coursemind " + version)

	status := m.styles.Muted.Render("/clear new session · /quit exit")
	if m.isLoading {
		status = m.spinner.View() + " thinking..."
	}

	footer := fmt.Sprintf("%s\n%s %s",
		status,
		m.styles.Prompt.Render(">"),
		m.textinput.View(),
	)

	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), footer)
}

// runChat starts the interactive terminal interface.
func runChat() error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	system, err := rag.New(cfg)
	if err != nil {
		return err
	}
	defer system.Close()

	program := tea.NewProgram(newChatModel(system), tea.WithAltScreen())
	_, err = program.Run()
	return err
}
