// Package tui implements the interactive chat interface. It renders
// every model's response pane side by side while turns stream, polling
// the session controller for snapshots on a fixed tick.
package tui

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/rafael/multichat/internal/apierrors"
	"github.com/rafael/multichat/internal/models"
	"github.com/rafael/multichat/internal/session"
)

// snapshotInterval is how often the view re-reads the session store.
// Folding happens on runner goroutines; the UI only ever sees copies.
const snapshotInterval = 80 * time.Millisecond

type snapshotTickMsg time.Time

type sendDoneMsg struct {
	err error
}

// Model is the bubbletea model for the chat session.
type Model struct {
	ctrl     *session.Controller
	modelIDs []string

	input    textinput.Model
	viewport viewport.Model
	spin     spinner.Model
	renderer *glamour.TermRenderer

	usage atomic.Pointer[models.Usage]

	snap   models.Session
	banner string
	status string

	width  int
	height int
	ready  bool
}

// NewModel builds the chat model. The controller is shared with the
// send goroutines; the model itself only touches it from Update.
func NewModel(ctrl *session.Controller, modelIDs []string) *Model {
	input := textinput.New()
	input.Placeholder = "Type a message and press Enter"
	input.Prompt = userStyle.Render("> ")
	input.CharLimit = 0
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return &Model{
		ctrl:     ctrl,
		modelIDs: modelIDs,
		input:    input,
		spin:     spin,
	}
}

// RunChat runs the interactive session until the user quits.
func RunChat(ctrl *session.Controller, modelIDs []string) error {
	p := tea.NewProgram(NewModel(ctrl, modelIDs), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, snapshotTick())
}

func snapshotTick() tea.Cmd {
	return tea.Tick(snapshotInterval, func(t time.Time) tea.Msg {
		return snapshotTickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.rebuildRenderer()
		m.refreshViewport(true)
		m.ready = true
		return m, nil

	case snapshotTickMsg:
		wasAtBottom := m.viewport.AtBottom()
		m.snap = m.ctrl.Snapshot()
		m.refreshViewport(wasAtBottom)
		return m, snapshotTick()

	case sendDoneMsg:
		if msg.err != nil && apierrors.IsValidation(msg.err) {
			m.banner = msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		m.ctrl.Cancel()
		return m, tea.Quit

	case tea.KeyEsc:
		if m.ctrl.Busy() {
			m.ctrl.Cancel()
			m.status = "Turn cancelled"
		}
		return m, nil

	case tea.KeyCtrlN:
		m.ctrl.NewSession()
		m.snap = models.Session{}
		m.banner = ""
		m.status = "New conversation"
		m.refreshViewport(true)
		return m, nil

	case tea.KeyCtrlY:
		m.yankLastResponse()
		return m, nil

	case tea.KeyEnter:
		return m, m.submit()

	case tea.KeyPgUp, tea.KeyPgDown, tea.KeyUp, tea.KeyDown:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit dispatches the typed prompt to every configured model. The
// send itself runs off the UI loop; progress arrives via snapshot
// ticks and the final error via sendDoneMsg.
func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return nil
	}
	if m.ctrl.Busy() {
		m.status = "Still streaming, Esc to cancel"
		return nil
	}

	m.input.Reset()
	m.banner = ""
	m.status = ""

	ctrl := m.ctrl
	modelIDs := m.modelIDs
	onUsage := func(u models.Usage) {
		m.usage.Store(&u)
	}
	return func() tea.Msg {
		err := ctrl.Send(context.Background(), text, modelIDs, onUsage)
		return sendDoneMsg{err: err}
	}
}

// yankLastResponse copies the newest completed, error-free response to
// the system clipboard.
func (m *Model) yankLastResponse() {
	for i := len(m.snap.Turns) - 1; i >= 0; i-- {
		turn := m.snap.Turns[i]
		for j := len(turn.ModelIDs) - 1; j >= 0; j-- {
			slot := turn.Slots[turn.ModelIDs[j]]
			if slot == nil || slot.InProgress || slot.Err != "" || slot.Content == "" {
				continue
			}
			if err := clipboard.WriteAll(slot.Content); err != nil {
				m.status = "Clipboard unavailable"
				return
			}
			m.status = fmt.Sprintf("Copied %s response", slot.ModelID)
			return
		}
	}
	m.status = "Nothing to copy"
}

func (m *Model) layout() {
	// Header, banner/status, input and help each take one line.
	vpHeight := m.height - 4
	if vpHeight < 1 {
		vpHeight = 1
	}
	if !m.ready {
		m.viewport = viewport.New(m.width, vpHeight)
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = vpHeight
	}
	m.input.Width = m.width - 4
}

func (m *Model) rebuildRenderer() {
	wrap := m.width - 2
	if wrap < 20 {
		wrap = 20
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err != nil {
		m.renderer = nil
		return
	}
	m.renderer = r
}

func (m *Model) refreshViewport(followTail bool) {
	if !m.ready && m.width == 0 {
		return
	}
	m.viewport.SetContent(m.renderTurns())
	if followTail {
		m.viewport.GotoBottom()
	}
}

func (m *Model) renderTurns() string {
	if len(m.snap.Turns) == 0 {
		return dimStyle.Render("No messages yet. Responses from " +
			strings.Join(m.modelIDs, ", ") + " will appear here.")
	}

	var b strings.Builder
	for i, turn := range m.snap.Turns {
		if i > 0 {
			b.WriteString("\n")
		}
		if turn.UserText != "" {
			b.WriteString(userStyle.Render("you> "))
			b.WriteString(bodyStyle.Render(turn.UserText))
			b.WriteString("\n\n")
		}
		for _, id := range turn.ModelIDs {
			slot := turn.Slots[id]
			if slot == nil {
				continue
			}
			b.WriteString(m.renderSlot(slot))
			b.WriteString("\n")
		}
	}
	return b.String()
}

func (m *Model) renderSlot(slot *models.ResponseSlot) string {
	var b strings.Builder
	b.WriteString(m.slotHeader(slot))
	b.WriteString("\n")

	switch {
	case slot.Err != "":
		if slot.Content != "" {
			b.WriteString(bodyStyle.Render(slot.Content))
			b.WriteString("\n")
		}
		b.WriteString(errStyle.Render("error: " + slot.Err))
		b.WriteString("\n")
	case slot.InProgress:
		b.WriteString(bodyStyle.Render(slot.Content))
		b.WriteString(dimStyle.Render("▌"))
		b.WriteString("\n")
	default:
		b.WriteString(m.renderMarkdown(slot.Content))
	}
	return b.String()
}

func (m *Model) slotHeader(slot *models.ResponseSlot) string {
	label := modelLabelStyle.Render(slot.ModelID)
	switch {
	case slot.Err != "":
		return errStyle.Render("✗ ") + label
	case slot.InProgress:
		return m.spin.View() + label
	default:
		mark := okMarkStyle.Render("✓ ")
		if slot.TokensUsed > 0 {
			return fmt.Sprintf("%s%s %s", mark, label,
				dimStyle.Render(fmt.Sprintf("(%d tokens)", slot.TokensUsed)))
		}
		return mark + label
	}
}

func (m *Model) renderMarkdown(content string) string {
	if m.renderer == nil {
		return bodyStyle.Render(content) + "\n"
	}
	out, err := m.renderer.Render(content)
	if err != nil {
		return bodyStyle.Render(content) + "\n"
	}
	return strings.TrimLeft(out, "\n")
}

func (m *Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return strings.Join([]string{
		m.headerView(),
		m.viewport.View(),
		m.noticeView(),
		m.input.View(),
		m.helpView(),
	}, "\n")
}

func (m *Model) headerView() string {
	title := headerStyle.Render("multichat")
	parts := []string{title, dimStyle.Render(strings.Join(m.modelIDs, " · "))}

	if id := m.snap.ConversationID; id != "" {
		parts = append(parts, dimStyle.Render("conv "+shortID(id)))
	}
	if u := m.usage.Load(); u != nil {
		parts = append(parts, dimStyle.Render(
			fmt.Sprintf("tokens left %d · credits left %d", u.TokensRemaining, u.CreditsRemaining)))
	}
	return strings.Join(parts, "  ")
}

func (m *Model) noticeView() string {
	switch {
	case m.banner != "":
		return bannerStyle.Render(m.banner)
	case m.status != "":
		return dimStyle.Render(m.status)
	default:
		return ""
	}
}

func (m *Model) helpView() string {
	return helpStyle.Render("enter send · esc cancel · ctrl+n new · ctrl+y copy · ctrl+c quit")
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
