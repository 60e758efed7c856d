package tui

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"ragserver/internal/domain"
	"ragserver/internal/service"
)

// ChatPort is the TUI-facing subset of the query service.
type ChatPort interface {
	Chat(ctx context.Context, query string, topK int) (*service.Reply, error)
	Search(ctx context.Context, query string, topK int) ([]domain.RankedResult, error)
}

// Model is the Bubble Tea model for the chat client.
type Model struct {
	service   ChatPort
	input     textinput.Model
	viewport  viewport.Model
	reply     *service.Reply
	results   []domain.RankedResult
	summary   string
	status    string
	cursor    int // 0 = answer view, 1..N = source chunk views
	ready     bool
	lastQuery string
}

// New creates a new chat model instance.
func New(svc ChatPort, summary string) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Ask a question and press Enter"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{service: svc, input: ti, viewport: vp, summary: summary, status: "Ready. Type to ask."}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		// account for frames around answer and query boxes
		_, rh := answerBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		totalHeaderLines := 2                                    // header + summary
		totalFooterLines := 1                                    // status
		reserved := totalHeaderLines + totalFooterLines + qh + 1 // 1 spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderCurrentView())
		return m, nil
	case tea.KeyMsg:
		// Global quits
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			q := strings.TrimSpace(m.input.Value())
			if q != "" {
				m.ask(q)
				m.viewport.SetContent(m.renderCurrentView())
				return m, nil
			}
		case "down":
			if n := len(m.results); n > 0 {
				m.cursor = (m.cursor + 1) % (n + 1)
				m.viewport.SetContent(m.renderCurrentView())
				return m, nil
			}
		case "up":
			if n := len(m.results); n > 0 {
				m.cursor = (m.cursor + n) % (n + 1)
				m.viewport.SetContent(m.renderCurrentView())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) ask(q string) {
	ctx := context.Background()
	reply, err := m.service.Chat(ctx, q, 0)
	if err != nil {
		m.status = "Error: " + err.Error()
		m.reply = nil
		m.results = nil
		return
	}
	results, err := m.service.Search(ctx, q, 0)
	if err != nil {
		results = nil
	}
	m.reply = reply
	m.results = results
	m.cursor = 0
	m.lastQuery = q
	m.status = fmt.Sprintf("Answer for %q (up/down to inspect sources)", q)
	m.input.SetValue("")
}

// View renders the TUI layout and the current answer or source chunk.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Docs Assistant")
	summary := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(m.summary)
	input := queryBoxStyle.Render(m.input.View())
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	answer := answerBoxStyle.Render(m.viewport.View())
	return header + "\n" + summary + "\n" + answer + "\n" + input + "\n" + status
}

func (m Model) renderCurrentView() string {
	if m.reply == nil {
		return "No answer yet."
	}
	if m.cursor == 0 {
		return m.reply.Answer + "\n\n" + renderSources(m.reply.Sources)
	}
	r := m.results[m.cursor-1]
	title := fmt.Sprintf("Source %d/%d  %d%% match  %s", m.cursor, len(m.results), r.Confidence(), r.Source.Path)
	body := highlightBestSentence(r.Chunk.Text, m.lastQuery)
	return title + "\n\n" + body
}

func renderSources(sources []service.Source) string {
	if len(sources) == 0 {
		return ""
	}
	lines := make([]string, 0, len(sources)+1)
	lines = append(lines, sourceHeadStyle.Render("Sources:"))
	for i, s := range sources {
		label := s.Title
		if s.Section != "" {
			label = "[" + s.Section + "] " + label
		}
		lines = append(lines, fmt.Sprintf("  %d. %s (%d%%)", i+1, label, s.Confidence))
	}
	return strings.Join(lines, "\n")
}

var (
	answerBoxStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	sourceHeadStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	highlightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	unicodeWordRe   = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
	sentenceRe      = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)
)

func highlightBestSentence(text, query string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	sentences := sentenceRe.FindAllString(text, -1)
	if len(sentences) == 0 {
		sentences = []string{strings.TrimSpace(text)}
	}
	qTokens := toTokenSet(query)
	if len(qTokens) == 0 {
		return strings.Join(sentences, " ")
	}
	bestIdx := 0
	bestScore := -1
	for i, s := range sentences {
		score := tokenOverlapScore(qTokens, s)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}
	for i := range sentences {
		sent := strings.TrimSpace(sentences[i])
		if i == bestIdx {
			sentences[i] = highlightStyle.Render(sent)
		} else {
			sentences[i] = sent
		}
	}
	return strings.Join(sentences, " ")
}

func toTokenSet(s string) map[string]struct{} {
	tokens := unicodeWordRe.FindAllString(strings.ToLower(s), -1)
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}

func tokenOverlapScore(queryTokens map[string]struct{}, sentence string) int {
	score := 0
	tokens := unicodeWordRe.FindAllString(strings.ToLower(sentence), -1)
	seen := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := queryTokens[t]; ok {
			score++
		}
	}
	return score
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
