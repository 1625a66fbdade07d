package onboarding

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// --- Styles ---

var (
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	titleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("62")).
			Foreground(lipgloss.Color("230")).
			Padding(0, 1).
			Bold(true)

	docStyle = lipgloss.NewStyle().Padding(1, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			Border(lipgloss.NormalBorder(), false, false, true, false).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Padding(0, 1)

	windowStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1)
)

// --- Types ---

type state int

const (
	stateProvider state = iota
	stateAPIKey
	stateModel
	stateName
	stateDocsDir
	statePushover
	stateEvaluator
	stateDone
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

type TUIModel struct {
	state      state
	configPath string
	cfg        Config

	// statePushover and stateEvaluator collect two values each
	substep int

	list     list.Model
	input    textinput.Model
	err      error
	quitting bool
	width    int
	height   int
}

// --- Ollama Discovery ---

type ollamaModel struct {
	Name string `json:"name"`
}

type ollamaResponse struct {
	Models []ollamaModel `json:"models"`
}

func fetchOllamaModels() []item {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://localhost:11434/api/tags")
	if err != nil {
		return []item{{title: "llama3.2", desc: "Default fallback (Ollama not responding)"}}
	}
	defer resp.Body.Close()

	var data ollamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return []item{{title: "llama3.2", desc: "Error parsing models"}}
	}

	items := make([]item, len(data.Models))
	for i, m := range data.Models {
		items[i] = item{title: m.Name, desc: "Local Ollama model"}
	}
	return items
}

// --- Initial Model ---

func NewTUIModel(configPath string) TUIModel {
	providers := []list.Item{
		item{title: "openai", desc: "OpenAI GPT models (requires API Key)"},
		item{title: "anthropic", desc: "Claude models (requires API Key)"},
		item{title: "gemini", desc: "Google Gemini models (requires API Key)"},
		item{title: "ollama", desc: "Local execution via Ollama"},
	}

	l := list.New(providers, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Select generation provider"
	l.SetShowHelp(false)

	ti := textinput.New()
	ti.Placeholder = "Enter API Key"
	ti.Focus()

	return TUIModel{
		state:      stateProvider,
		configPath: configPath,
		cfg:        Config{DocsDir: "me"},
		list:       l,
		input:      ti,
	}
}

func (m TUIModel) Init() tea.Cmd {
	return nil
}

func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-10, msg.Height-15)

	case error:
		m.err = msg
		m.quitting = true
		return m, tea.Quit
	}

	var cmd tea.Cmd

	switch m.state {
	case stateProvider:
		m.list, cmd = m.list.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if i, ok := m.list.SelectedItem().(item); ok {
				m.cfg.Provider = i.title
				if m.cfg.Provider == "ollama" {
					m.cfg.BaseURL = "http://localhost:11434"
					m.toModelList()
				} else {
					m.state = stateAPIKey
					m.input.Prompt = fmt.Sprintf("%s API key: ", m.cfg.Provider)
					m.input.SetValue("")
				}
			}
		}

	case stateAPIKey:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.APIKey = strings.TrimSpace(m.input.Value())
			m.toModelList()
		}

	case stateModel:
		m.list, cmd = m.list.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if i, ok := m.list.SelectedItem().(item); ok {
				m.cfg.Model = i.title
				m.state = stateName
				m.input.Prompt = "Who does this twin represent? Name: "
				m.input.SetValue("")
			}
		}

	case stateName:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			m.cfg.Name = strings.TrimSpace(m.input.Value())
			m.state = stateDocsDir
			m.input.Prompt = "Persona docs directory (default: me): "
			m.input.SetValue("")
		}

	case stateDocsDir:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if dir := strings.TrimSpace(m.input.Value()); dir != "" {
				m.cfg.DocsDir = dir
			}
			m.state = statePushover
			m.substep = 0
			m.input.Prompt = "Pushover app token (optional): "
			m.input.SetValue("")
		}

	case statePushover:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if m.substep == 0 {
				m.cfg.PushoverToken = strings.TrimSpace(m.input.Value())
				if m.cfg.PushoverToken == "" {
					m.toEvaluator()
				} else {
					m.substep = 1
					m.input.Prompt = "Pushover user key: "
					m.input.SetValue("")
				}
			} else {
				m.cfg.PushoverUser = strings.TrimSpace(m.input.Value())
				m.toEvaluator()
			}
		}

	case stateEvaluator:
		m.input, cmd = m.input.Update(msg)
		if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "enter" {
			if m.substep == 0 {
				m.cfg.EvalAPIKey = strings.TrimSpace(m.input.Value())
				if m.cfg.EvalAPIKey == "" {
					m.state = stateDone
					return m, m.saveConfig()
				}
				m.substep = 1
				m.input.Prompt = "Evaluator model (default: claude-3-7-sonnet-latest): "
				m.input.SetValue("")
			} else {
				m.cfg.EvalModel = strings.TrimSpace(m.input.Value())
				m.state = stateDone
				return m, m.saveConfig()
			}
		}

	case stateDone:
		m.quitting = true
		return m, tea.Quit
	}

	return m, cmd
}

func (m *TUIModel) toModelList() {
	m.state = stateModel
	var models []list.Item
	switch m.cfg.Provider {
	case "openai":
		models = []list.Item{
			item{title: "gpt-4o-mini", desc: "Fast OpenAI model"},
			item{title: "gpt-4o", desc: "Best OpenAI model"},
		}
	case "anthropic":
		models = []list.Item{item{title: "claude-3-5-sonnet-latest", desc: "Best Anthropic model"}}
	case "gemini":
		models = []list.Item{
			item{title: "gemini-2.5-flash", desc: "Fast Google model"},
			item{title: "gemini-2.5-pro", desc: "Powerful Google model"},
		}
	default:
		ollamaModels := fetchOllamaModels()
		models = make([]list.Item, len(ollamaModels))
		for i, om := range ollamaModels {
			models[i] = om
		}
	}
	m.list.SetItems(models)
	m.list.Title = "Select model"
}

func (m *TUIModel) toEvaluator() {
	m.state = stateEvaluator
	m.substep = 0
	m.input.Prompt = "Anthropic API key for reply evaluation (optional): "
	m.input.SetValue("")
}

func (m TUIModel) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render(" doppel setup "))
	s.WriteString("\n\n")

	tabs := []string{"Provider", "Model", "Persona", "Notify", "Evaluator", "Finish"}
	currentTab := 0
	switch m.state {
	case stateProvider, stateAPIKey:
		currentTab = 0
	case stateModel:
		currentTab = 1
	case stateName, stateDocsDir:
		currentTab = 2
	case statePushover:
		currentTab = 3
	case stateEvaluator:
		currentTab = 4
	case stateDone:
		currentTab = 5
	}

	var renderedTabs []string
	for i, t := range tabs {
		if i == currentTab {
			renderedTabs = append(renderedTabs, activeTabStyle.Render(t))
		} else {
			renderedTabs = append(renderedTabs, inactiveTabStyle.Render(t))
		}
	}
	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, renderedTabs...))
	s.WriteString("\n\n")

	var content string
	switch m.state {
	case stateProvider, stateModel:
		content = m.list.View()
	case stateDone:
		content = "\nSaving configuration to " + m.configPath + "...\nDone! Press any key to exit."
	default:
		content = "\n" + m.input.View() + "\n\n" + helpStyle.Render("Press enter to continue")
	}

	s.WriteString(windowStyle.Width(m.width - 10).Height(m.height - 15).Render(content))

	if m.state != stateDone {
		s.WriteString("\n\n" + helpStyle.Render("ctrl+c: quit • ↑/↓: navigate • enter: select"))
	}

	return docStyle.Render(s.String())
}

func (m TUIModel) saveConfig() tea.Cmd {
	cfg := m.cfg
	path := m.configPath
	return func() tea.Msg {
		if err := cfg.SaveToFile(path); err != nil {
			return err
		}
		return nil
	}
}

// --- Runner ---

func RunTUI(configPath string) error {
	if configPath == "" {
		configPath = DefaultPath
	}
	p := tea.NewProgram(NewTUIModel(configPath), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(TUIModel); ok && m.err != nil {
		return m.err
	}
	return nil
}
