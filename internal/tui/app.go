package tui

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/1broseidon/vaulttray/internal/settings"
)

var errDaemonRequired = errors.New("no daemon is running for this vault")

// model is the root bubbletea model for the TUI.
type model struct {
	vault   string
	backend Backend

	activeTab   int
	settingTabs []SettingsTab
	commandsTab CommandsTab

	message string
	isErr   bool

	width  int
	height int
}

func newModel(vault string, backend Backend) model {
	m := model{vault: vault, backend: backend}
	for _, section := range settings.Sections() {
		m.settingTabs = append(m.settingTabs, NewSettingsTab(section))
	}
	m.reload()
	if cmds, err := backend.Commands(); err == nil {
		m.commandsTab.SetCommands(cmds)
	}
	return m
}

func (m *model) reload() {
	values, err := m.backend.Values()
	if err != nil {
		m.message, m.isErr = err.Error(), true
		return
	}
	for i := range m.settingTabs {
		m.settingTabs[i].SetValues(values)
	}
}

func (m model) tabNames() []string {
	names := make([]string, 0, len(m.settingTabs)+1)
	for _, tab := range m.settingTabs {
		names = append(names, tab.section.Heading)
	}
	return append(names, "Commands")
}

func (m model) tabCount() int {
	return len(m.settingTabs) + 1
}

func (m model) onCommandsTab() bool {
	return m.activeTab == len(m.settingTabs)
}

func (m model) editing() bool {
	return !m.onCommandsTab() && m.settingTabs[m.activeTab].Editing()
}

// contentHeight returns the height available for tab content.
func (m model) contentHeight() int {
	// status bar (1) + tab bar (2 with margin) + help bar (2)
	h := m.height - 5
	if h < 1 {
		h = 1
	}
	return h
}

// Init implements tea.Model.
func (m model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case setMsg:
		m.apply(msg)
		return m, nil
	case runMsg:
		if err := m.backend.RunCommand(msg.id); err != nil {
			m.message, m.isErr = err.Error(), true
		} else {
			m.message, m.isErr = "ran "+msg.id, false
		}
		return m, nil
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		subMsg := tea.WindowSizeMsg{Width: m.width, Height: m.contentHeight()}
		for i := range m.settingTabs {
			m.settingTabs[i], _ = m.settingTabs[i].Update(subMsg)
		}
		m.commandsTab, _ = m.commandsTab.Update(subMsg)
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.editing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				m.activeTab = (m.activeTab + 1) % m.tabCount()
				return m, nil
			case "shift+tab":
				m.activeTab = (m.activeTab - 1 + m.tabCount()) % m.tabCount()
				return m, nil
			case "r":
				m.reload()
				return m, nil
			}
			if key := msg.String(); len(key) == 1 && key[0] >= '1' && int(key[0]-'1') < m.tabCount() {
				m.activeTab = int(key[0] - '1')
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.onCommandsTab() {
		m.commandsTab, cmd = m.commandsTab.Update(msg)
	} else {
		m.settingTabs[m.activeTab], cmd = m.settingTabs[m.activeTab].Update(msg)
	}
	return m, cmd
}

func (m *model) apply(msg setMsg) {
	if err := m.backend.Set(msg.key, msg.value); err != nil {
		m.message, m.isErr = fmt.Sprintf("%s: %v", msg.key, err), true
		return
	}
	m.message, m.isErr = fmt.Sprintf("%s saved", settings.Label(settings.Key(msg.key))), false
	m.reload()
}

// View implements tea.Model.
func (m model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	var content string
	if m.onCommandsTab() {
		content = m.commandsTab.View()
	} else {
		content = m.settingTabs[m.activeTab].View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		renderStatusBar(m.vault, m.backend.Live(), m.width),
		renderTabBar(m.tabNames(), m.activeTab, m.width),
		content,
		renderHelpBar(m.message, m.isErr, m.width),
	)
}
