package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("250")).
				Background(lipgloss.Color("236")).
				Padding(0, 2)

	tabBarStyle = lipgloss.NewStyle().
			MarginBottom(1)

	tabGap = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		SetString(" ")
)

// renderTabBar renders the tab bar with the given active tab and width.
func renderTabBar(names []string, active int, width int) string {
	var tabs []string
	for i, name := range names {
		label := strconv.Itoa(i+1) + ":" + name
		if i == active {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(label))
		}
	}

	row := lipgloss.JoinHorizontal(lipgloss.Top, intersperse(tabs, tabGap.Render())...)
	return tabBarStyle.Width(width).Render(row)
}

// intersperse inserts sep between each element of items.
func intersperse(items []string, sep string) []string {
	if len(items) <= 1 {
		return items
	}
	result := make([]string, 0, len(items)*2-1)
	for i, item := range items {
		if i > 0 {
			result = append(result, sep)
		}
		result = append(result, item)
	}
	return result
}

// renderStatusBar renders the daemon connection status bar.
func renderStatusBar(vault string, live bool, width int) string {
	var status string
	if live {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("●")
		status = strings.Join([]string{dot + " daemon connected", "vault:" + vault}, "  ")
	} else {
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render("●")
		status = strings.Join([]string{dot + " daemon not running (editing file)", "vault:" + vault}, "  ")
	}

	style := lipgloss.NewStyle().
		Width(width).
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("250")).
		Padding(0, 1)
	return style.Render(status)
}

// renderHelpBar renders the bottom help/keybinding bar and the last message.
func renderHelpBar(message string, isErr bool, width int) string {
	help := "tab/shift-tab: switch tabs  j/k: move  enter: edit or run  q/ctrl-c: quit"
	style := lipgloss.NewStyle().
		Width(width).
		Foreground(lipgloss.Color("241")).
		Padding(0, 1)
	if message == "" {
		return style.Render(help)
	}
	color := lipgloss.Color("42")
	if isErr {
		color = lipgloss.Color("196")
	}
	msg := lipgloss.NewStyle().Foreground(color).Render(message)
	return lipgloss.JoinVertical(lipgloss.Left, style.Render(msg), style.Render(help))
}
