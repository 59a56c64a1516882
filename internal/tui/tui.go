package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/navantesolutions/gagateway/internal/hub"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F25D94")).
			Bold(true)

	menuStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7D56F4")).
			Padding(1).
			Width(40)

	headerStyle = lipgloss.NewStyle().
			MarginBottom(1)
)

type ViewMode int

const (
	DashboardMode ViewMode = iota
	TrafficMode
	ViewsMode
)

const (
	maxLogs     = 500
	maxRequests = 100
	maxHistory  = 60
)

type LogMsg string

// ReloadFunc re-reads the config file and reports whether it was applied.
type ReloadFunc func() bool

type Model struct {
	Started      time.Time
	Stats        hub.SystemStats
	Logs         []string
	Requests     []hub.RequestEvent
	History      []int64
	Mode         ViewMode
	ShowMenu     bool
	Viewport     viewport.Model
	TrafficTable table.Model
	Ready        bool
	TermWidth    int
	TermHeight   int
	ConfigPath   string
	HotReload    bool
	OnReload     ReloadFunc
}

func NewModel(onReload ReloadFunc, configPath string, hotReload bool) Model {
	columns := []table.Column{
		{Title: "Time", Width: 10},
		{Title: "Method", Width: 8},
		{Title: "Status", Width: 8},
		{Title: "Path", Width: 22},
		{Title: "View", Width: 12},
		{Title: "Lat", Width: 8},
		{Title: "GA", Width: 8},
		{Title: "Action", Width: 15},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return Model{
		Started:      time.Now(),
		Logs:         make([]string, 0),
		Requests:     make([]hub.RequestEvent, 0),
		Mode:         DashboardMode,
		OnReload:     onReload,
		ConfigPath:   configPath,
		HotReload:    hotReload,
		TrafficTable: t,
	}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "f2":
			m.ShowMenu = !m.ShowMenu
		case "tab":
			m.Mode = (m.Mode + 1) % 3
		case "r":
			if m.ShowMenu {
				m = m.reload()
				m.ShowMenu = false
			}
		case "d":
			if m.ShowMenu {
				m.Mode = DashboardMode
				m.ShowMenu = false
			}
		case "t":
			if m.ShowMenu {
				m.Mode = TrafficMode
				m.ShowMenu = false
			}
		case "v":
			if m.ShowMenu {
				m.Mode = ViewsMode
				m.ShowMenu = false
			}
		case "c":
			if m.ShowMenu {
				m.Requests = nil
				m.History = nil
				m.TrafficTable.SetRows(nil)
				m = m.appendLog(infoStyle.Render("Traffic cleared"))
				m.ShowMenu = false
			}
		}

	case tea.WindowSizeMsg:
		m.TermWidth = msg.Width
		m.TermHeight = msg.Height
		headerHeight := 10
		if !m.Ready {
			m.Viewport = viewport.New(msg.Width, msg.Height-headerHeight)
			m.Viewport.SetContent(strings.Join(m.Logs, "\n"))
			m.Ready = true
		} else {
			m.Viewport.Width = msg.Width
			m.Viewport.Height = msg.Height - headerHeight
		}
		m.TrafficTable.SetHeight(msg.Height - headerHeight - 2)

	case LogMsg:
		m = m.appendLog(strings.TrimRight(string(msg), "\n"))

	case hub.RequestEvent:
		m.Requests = append(m.Requests, msg)
		if len(m.Requests) > maxRequests {
			m.Requests = m.Requests[len(m.Requests)-maxRequests:]
		}
		m.TrafficTable.SetRows(trafficRows(m.Requests))

	case hub.SystemStats:
		delta := msg.TotalRequests - m.Stats.TotalRequests
		if delta < 0 {
			delta = 0
		}
		m.History = append(m.History, delta)
		if len(m.History) > maxHistory {
			m.History = m.History[len(m.History)-maxHistory:]
		}
		m.Stats = msg
	}

	if m.Mode == TrafficMode {
		m.TrafficTable, cmd = m.TrafficTable.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) reload() Model {
	if m.OnReload == nil {
		return m
	}
	if m.OnReload() {
		return m.appendLog(infoStyle.Render("Configuration reloaded from " + m.ConfigPath))
	}
	return m.appendLog(warningStyle.Render("Configuration reload failed, keeping current settings"))
}

func (m Model) appendLog(line string) Model {
	m.Logs = append(m.Logs, line)
	if len(m.Logs) > maxLogs {
		m.Logs = m.Logs[len(m.Logs)-maxLogs:]
	}
	m.Viewport.SetContent(strings.Join(m.Logs, "\n"))
	m.Viewport.GotoBottom()
	return m
}

func trafficRows(events []hub.RequestEvent) []table.Row {
	rows := make([]table.Row, len(events))
	for i, ev := range events {
		view := ev.View
		if view == "" {
			view = "-"
		}
		action := ev.Action
		if ev.Failed() {
			action = warningStyle.Render(action)
		}
		rows[i] = table.Row{
			ev.Timestamp.Format("15:04:05"),
			ev.Method,
			fmt.Sprintf("%d", ev.Status),
			ev.Path,
			view,
			fmt.Sprintf("%dms", ev.Latency),
			fmt.Sprintf("%dms", ev.UpstreamMs),
			action,
		}
	}
	return rows
}

func (m Model) View() string {
	if !m.Ready {
		return "\n  Initializing GA Gateway Monitor..."
	}

	uptime := m.Stats.Uptime
	if uptime == 0 {
		uptime = time.Since(m.Started)
	}

	var body string
	switch m.Mode {
	case TrafficMode:
		body = m.TrafficTable.View()
	case ViewsMode:
		body = m.renderViews()
	default:
		body = m.Viewport.View()
	}

	view := m.renderHeader(uptime.Round(time.Second).String()) + "\n" + body + "\n" + m.renderFooter()

	if m.ShowMenu {
		menuContent := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("F2 MENU"),
			"",
			"[D] Switch to Dashboard",
			"[T] Switch to Traffic Monitor",
			"[V] Switch to Report Views",
			"[R] Reload Configuration",
			"[C] Clear Traffic",
			"[Q] Quit Monitor",
			"",
			"Press F2 to close",
		)
		return view + "\n\n" + menuStyle.Render(menuContent)
	}

	return view
}
