package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navantesolutions/gagateway/internal/hub"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestRequestEventsFillTraffic(t *testing.T) {
	m := NewModel(nil, "config.yaml", false)
	m = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})

	for i := 0; i < maxRequests+5; i++ {
		m = update(t, m, hub.RequestEvent{
			Timestamp: time.Now(),
			Method:    "GET",
			Path:      "/api/ga/devices",
			View:      "devices",
			Status:    200,
			Action:    hub.ActionOK,
		})
	}
	assert.Len(t, m.Requests, maxRequests)
	assert.Len(t, m.TrafficTable.Rows(), maxRequests)
}

func TestStatsHistory(t *testing.T) {
	m := NewModel(nil, "config.yaml", false)
	m = update(t, m, hub.SystemStats{TotalRequests: 4})
	m = update(t, m, hub.SystemStats{TotalRequests: 10, ByView: map[string]int64{"overview": 6, "devices": 4}})

	assert.Equal(t, []int64{4, 6}, m.History)
	assert.Equal(t, int64(10), m.Stats.TotalRequests)

	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m.Mode = ViewsMode
	out := m.View()
	assert.Contains(t, out, "overview")
	assert.Contains(t, out, "devices")
}

func TestTabCyclesModes(t *testing.T) {
	m := NewModel(nil, "config.yaml", false)
	tab := tea.KeyMsg{Type: tea.KeyTab}
	m = update(t, m, tab)
	assert.Equal(t, TrafficMode, m.Mode)
	m = update(t, m, tab)
	assert.Equal(t, ViewsMode, m.Mode)
	m = update(t, m, tab)
	assert.Equal(t, DashboardMode, m.Mode)
}

func TestMenuReload(t *testing.T) {
	calls := 0
	m := NewModel(func() bool { calls++; return calls == 1 }, "gw.yaml", true)
	m = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m = update(t, m, runeKey('r'))
	assert.Zero(t, calls, "reload needs the menu open")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	require.True(t, m.ShowMenu)
	assert.Contains(t, m.View(), "F2 MENU")

	m = update(t, m, runeKey('r'))
	assert.Equal(t, 1, calls)
	assert.False(t, m.ShowMenu)
	assert.Contains(t, m.Logs[len(m.Logs)-1], "gw.yaml")

	m = update(t, m, tea.KeyMsg{Type: tea.KeyF2})
	m = update(t, m, runeKey('r'))
	assert.Contains(t, m.Logs[len(m.Logs)-1], "failed")
}

func TestLogMsgTrimmed(t *testing.T) {
	m := NewModel(nil, "config.yaml", false)
	m = update(t, m, LogMsg("hello\n"))
	require.Len(t, m.Logs, 1)
	assert.Equal(t, "hello", m.Logs[0])
}

func TestSparkline(t *testing.T) {
	assert.Equal(t, strings.Repeat("─", 5), renderSparkline(nil, 5))
	assert.NotEmpty(t, renderSparkline([]int64{1, 5, 3}, 6))
}
