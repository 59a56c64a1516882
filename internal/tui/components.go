package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerLabelStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A1A1AA"))

	specialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00F2FF")).
			Bold(true)

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#353535")).
			Padding(0, 1)
	footerActionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#A1A1AA")).
				Background(lipgloss.Color("#353535")).
				Padding(0, 1)

	activeFooterKeyStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Padding(0, 1)
	activeFooterActionStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FAFAFA")).
				Background(lipgloss.Color("#7D56F4")).
				Bold(true).
				Padding(0, 1)
)

func (m Model) renderHeader(uptime string) string {
	width := m.TermWidth
	if width < 1 {
		width = 80
	}

	leftWidth := width / 3
	middleWidth := width / 3
	rightWidth := width - leftWidth - middleWidth
	if leftWidth < 24 {
		leftWidth = 24
		middleWidth = (width - leftWidth) / 2
		rightWidth = width - leftWidth - middleWidth
	}

	leftContent := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("GA GATEWAY MONITOR"),
		headerLabelStyle.Render("Uptime:   ")+infoStyle.Render(uptime),
		headerLabelStyle.Render("Requests: ")+infoStyle.Render(fmt.Sprintf("%d", m.Stats.TotalRequests)),
	)

	failures := infoStyle.Render("0")
	if m.Stats.UpstreamFailures > 0 {
		failures = warningStyle.Render(fmt.Sprintf("%d", m.Stats.UpstreamFailures))
	}
	middleContent := lipgloss.JoinVertical(lipgloss.Left,
		headerLabelStyle.Render("Latency:  ")+infoStyle.Render(fmt.Sprintf("%.2fms", m.Stats.AvgLatency)),
		headerLabelStyle.Render("GA fails: ")+failures,
		headerLabelStyle.Render("Limited:  ")+infoStyle.Render(fmt.Sprintf("%d", m.Stats.RateLimited)),
	)

	reload := "manual [F2 R]"
	if m.HotReload {
		reload = "watching"
	}
	rightContent := lipgloss.JoinVertical(lipgloss.Left,
		headerLabelStyle.Render("CPU: ")+infoStyle.Render(fmt.Sprintf("%.1f%%", m.Stats.CPUUsage*100)),
		headerLabelStyle.Render("Mem: ")+infoStyle.Render(fmt.Sprintf("%d/%d MB", m.Stats.MemoryUsageMB, m.Stats.MemoryTotalMB)),
		headerLabelStyle.Render("Cfg: ")+specialStyle.Render(reload),
	)

	leftRendered := lipgloss.NewStyle().Width(leftWidth).MaxWidth(leftWidth).Render(leftContent)
	middleRendered := lipgloss.NewStyle().Width(middleWidth).MaxWidth(middleWidth).Render(middleContent)
	rightRendered := lipgloss.NewStyle().Width(rightWidth).MaxWidth(rightWidth).Render(rightContent)

	headerContent := lipgloss.JoinHorizontal(lipgloss.Top, leftRendered, middleRendered, rightRendered)
	return headerStyle.Width(width).MaxWidth(width).Render(headerContent)
}

// renderViews draws one bar per report view plus the request-rate sparkline.
func (m Model) renderViews() string {
	width := m.TermWidth
	if width < 1 {
		width = 80
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("REQUESTS PER VIEW (last hour)") + "\n\n")

	if len(m.Stats.ByView) == 0 {
		b.WriteString(headerLabelStyle.Render("  no traffic yet") + "\n")
	} else {
		views := make([]string, 0, len(m.Stats.ByView))
		var top int64
		for v, n := range m.Stats.ByView {
			views = append(views, v)
			if n > top {
				top = n
			}
		}
		sort.Strings(views)
		barWidth := width - 30
		if barWidth < 10 {
			barWidth = 10
		}
		for _, v := range views {
			n := m.Stats.ByView[v]
			size := int(float64(n) / float64(top) * float64(barWidth))
			b.WriteString(fmt.Sprintf("  %-12s %6d ", v, n))
			b.WriteString(barStyle.Render(strings.Repeat("█", size)) + "\n")
		}
	}

	b.WriteString("\n" + headerLabelStyle.Render("  req/tick ") + renderSparkline(m.History, width-12) + "\n")
	return b.String()
}

func (m Model) renderFooter() string {
	width := m.TermWidth
	if width < 1 {
		width = 80
	}

	items := []struct {
		key   string
		label string
	}{
		{"TAB", "Dash"},
		{"TAB", "Traffic"},
		{"TAB", "Views"},
		{"F2", "Menu"},
		{"Q", "Quit"},
	}

	var footerParts []string
	for i, it := range items {
		if i < 3 && int(m.Mode) == i {
			footerParts = append(footerParts, activeFooterKeyStyle.Render(it.key)+activeFooterActionStyle.Render(it.label))
		} else {
			footerParts = append(footerParts, footerKeyStyle.Render(it.key)+footerActionStyle.Render(it.label))
		}
	}

	footer := lipgloss.JoinHorizontal(lipgloss.Left, footerParts...)
	return lipgloss.NewStyle().Background(lipgloss.Color("#353535")).Width(width).MaxWidth(width).Render(footer)
}

func renderSparkline(data []int64, width int) string {
	if width < 1 {
		width = 1
	}
	if len(data) == 0 {
		return strings.Repeat("─", width)
	}

	max := int64(0)
	for _, v := range data {
		if v > max {
			max = v
		}
	}
	if max == 0 {
		max = 1
	}

	sparks := []string{"▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}
	var result strings.Builder
	step := float64(len(data)) / float64(width)

	for i := 0; i < width; i++ {
		idx := int(float64(i) * step)
		if idx >= len(data) {
			idx = len(data) - 1
		}
		height := int((float64(data[idx]) / float64(max)) * 7)
		if height < 0 {
			height = 0
		}
		if height >= len(sparks) {
			height = len(sparks) - 1
		}
		result.WriteString(specialStyle.Render(sparks[height]))
	}
	return result.String()
}
