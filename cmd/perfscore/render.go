package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/okian/perfscore/internal/domain/model"
)

type tableStyles struct {
	title   lipgloss.Style
	header  lipgloss.Style
	cell    lipgloss.Style
	text    lipgloss.Style
	good    lipgloss.Style
	fair    lipgloss.Style
	poor    lipgloss.Style
	penalty lipgloss.Style
	dim     lipgloss.Style
}

func newTableStyles() tableStyles {
	return tableStyles{
		title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).PaddingRight(2),
		cell:    lipgloss.NewStyle().PaddingRight(2).Align(lipgloss.Right),
		text:    lipgloss.NewStyle().PaddingRight(2),
		good:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		fair:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
		poor:    lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		penalty: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
		dim:     lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
	}
}

type column struct {
	title   string
	numeric bool
	value   func(rank int, s model.EmployeePerformanceScore) string
}

func num(v float64) string { return fmt.Sprintf("%.1f", v) }

var columns = []column{ //nolint:gochecknoglobals // static table layout
	{"#", true, func(rank int, _ model.EmployeePerformanceScore) string { return fmt.Sprint(rank) }},
	{"Employee", false, func(_ int, s model.EmployeePerformanceScore) string { return s.EmployeeID }},
	{"Name", false, func(_ int, s model.EmployeePerformanceScore) string { return s.Name }},
	{"Location", false, func(_ int, s model.EmployeePerformanceScore) string { return firstNonEmpty(s.LocationName, s.LocationID) }},
	{"Attend", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.Attendance) }},
	{"Punct", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.Punctuality) }},
	{"Tasks", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.Task) }},
	{"Tests", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.Test) }},
	{"Review", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.PerformanceReview) }},
	{"Base", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.BaseScore) }},
	{"Penalty", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.WarningPenalty.TotalPenalty) }},
	{"Overall", true, func(_ int, s model.EmployeePerformanceScore) string { return num(s.OverallScore) }},
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// renderTable lays the report out as an aligned console table.
func renderTable(r scoreReport) string {
	st := newTableStyles()

	cells := make([][]string, len(r.Scores))
	widths := make([]int, len(columns))
	for i, c := range columns {
		widths[i] = lipgloss.Width(c.title)
	}
	for row, s := range r.Scores {
		cells[row] = make([]string, len(columns))
		for i, c := range columns {
			v := c.value(row+1, s)
			cells[row][i] = v
			widths[i] = max(widths[i], lipgloss.Width(v))
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", st.title.Render(fmt.Sprintf("Performance leaderboard  %s to %s  (ref %s)",
		r.Window.Start.Format(model.DateLayout), r.Window.End.Format(model.DateLayout), r.ReferenceDate.Format(model.DateLayout))))

	header := make([]string, len(columns))
	for i, c := range columns {
		header[i] = st.header.Width(widths[i] + 2).Render(c.title)
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")

	for row, s := range r.Scores {
		line := make([]string, len(columns))
		for i, c := range columns {
			base := st.text
			if c.numeric {
				base = st.cell
			}
			v := cells[row][i]
			switch c.title {
			case "Overall":
				v = scoreStyle(st, s.OverallScore).Render(v)
			case "Penalty":
				if s.WarningPenalty.TotalPenalty > 0 {
					v = st.penalty.Render(v)
				}
			}
			line[i] = base.Width(widths[i] + 2).Render(v)
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, line...))
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%d of %d employees shown", len(r.Scores), r.Employees)
	if len(r.Failures) > 0 {
		summary += fmt.Sprintf(", %d not scored", len(r.Failures))
	}
	b.WriteString(st.dim.Render(summary))
	b.WriteString("\n")
	for _, f := range r.Failures {
		b.WriteString(st.poor.Render(fmt.Sprintf("  %s: %s", f.EmployeeID, f.Error)))
		b.WriteString("\n")
	}
	return b.String()
}

func scoreStyle(st tableStyles, v float64) lipgloss.Style {
	switch {
	case v >= 85:
		return st.good
	case v >= 70:
		return st.fair
	default:
		return st.poor
	}
}
