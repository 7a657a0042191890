package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/ogurasousui/engineer-capacity/internal/core/allocation"
	"github.com/ogurasousui/engineer-capacity/internal/core/assignment"
)

type tableRenderer struct {
	out    io.Writer
	header lipgloss.Style
	cell   func(width int) lipgloss.Style
	bands  map[allocation.UtilizationBand]lipgloss.Style
}

// newTableRenderer は出力先の端末能力に合わせて色付けするレンダラーを返します。
// 端末以外 (パイプやテスト) では装飾なしの文字列になります。
func newTableRenderer(out io.Writer) *tableRenderer {
	r := lipgloss.NewRenderer(out)
	return &tableRenderer{
		out:    out,
		header: r.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")),
		cell: func(width int) lipgloss.Style {
			return r.NewStyle().Width(width)
		},
		bands: map[allocation.UtilizationBand]lipgloss.Style{
			allocation.UtilizationLow:    r.NewStyle().Foreground(lipgloss.Color("#4CAF50")),
			allocation.UtilizationMedium: r.NewStyle().Foreground(lipgloss.Color("#F0B429")),
			allocation.UtilizationHigh:   r.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true),
		},
	}
}

var teamColumns = []struct {
	title string
	width int
}{
	{"ENGINEER", 24},
	{"DEPARTMENT", 14},
	{"SKILLS", 24},
	{"USED", 6},
	{"MAX", 6},
	{"UTIL", 6},
	{"BAND", 8},
}

func (t *tableRenderer) teamTable(reports []*assignment.CapacityReport) {
	titles := make([]string, 0, len(teamColumns))
	for _, c := range teamColumns {
		titles = append(titles, t.cell(c.width).Render(c.title))
	}
	fmt.Fprintln(t.out, t.header.Render(strings.Join(titles, " ")))

	for _, r := range reports {
		values := []string{
			r.Engineer.Name,
			r.Engineer.Department,
			strings.Join(r.Engineer.Skills, ","),
			strconv.Itoa(r.Capacity.UsedCapacity) + "%",
			strconv.Itoa(r.Engineer.MaxCapacity) + "%",
			strconv.Itoa(r.UtilizationPercent) + "%",
		}
		cells := make([]string, 0, len(teamColumns))
		for i, v := range values {
			cells = append(cells, t.cell(teamColumns[i].width).Render(truncate(v, teamColumns[i].width)))
		}
		cells = append(cells, t.bands[r.Band].Render(string(r.Band)))
		fmt.Fprintln(t.out, strings.Join(cells, " "))
	}
}

func (t *tableRenderer) capacityDetail(r *assignment.CapacityReport) {
	fmt.Fprintf(t.out, "%s <%s>\n", t.header.Render(r.Engineer.Name), r.Engineer.Email)
	fmt.Fprintf(t.out, "used %d%% of %d%%, available %d%%, utilisation %d%% (%s)\n",
		r.Capacity.UsedCapacity,
		r.Engineer.MaxCapacity,
		r.Capacity.AvailableCapacity,
		r.UtilizationPercent,
		t.bands[r.Band].Render(string(r.Band)),
	)
	if len(r.Capacity.ActiveAssignments) == 0 {
		fmt.Fprintln(t.out, "no active assignments")
		return
	}
	for _, a := range r.Capacity.ActiveAssignments {
		until := "open-ended"
		if a.EndDate != nil {
			until = "until " + a.EndDate.Format("2006-01-02")
		}
		fmt.Fprintf(t.out, "  - %s %d%% %s\n", a.ProjectID, a.AllocationPercentage, until)
	}
}

func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) < width {
		return s
	}
	return string(runes[:width-2]) + "…"
}
