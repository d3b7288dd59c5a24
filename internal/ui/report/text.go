package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"timscompare/internal/core/ports"
	"timscompare/internal/engine/model"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	segmentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	labelStyle = lipgloss.NewStyle().PaddingLeft(2)

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))
)

func renderText(w io.Writer, ds *model.Dataset, segments []model.Segment, catalog ports.ParameterCatalog) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(ds.Path))
	b.WriteString("\n")
	if meta := metadataLine(ds.Metadata); meta != "" {
		b.WriteString(categoryStyle.Render(meta))
		b.WriteString("\n")
	}
	if len(ds.AvailableSources) > 0 {
		fmt.Fprintf(&b, "Ion sources: %s\n", strings.Join(ds.AvailableSources, ", "))
	}

	for i := range segments {
		seg := &segments[i]
		b.WriteString("\n")
		b.WriteString(segmentStyle.Render(segmentTitle(seg)))
		b.WriteString("\n")

		rs := rows(seg, catalog)
		width := 0
		for _, r := range rs {
			width = max(width, lipgloss.Width(r.Label))
		}
		category := ""
		for _, r := range rs {
			if r.Category != category {
				category = r.Category
				b.WriteString(categoryStyle.Render(category))
				b.WriteString("\n")
			}
			label := labelStyle.Render(r.Label + strings.Repeat(" ", width-lipgloss.Width(r.Label)))
			fmt.Fprintf(&b, "%s  %s\n", label, r.Value)
			indent := strings.Repeat(" ", lipgloss.Width(label)+2)
			for _, item := range r.Items {
				fmt.Fprintf(&b, "%s%s\n", indent, item)
			}
		}

		for _, o := range seg.Outcomes {
			if o.Status == model.StatusUnavailable {
				b.WriteString(warnStyle.Render(fmt.Sprintf("  %s unavailable: %s", o.Family, o.Reason)))
				b.WriteString("\n")
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func metadataLine(m model.Metadata) string {
	parts := make([]string, 0, 3)
	if m.InstrumentModel != "" {
		parts = append(parts, m.InstrumentModel)
	}
	if m.SoftwareVersion != "" {
		parts = append(parts, "version "+m.SoftwareVersion)
	}
	if !m.LastModified.IsZero() {
		parts = append(parts, "modified "+m.LastModified.Format("2006-01-02 15:04"))
	}
	return strings.Join(parts, " | ")
}
