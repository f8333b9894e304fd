package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/delmic/odemis-sub008/pkg/domain"
)

// ModesMarkdown renders a mode table as a markdown table.
// The current mode is marked, and pruned modes are listed after the table.
func ModesMarkdown(table domain.ModeTable, current string, pruned []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Modes (%s)\n\n", table.Family)
	sb.WriteString("| | Mode | Detector | Components |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, m := range table.Modes {
		mark := ""
		if m.Name == current {
			mark = "▶"
		}
		name := "`" + m.Name + "`"
		if m.Align {
			name += " *(align)*"
		}
		fmt.Fprintf(&sb, "| %s | %s | `%s` | %s |\n", mark, name, m.DetectorPattern, strings.Join(m.Roles(), ", "))
	}
	if len(pruned) > 0 {
		fmt.Fprintf(&sb, "\nUnavailable (no detector): %s\n", strings.Join(pruned, ", "))
	}
	return sb.String()
}

// StateMarkdown renders a path state.
func StateMarkdown(st *domain.PathState) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", st.Instrument)
	last := st.LastMode
	if last == "" {
		last = "(none)"
	}
	fmt.Fprintf(&sb, "- **Mode:** %s\n", last)
	fmt.Fprintf(&sb, "- **Quality:** %s\n", st.Quality)
	if !st.UpdatedAt.IsZero() {
		fmt.Fprintf(&sb, "- **Updated:** %s\n", st.UpdatedAt.Format("2006-01-02 15:04:05"))
	}

	if len(st.Stored) > 0 || len(st.Gratings) > 0 {
		sb.WriteString("\n## Remembered positions\n\n")
		sb.WriteString("| Role | Axis | Value |\n|---|---|---|\n")
		for _, s := range st.Stored {
			fmt.Fprintf(&sb, "| %s | %s | %v |\n", s.Role, s.Axis, s.Value)
		}
		for _, g := range st.Gratings {
			fmt.Fprintf(&sb, "| %s | grating | %v (wavelength %v) |\n", g.Role, g.Grating, g.Wavelength)
		}
	}

	if st.Fan.Speed != nil || st.Fan.Temperature != nil {
		sb.WriteString("\n## Camera fan (saved)\n\n")
		if st.Fan.Speed != nil {
			fmt.Fprintf(&sb, "- speed: %v\n", *st.Fan.Speed)
		}
		if st.Fan.Temperature != nil {
			fmt.Fprintf(&sb, "- temperature: %v °C\n", *st.Fan.Temperature)
		}
	}
	return sb.String()
}

// ComponentsMarkdown lists the components with the modes that move them.
func ComponentsMarkdown(components []domain.Component, table domain.ModeTable) string {
	var sb strings.Builder
	sb.WriteString("| Component | Role | Affects | Axes | Modes |\n|---|---|---|---|---|\n")
	for _, c := range components {
		axes := make([]string, 0, len(c.Axes()))
		for a := range c.Axes() {
			axes = append(axes, a)
		}
		slices.Sort(axes)

		var used []string
		for _, m := range table.Modes {
			for _, role := range m.Roles() {
				if domain.MatchRole(role, c.Role()) {
					used = append(used, m.Name)
					break
				}
			}
		}
		fmt.Fprintf(&sb, "| %s | %s | %s | %s | %s |\n",
			c.Name(), c.Role(), strings.Join(c.Affects(), ", "), strings.Join(axes, ", "), strings.Join(used, ", "))
	}
	return sb.String()
}
