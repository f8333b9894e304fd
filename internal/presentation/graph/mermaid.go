package graph

import (
	"fmt"
	"slices"
	"strings"

	"github.com/delmic/odemis-sub008/internal/topology"
	"github.com/delmic/odemis-sub008/pkg/domain"
)

// GraphOverlay marks the components on the active optical path.
type GraphOverlay struct {
	OnPath []string
	Target string
}

// PathOverlay returns the overlay of the path leading to target: every
// component that affects it, in component order.
func PathOverlay(g *topology.Graph, components []domain.Component, target string) *GraphOverlay {
	o := &GraphOverlay{Target: target}
	for _, c := range components {
		if c.Name() != target && g.Affects(c.Name(), target) {
			o.OnPath = append(o.OnPath, c.Name())
		}
	}
	return o
}

// GenerateMermaid produces a Mermaid flowchart of the affects relation.
// Shapes:
// - Detector (affects nothing): ((Circle))
// - Actuator (has axes): [Rectangle], with its axes
// - Other: (Rounded)
// Affects edges towards names that are not components are dotted.
func GenerateMermaid(components []domain.Component, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	known := make(map[string]bool, len(components))
	for _, c := range components {
		known[c.Name()] = true
	}

	for _, c := range components {
		id := sanitizeMermaidID(c.Name())
		label := c.Name()
		if c.Role() != "" && c.Role() != c.Name() {
			label += " <br/> " + c.Role()
		}

		opener, closer := "(", ")"
		switch axes := c.Axes(); {
		case len(c.Affects()) == 0:
			opener, closer = "((", "))"
		case len(axes) > 0:
			opener, closer = "[", "]"
			names := make([]string, 0, len(axes))
			for a := range axes {
				names = append(names, a)
			}
			slices.Sort(names)
			label += " <br/> " + strings.Join(names, ", ")
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", id, opener, label, closer))

		for _, to := range c.Affects() {
			arrow := "-->"
			if !known[to] {
				arrow = "-.->"
			}
			sb.WriteString(fmt.Sprintf("    %s %s %s\n", id, arrow, sanitizeMermaidID(to)))
		}
	}

	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef onpath fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef target fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[string]bool)
		for _, name := range overlay.OnPath {
			id := sanitizeMermaidID(name)
			if !seen[id] && id != "" {
				seen[id] = true
				sb.WriteString(fmt.Sprintf("    class %s onpath;\n", id))
			}
		}
		if overlay.Target != "" {
			sb.WriteString(fmt.Sprintf("    class %s target;\n", sanitizeMermaidID(overlay.Target)))
		}
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
