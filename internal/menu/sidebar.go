package menu

// Sidebar widths in pixels.
const (
	CollapsedWidth = 80
	ExpandedWidth  = 256
)

// Sidebar is the collapse state of the navigation shell. It only affects
// rendering.
type Sidebar struct {
	Collapsed bool `json:"collapsed"`
}

// Toggle returns the sidebar with its collapse state flipped.
func (s Sidebar) Toggle() Sidebar {
	return Sidebar{Collapsed: !s.Collapsed}
}

// Width returns the rendered width.
func (s Sidebar) Width() int {
	if s.Collapsed {
		return CollapsedWidth
	}
	return ExpandedWidth
}
