package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
)

// ScrollablePanel is a scrollable text panel backed by a viewport.
type ScrollablePanel struct {
	Title      string
	viewport   viewport.Model
	content    strings.Builder
	AutoScroll bool
	width      int
	height     int
	dirty      bool // content changed since last viewport sync
}

// NewScrollablePanel creates a new scrollable panel.
func NewScrollablePanel(title string) ScrollablePanel {
	vp := viewport.New(80, 10)
	return ScrollablePanel{
		Title:      title,
		viewport:   vp,
		AutoScroll: true,
	}
}

// SetSize sets the panel dimensions.
func (p *ScrollablePanel) SetSize(width, height int) {
	p.width = width
	p.height = height

	// Account for title line and borders
	viewportWidth := width - 4
	viewportHeight := height - 4
	if viewportWidth < 10 {
		viewportWidth = 10
	}
	if viewportHeight < 3 {
		viewportHeight = 3
	}

	p.viewport.Width = viewportWidth
	p.viewport.Height = viewportHeight
}

// AppendLine adds a line of content with a newline.
// This is O(1) - viewport sync is deferred until View() is called.
func (p *ScrollablePanel) AppendLine(line string) {
	p.content.WriteString(line)
	p.content.WriteString("\n")
	p.dirty = true
}

// Content returns the current content.
func (p *ScrollablePanel) Content() string {
	return p.content.String()
}

// ScrollUp scrolls up by n lines.
func (p *ScrollablePanel) ScrollUp(n int) {
	p.viewport.LineUp(n)
	p.AutoScroll = false
}

// ScrollDown scrolls down by n lines.
func (p *ScrollablePanel) ScrollDown(n int) {
	p.viewport.LineDown(n)
	if p.viewport.AtBottom() {
		p.AutoScroll = true
	}
}

// syncViewport updates the viewport with accumulated content changes.
// This batches multiple AppendLine calls into a single viewport update,
// converting O(n²) streaming behavior to O(n).
func (p *ScrollablePanel) syncViewport() {
	if !p.dirty {
		return
	}
	p.viewport.SetContent(p.content.String())
	if p.AutoScroll {
		p.viewport.GotoBottom()
	}
	p.dirty = false
}

// View renders the panel.
func (p *ScrollablePanel) View() string {
	// Sync any pending content changes before rendering
	p.syncViewport()
	contentWidth := p.width - 2 // Account for border
	if contentWidth < 10 {
		contentWidth = 10
	}

	// Title line
	title := panelTitleStyle.Render(p.Title)

	// Scroll indicator
	scrollIndicator := ""
	if p.AutoScroll {
		scrollIndicator = scrollIndicatorStyle.Render("[auto-scroll]")
	} else {
		scrollIndicator = scrollIndicatorStyle.Render("[scroll]")
	}

	// Title with scroll indicator right-aligned
	titleWidth := lipgloss.Width(title)
	indicatorWidth := lipgloss.Width(scrollIndicator)
	spacing := contentWidth - titleWidth - indicatorWidth - 2
	if spacing < 1 {
		spacing = 1
	}
	titleLine := title + strings.Repeat(" ", spacing) + scrollIndicator

	content := titleLine + "\n" + p.viewport.View()

	return panelStyle.Width(contentWidth).Render(content)
}

// AtBottom returns whether the viewport is at the bottom.
func (p *ScrollablePanel) AtBottom() bool {
	return p.viewport.AtBottom()
}
