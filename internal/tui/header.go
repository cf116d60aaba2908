package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Header displays the run identity, its status, and key hints.
type Header struct {
	Workstream string
	Branch     string
	RunID      string
	Status     string
	width      int
}

// NewHeader creates a header for one run.
func NewHeader(workstream, branch string) Header {
	return Header{
		Workstream: workstream,
		Branch:     branch,
		Status:     "Pending",
	}
}

// SetStatus sets the status text.
func (h *Header) SetStatus(status string) {
	h.Status = status
}

// SetRunID sets the run identifier shown in the header.
func (h *Header) SetRunID(id string) {
	h.RunID = id
}

// SetWidth sets the component width.
func (h *Header) SetWidth(w int) {
	h.width = w
}

// View renders the header.
func (h Header) View() string {
	contentWidth := h.width - 4 // Account for border padding
	if contentWidth < 40 {
		contentWidth = 40
	}

	separator := headerLabelStyle.Render("  |  ")

	parts := []string{
		headerLabelStyle.Render("Workstream: ") + headerValueStyle.Render(h.Workstream),
		headerLabelStyle.Render("Branch: ") + headerValueStyle.Render(h.Branch),
	}
	if h.RunID != "" {
		parts = append(parts, headerLabelStyle.Render("Run: ")+headerValueStyle.Render(shortID(h.RunID)))
	}
	parts = append(parts, headerLabelStyle.Render("Status: ")+h.renderStatus())

	leftContent := strings.Join(parts, separator)

	// Right side: Key hints
	hints := h.renderKeyHints()

	// Calculate spacing
	leftWidth := lipgloss.Width(leftContent)
	hintsWidth := lipgloss.Width(hints)
	spacing := contentWidth - leftWidth - hintsWidth
	if spacing < 1 {
		spacing = 1
	}

	content := leftContent + strings.Repeat(" ", spacing) + hints

	style := headerStyle.Width(contentWidth)
	return style.Render(content)
}

// renderStatus renders the status with appropriate styling.
func (h Header) renderStatus() string {
	status := h.Status
	if status == "" {
		status = "Pending"
	}

	switch strings.ToLower(status) {
	case "running", "submitting":
		return statusRunningStyle.Render(status)
	case "completed", "done":
		return statusCompletedStyle.Render(status)
	case "failed", "error":
		return statusFailedStyle.Render(status)
	default:
		return statusPendingStyle.Render(status)
	}
}

// renderKeyHints renders the key binding hints.
func (h Header) renderKeyHints() string {
	parts := []string{
		h.renderHint("↑↓", "scroll"),
		h.renderHint("q", "quit"),
	}
	return strings.Join(parts, helpSeparatorStyle.Render("  "))
}

// renderHint renders a single key hint.
func (h Header) renderHint(key, desc string) string {
	return helpKeyStyle.Render(key) + helpDescStyle.Render(":"+desc)
}

// shortID truncates a UUID to its first segment for display.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
