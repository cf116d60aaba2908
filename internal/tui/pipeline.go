package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// roleState tracks where one role is in its stage.
type roleState int

const (
	rolePending roleState = iota
	roleRunning
	roleDone
	roleFailed
)

// Pipeline displays the run's stages and the status of every role in them.
type Pipeline struct {
	stages [][]string
	states map[string]roleState
	frame  string // current spinner frame for running roles
	width  int
}

// NewPipeline creates a pipeline view for the given stages.
func NewPipeline(stages [][]string) *Pipeline {
	states := make(map[string]roleState)
	for _, stage := range stages {
		for _, role := range stage {
			states[role] = rolePending
		}
	}
	return &Pipeline{stages: stages, states: states}
}

// SetWidth sets the component width.
func (p *Pipeline) SetWidth(w int) {
	p.width = w
}

// SetSpinnerFrame sets the glyph shown next to running roles.
func (p *Pipeline) SetSpinnerFrame(frame string) {
	p.frame = frame
}

// SetState updates one role's state.
func (p *Pipeline) SetState(role string, state roleState) {
	if _, ok := p.states[role]; ok {
		p.states[role] = state
	}
}

// Running reports whether any role is still in flight.
func (p *Pipeline) Running() bool {
	for _, s := range p.states {
		if s == roleRunning {
			return true
		}
	}
	return false
}

// View renders the pipeline as one line per stage.
func (p *Pipeline) View() string {
	contentWidth := p.width - 4
	if contentWidth < 40 {
		contentWidth = 40
	}

	var lines []string
	for i, stage := range p.stages {
		var cells []string
		for _, role := range stage {
			cells = append(cells, p.renderRole(role))
		}
		label := stageLabelStyle.Render(fmt.Sprintf("Stage %d", i+1))
		lines = append(lines, label+headerLabelStyle.Render(": ")+strings.Join(cells, headerLabelStyle.Render("  ")))
	}

	return pipelineStyle.Width(contentWidth).Render(strings.Join(lines, "\n"))
}

// renderRole renders one role name with its status glyph.
func (p *Pipeline) renderRole(role string) string {
	var glyph, name string
	switch p.states[role] {
	case roleRunning:
		frame := p.frame
		if frame == "" {
			frame = "~"
		}
		glyph = roleRunningStyle.Render(frame)
		name = roleNameStyle.Render(role)
	case roleDone:
		glyph = roleDoneStyle.Render("✓")
		name = roleNameStyle.Render(role)
	case roleFailed:
		glyph = roleFailedStyle.Render("✗")
		name = roleFailedStyle.Render(role)
	default:
		glyph = rolePendingStyle.Render("·")
		name = rolePendingStyle.Render(role)
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, glyph, " ", name)
}
