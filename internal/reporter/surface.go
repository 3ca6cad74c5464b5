package reporter

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/notistore/internal/theme"
)

// StatusRequest is what the reporter asks a surface to display.
type StatusRequest struct {
	Title   string
	Lines   []string
	Ongoing bool
}

// Surface displays a status indicator until it is replaced.
type Surface interface {
	Render(req StatusRequest) error
}

// TerminalSurface draws the status indicator as a bordered panel.
type TerminalSurface struct {
	mu  sync.Mutex
	out io.Writer
}

// NewTerminalSurface returns a surface writing to out.
func NewTerminalSurface(out io.Writer) *TerminalSurface {
	return &TerminalSurface{out: out}
}

// Render implements Surface.
func (t *TerminalSurface) Render(req StatusRequest) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	_, err := fmt.Fprintln(t.out, FormatPanel(req))
	return err
}

// FormatPanel renders req the way TerminalSurface prints it.
func FormatPanel(req StatusRequest) string {
	body := make([]string, 0, len(req.Lines)+1)
	body = append(body, theme.HeaderStyle.Render(req.Title))
	for _, line := range req.Lines {
		body = append(body, theme.MutedStyle.Render(line))
	}
	return theme.StatusPanelStyle.Render(lipgloss.JoinVertical(lipgloss.Left, body...))
}

// RecordingSurface keeps every request it is given.
type RecordingSurface struct {
	mu       sync.Mutex
	requests []StatusRequest
}

// Render implements Surface.
func (r *RecordingSurface) Render(req StatusRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	req.Lines = append([]string(nil), req.Lines...)
	r.requests = append(r.requests, req)
	return nil
}

// Requests returns a copy of the recorded requests.
func (r *RecordingSurface) Requests() []StatusRequest {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]StatusRequest(nil), r.requests...)
}

// Last returns the most recent request.
func (r *RecordingSurface) Last() (StatusRequest, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.requests) == 0 {
		return StatusRequest{}, false
	}
	return r.requests[len(r.requests)-1], true
}

// requestFor turns a rollup into a surface request.
func requestFor(r Rollup) StatusRequest {
	lines := make([]string, 0, len(r.Icons))
	for _, icon := range r.Icons {
		label := icon.AppName
		if label == "" {
			label = icon.PackageName
		}
		lines = append(lines, strings.TrimSpace(icon.Image+" "+label))
	}
	return StatusRequest{
		Title:   r.CountText,
		Lines:   lines,
		Ongoing: true,
	}
}
