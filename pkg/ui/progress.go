package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
	barWidth      = 20
)

var (
	barStyle      = lipgloss.NewStyle().Foreground(green)
	barEmptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#333333"))
)

// Progress tracks a batch of downloads for terminal output
type Progress struct {
	mu        sync.Mutex
	total     int
	done      int
	failed    int
	startTime time.Time
}

// NewProgress creates a tracker for total items
func NewProgress(total int) *Progress {
	return &Progress{total: total, startTime: time.Now()}
}

// Update records the current count, as reported by archive builds
func (p *Progress) Update(current, total int) {
	p.mu.Lock()
	p.done = current
	p.total = total
	p.mu.Unlock()
}

// Succeed records one finished item
func (p *Progress) Succeed() {
	p.mu.Lock()
	p.done++
	p.mu.Unlock()
}

// Fail records one failed item
func (p *Progress) Fail() {
	p.mu.Lock()
	p.done++
	p.failed++
	p.mu.Unlock()
}

// Counts returns processed, failed and total
func (p *Progress) Counts() (done, failed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done, p.failed, p.total
}

// Elapsed returns the time since the tracker was created
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.startTime)
}

// Bar renders the progress bar without styling
func (p *Progress) Bar() string {
	done, _, total := p.Counts()
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %d/%d",
		strings.Repeat(ProgressBar, filled),
		strings.Repeat(ProgressEmpty, barWidth-filled),
		done, total)
}

// Print writes the current state on one line, rewriting it on terminals
func (p *Progress) Print(pr *Printer) {
	line := p.Bar()
	if !pr.color {
		fmt.Fprintln(pr.out, line)
		return
	}
	done, _, total := p.Counts()
	filled := 0
	if total > 0 {
		filled = min(done*barWidth/total, barWidth)
	}
	fmt.Fprintf(pr.out, "\r[%s%s] %d/%d",
		barStyle.Render(strings.Repeat(ProgressBar, filled)),
		barEmptyStyle.Render(strings.Repeat(ProgressEmpty, barWidth-filled)),
		done, total)
	if done >= total {
		fmt.Fprintln(pr.out)
	}
}
