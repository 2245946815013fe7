package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/pidsim/internal/pid"
)

const frameInterval = time.Second / 30

type TickMsg time.Time

// Replay animates a recorded run step by step.
type Replay struct {
	variant  pid.Variant
	records  []pid.Record
	playHead int
	speed    int
	running  bool
	showHelp bool
}

func NewReplay(v pid.Variant, records []pid.Record) Replay {
	return Replay{
		variant: v,
		records: records,
		speed:   1,
		running: true,
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Replay) Init() tea.Cmd {
	return tick()
}

func (m Replay) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.playHead = 0
			m.running = true
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-":
			m.speed = max(m.speed/2, 1)
		case "right", "l":
			m.advance(1)
		case "left", "h":
			m.playHead = max(m.playHead-1, 0)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.advance(m.speed)
		}
		return m, tick()
	}
	return m, nil
}

func (m *Replay) advance(n int) {
	m.playHead = min(m.playHead+n, len(m.records))
	if m.playHead == len(m.records) {
		m.running = false
	}
}

// PlayHead is the number of steps shown so far.
func (m Replay) PlayHead() int { return m.playHead }

func (m Replay) View() string {
	var b strings.Builder

	status := StatusRunning.Render("▶ playing")
	if !m.running {
		status = StatusPaused.Render("⏸ paused")
	}
	fmt.Fprintf(&b, "%s  %s  %s\n\n", Title.Render("pidsim replay"), Subtle.Render(m.variant.String()), status)

	shown := m.records[:m.playHead]
	if len(shown) > 1 {
		actual := pid.Series(shown, func(r pid.Record) float64 { return r.Actual })
		b.WriteString(asciigraph.Plot(actual,
			asciigraph.Height(plotHeight),
			asciigraph.Width(plotWidth),
			asciigraph.Caption("actual"),
		))
		b.WriteString("\n\n")
	}

	stats := []string{
		m.stat("step", fmt.Sprintf("%d / %d", m.playHead, len(m.records))),
		m.stat("speed", fmt.Sprintf("x%d", m.speed)),
	}
	if len(shown) > 0 {
		r := shown[len(shown)-1]
		stats = append(stats,
			m.stat("setpoint", fmt.Sprintf("%.4f", r.Setpoint)),
			m.stat("error", fmt.Sprintf("%.6f", r.Error)),
			m.stat("output", fmt.Sprintf("%.6f", r.Output)),
			m.stat("actual", fmt.Sprintf("%.6f", r.Actual)),
			m.stat("integral", fmt.Sprintf("%.4f", r.Integral)),
		)
		if m.variant == pid.VariantIncremental {
			stats = append(stats, m.stat("delta", fmt.Sprintf("%.6f", r.Delta)))
		}
		if m.variant == pid.VariantSeparation {
			stats = append(stats, m.stat("gate", fmt.Sprintf("%.0f", r.Gate)))
		}
	}
	progress := 0.0
	if len(m.records) > 0 {
		progress = float64(m.playHead) / float64(len(m.records))
	}
	stats = append(stats, ProgressBar(progress, 30))
	b.WriteString(Panel.Render(lipgloss.JoinVertical(lipgloss.Left, stats...)))
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(KeyHint.Render("space pause · ←/→ step · +/- speed · r restart · q quit"))
	} else {
		b.WriteString(KeyHint.Render("? help"))
	}
	return b.String()
}

func (m Replay) stat(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value)
}
