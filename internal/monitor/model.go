// Package monitor is the live device memory view behind `devicemgr watch`.
package monitor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/docker/go-units"

	"devicemgr/internal/accelerator"
	"devicemgr/internal/telemetry"
)

// historySize is the number of samples kept for the sparkline
const historySize = 40

// DefaultInterval is the polling interval when none is given
const DefaultInterval = 2 * time.Second

// Sampler produces memory readings; telemetry.Telemetry satisfies it
type Sampler interface {
	Sample(ctx context.Context) telemetry.Reading
}

type tickMsg time.Time

// sampleMsg carries a reading. polled marks samples taken by the tick
// loop; only those schedule the next tick.
type sampleMsg struct {
	reading telemetry.Reading
	at      time.Time
	polled  bool
}

// Recorder persists samples as they arrive
type Recorder interface {
	Write(rec telemetry.Record) error
}

// Model is the bubbletea model polling a Sampler
type Model struct {
	env      *accelerator.Environment
	sampler  Sampler
	interval time.Duration
	recorder Recorder
	recErr   error

	startTime time.Time
	quitting  bool
	paused    bool
	polling   bool // a tick or a polled sample is in flight

	last     telemetry.Reading
	lastAt   time.Time
	samples  int
	failures int
	history  []int
}

// NewModel creates a monitor for env
func NewModel(env *accelerator.Environment, sampler Sampler, interval time.Duration) Model {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return Model{
		env:       env,
		sampler:   sampler,
		interval:  interval,
		startTime: time.Now(),
		polling:   true,
	}
}

// WithRecorder returns a copy of m that writes every sample to r
func (m Model) WithRecorder(r Recorder) Model {
	m.recorder = r
	return m
}

// Init takes the first sample immediately
func (m Model) Init() tea.Cmd {
	return m.sample(true)
}

// Update handles keys, ticks and samples
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())
	case tickMsg:
		if m.paused {
			m.polling = false
			return m, nil
		}
		return m, m.sample(true)
	case sampleMsg:
		m = m.record(msg)
		if !msg.polled {
			return m, nil
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q", "esc":
		m.quitting = true
		return m, tea.Quit
	case "p", " ":
		m.paused = !m.paused
		if !m.paused {
			if !m.polling {
				m.polling = true
				return m, m.sample(true)
			}
			return m, m.sample(false)
		}
	case "r":
		return m, m.sample(false)
	}
	return m, nil
}

func (m Model) record(msg sampleMsg) Model {
	m.last = msg.reading
	m.lastAt = msg.at
	m.samples++
	if msg.reading.Source == "" && m.env.IsAccelerated() {
		m.failures++
	}

	history := append([]int(nil), m.history...)
	history = append(history, msg.reading.UsedMB)
	if len(history) > historySize {
		history = history[len(history)-historySize:]
	}
	m.history = history

	if m.recorder != nil {
		m.recErr = m.recorder.Write(telemetry.NewRecord(m.env.DeviceString(), msg.reading, msg.at))
	}
	return m
}

func (m Model) sample(polled bool) tea.Cmd {
	sampler := m.sampler
	return func() tea.Msg {
		return sampleMsg{reading: sampler.Sample(context.Background()), at: time.Now(), polled: polled}
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// View renders the monitor
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00d7ff")).MarginBottom(1)
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#87d7af")).Width(12)
	warnStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#ffd700"))
	hintStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#5fafff")).MarginTop(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("devicemgr watch"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	row("Device", m.env.DeviceString())
	if name := m.env.DeviceName(); name != "" {
		row("GPU", name)
	}
	row("Providers", strings.Join(m.env.ProviderStrings(), ", "))
	if reason := m.env.ForcedCPUReason().String(); reason != "" {
		row("Forced CPU", warnStyle.Render(reason))
	}

	if !m.env.IsAccelerated() {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Compute runs on the CPU: no device memory to sample."))
		b.WriteString("\n")
	} else {
		row("Memory", m.memoryLine())
		row("History", Sparkline(m.history))
		if m.last.Source != "" {
			row("Source", m.last.Source)
		}
		if m.failures > 0 {
			row("Failures", warnStyle.Render(fmt.Sprintf("%d of %d samples", m.failures, m.samples)))
		}
	}
	if m.recErr != nil {
		row("Recording", warnStyle.Render(m.recErr.Error()))
	}

	status := fmt.Sprintf("every %s", m.interval)
	if m.paused {
		status = "paused"
	}
	b.WriteString(hintStyle.Render(fmt.Sprintf("%s · up %s · q quit · p pause · r refresh",
		status, time.Since(m.startTime).Truncate(time.Second))))
	b.WriteString("\n")
	return b.String()
}

func (m Model) memoryLine() string {
	if m.samples == 0 {
		return "sampling..."
	}
	if m.last.TotalMB == 0 {
		return "unavailable"
	}
	return fmt.Sprintf("%s %s / %s (%.0f%%)",
		Bar(m.last.UsedMB, m.last.TotalMB, 24),
		HumanMB(m.last.UsedMB),
		HumanMB(m.last.TotalMB),
		100*float64(m.last.UsedMB)/float64(m.last.TotalMB))
}

// HumanMB formats a size given in MiB
func HumanMB(mb int) string {
	return units.BytesSize(float64(mb) * 1024 * 1024)
}

// Bar renders used/total as a fixed-width bar
func Bar(used, total, width int) string {
	if width <= 0 {
		return ""
	}
	pct := 0.0
	if total > 0 {
		pct = float64(used) / float64(total)
	}
	bar := progress.New(
		progress.WithSolidFill("#00d7ff"),
		progress.WithoutPercentage(),
		progress.WithWidth(width),
	)
	return bar.ViewAs(pct)
}

var sparkTicks = []rune("▁▂▃▄▅▆▇█")

// Sparkline scales values between their min and max
func Sparkline(values []int) string {
	if len(values) == 0 {
		return ""
	}
	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	out := make([]rune, len(values))
	for i, v := range values {
		idx := 0
		if hi > lo {
			idx = (v - lo) * (len(sparkTicks) - 1) / (hi - lo)
		}
		out[i] = sparkTicks[idx]
	}
	return string(out)
}
