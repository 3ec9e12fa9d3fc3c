package tui

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/picalc/internal/config"
	apperrors "github.com/agbru/picalc/internal/errors"
	"github.com/agbru/picalc/internal/format"
	"github.com/agbru/picalc/internal/metrics"
	"github.com/agbru/picalc/internal/orchestration"
	"github.com/agbru/picalc/internal/sysmon"
)

// ExecutionState holds the execution-related fields of a TUI session.
type ExecutionState struct {
	ctx        context.Context
	cancel     context.CancelFunc
	generation uint64
	done       bool
	exitCode   int
}

// Model is the root bubbletea model for the TUI dashboard.
type Model struct {
	header  HeaderModel
	metrics MetricsModel
	bar     progress.Model
	help    help.Model
	keymap  KeyMap

	ExecutionState

	width  int
	height int

	latest ProgressMsg
	result *orchestration.RunResult
	runErr error

	parentCtx context.Context
	config    config.AppConfig
	runOpts   []orchestration.Option
	ref       *programRef
	paused    bool
}

// NewModel creates a new TUI model. runOpts are forwarded to every run the
// model starts, including restarts.
func NewModel(parentCtx context.Context, cfg config.AppConfig, version string, runOpts ...orchestration.Option) Model {
	ctx, cancel := context.WithCancel(parentCtx)

	return Model{
		header:  NewHeaderModel(version),
		metrics: NewMetricsModel(),
		bar:     newProgressBar(),
		help:    help.New(),
		keymap:  DefaultKeyMap(),
		ExecutionState: ExecutionState{
			ctx:      ctx,
			cancel:   cancel,
			exitCode: apperrors.ExitSuccess,
		},
		parentCtx: parentCtx,
		config:    cfg,
		runOpts:   runOpts,
		ref:       &programRef{},
	}
}

func newProgressBar() progress.Model {
	opts := []progress.Option{progress.WithoutPercentage()}
	if barColor != "" {
		opts = append(opts, progress.WithSolidFill(barColor))
	}
	return progress.New(opts...)
}

// Init returns the initial commands.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		startRunCmd(m.ref, m.ctx, m.config, m.generation, m.runOpts),
		watchContextCmd(m.ctx, m.generation),
	)
}

// Update handles all incoming messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layoutPanels()
		return m, nil

	case ProgressMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.latest = msg
		if !m.paused {
			m.metrics.UpdateProgress(msg.Fraction)
		}
		return m, nil

	case ProgressDoneMsg:
		return m, nil

	case FinalResultMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		res := msg.Result
		m.result = &res
		m.latest.Received = m.latest.Expected
		m.latest.Fraction = 1
		m.latest.ETA = 0
		return m, nil

	case ErrorMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.runErr = msg.Err
		m.done = true
		m.header.SetDone()
		return m, nil

	case TickMsg:
		if m.done {
			return m, nil
		}
		if !m.paused {
			return m, tea.Batch(sampleMemStatsCmd(), sampleSysStatsCmd(), tickCmd())
		}
		return m, tickCmd()

	case MemStatsMsg:
		m.metrics.UpdateMemStats(msg)
		return m, nil

	case SysStatsMsg:
		m.metrics.UpdateSysStats(msg)
		return m, nil

	case RunCompleteMsg:
		if msg.Generation != m.generation {
			return m, nil // stale message from a restarted run
		}
		m.done = true
		m.exitCode = msg.ExitCode
		m.header.SetDone()
		return m, nil

	case ContextCancelledMsg:
		if msg.Generation != m.generation {
			return m, nil
		}
		m.done = true
		if m.result == nil && m.runErr == nil {
			m.exitCode = apperrors.ExitCodeFor(msg.Err)
		}
		m.header.SetDone()
		return m, tea.Quit
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.Quit):
		if !m.done {
			m.exitCode = apperrors.ExitErrorCanceled
		}
		if m.cancel != nil {
			m.cancel()
		}
		return m, tea.Quit

	case key.Matches(msg, m.keymap.Pause):
		m.paused = !m.paused
		return m, nil

	case key.Matches(msg, m.keymap.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keymap.Reset):
		if m.cancel != nil {
			m.cancel()
		}

		m.generation++
		ctx, cancel := context.WithCancel(m.parentCtx)
		m.ctx = ctx
		m.cancel = cancel

		m.header.Reset()
		m.metrics = NewMetricsModel()
		m.layoutPanels()
		m.latest = ProgressMsg{Generation: m.generation}
		m.result = nil
		m.runErr = nil
		m.done = false
		m.paused = false
		m.exitCode = apperrors.ExitSuccess

		return m, tea.Batch(
			tickCmd(),
			startRunCmd(m.ref, m.ctx, m.config, m.generation, m.runOpts),
			watchContextCmd(m.ctx, m.generation),
		)
	}

	return m, nil
}

// View renders the entire dashboard.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		m.progressView(),
		m.metrics.View(),
		m.resultView(),
		" "+m.help.View(m.keymap),
	)
}

func (m Model) status() string {
	switch {
	case m.runErr != nil:
		return statusErrorStyle.Render("ERROR")
	case m.result != nil:
		return statusDoneStyle.Render("DONE")
	case m.paused:
		return statusPausedStyle.Render("PAUSED")
	default:
		return statusRunningStyle.Render("RUNNING")
	}
}

func (m Model) progressView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Progress"))
	b.WriteString("  ")
	b.WriteString(m.status())
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(m.latest.Fraction))
	fmt.Fprintf(&b, " %5.1f%%\n", m.latest.Fraction*100)

	expected := m.latest.Expected
	if expected == 0 {
		expected = m.config.Workers
	}
	b.WriteString(labelStyle.Render("Partial sums: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d/%d", m.latest.Received, expected)))
	b.WriteString(labelStyle.Render("   Terms: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d", m.config.Length)))
	b.WriteString(labelStyle.Render("   ETA: "))
	b.WriteString(valueStyle.Render(format.FormatETA(m.latest.ETA)))

	return panelStyle.Width(max(m.width-2, 0)).Render(b.String())
}

func (m Model) resultView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Result"))
	b.WriteString("\n")
	switch {
	case m.runErr != nil:
		b.WriteString(errorTextStyle.Render(m.runErr.Error()))
	case m.result != nil:
		b.WriteString(labelStyle.Render("π ≈ "))
		b.WriteString(piStyle.Render(fmt.Sprintf("%v", m.result.Pi)))
		b.WriteString(labelStyle.Render("   in "))
		b.WriteString(valueStyle.Render(format.FormatSeconds(m.result.Duration) + "s"))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render("Absolute error: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.3e", metrics.AbsError(m.result.Pi))))
		b.WriteString(labelStyle.Render("   Correct digits: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%d", metrics.CorrectDigits(m.result.Pi))))
	default:
		b.WriteString(labelStyle.Render("Summing series..."))
	}
	return panelStyle.Width(max(m.width-2, 0)).Render(b.String())
}

func (m *Model) layoutPanels() {
	m.header.SetWidth(m.width)
	m.metrics.SetSize(m.width, 0)
	m.bar.Width = max(m.width-14, 10)
	m.help.Width = m.width
}

// Run is the public entry point for the TUI mode.
// It creates the bubbletea program, runs it, and returns the exit code.
func Run(ctx context.Context, cfg config.AppConfig, version string, runOpts ...orchestration.Option) int {
	// Rebuild styles from the current ui theme (set by app.Run via InitTheme).
	initTUIStyles()

	model := NewModel(ctx, cfg, version, runOpts...)
	defer model.cancel()

	p := tea.NewProgram(model, tea.WithAltScreen())
	// Inject the program reference before running so bridge goroutines can Send.
	model.ref.SetProgram(p)

	finalModel, err := p.Run()
	if m, ok := finalModel.(Model); ok {
		m.cancel()
		return m.exitCode
	}
	if err != nil {
		return apperrors.ExitCodeFor(err)
	}
	return apperrors.ExitSuccess
}

// startRunCmd returns a tea.Cmd that launches the orchestration.
func startRunCmd(ref *programRef, ctx context.Context, cfg config.AppConfig, gen uint64, runOpts []orchestration.Option) tea.Cmd {
	return func() tea.Msg {
		reporter := &TUIProgressReporter{ref: ref, gen: gen}
		presenter := &TUIResultPresenter{ref: ref, gen: gen}

		opts := append(slices.Clone(runOpts), orchestration.WithTimeout(cfg.Timeout))
		result := orchestration.ExecuteRun(ctx, cfg.ToRunOptions(), reporter, io.Discard, opts...)
		presOpts := orchestration.PresentationOptions{
			Verbose: cfg.Verbose,
			Details: cfg.Details,
		}
		exitCode := orchestration.PresentRun(result, presOpts, presenter, presenter, io.Discard)

		return RunCompleteMsg{ExitCode: exitCode, Generation: gen}
	}
}

// tickCmd returns a command that sends a TickMsg after 500ms.
func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// sampleMemStatsCmd reads runtime memory stats and returns a MemStatsMsg.
func sampleMemStatsCmd() tea.Cmd {
	return func() tea.Msg {
		var ms runtime.MemStats
		runtime.ReadMemStats(&ms)
		return MemStatsMsg{
			Alloc:        ms.Alloc,
			HeapInuse:    ms.HeapInuse,
			NumGC:        ms.NumGC,
			PauseTotalNs: ms.PauseTotalNs,
			NumGoroutine: runtime.NumGoroutine(),
		}
	}
}

// sampleSysStatsCmd reads system-wide CPU and memory stats and returns a SysStatsMsg.
func sampleSysStatsCmd() tea.Cmd {
	return func() tea.Msg {
		s := sysmon.Sample()
		return SysStatsMsg{
			CPUPercent: s.CPUPercent,
			MemPercent: s.MemPercent,
		}
	}
}

// watchContextCmd waits for context cancellation and sends a message.
func watchContextCmd(ctx context.Context, gen uint64) tea.Cmd {
	return func() tea.Msg {
		<-ctx.Done()
		return ContextCancelledMsg{Err: ctx.Err(), Generation: gen}
	}
}
