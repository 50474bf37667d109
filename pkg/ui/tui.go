package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	executionDomain "github.com/crosspool/poolarb/business/execution/domain"
	"github.com/crosspool/poolarb/pkg/ui/components"
)

// Operator callbacks, set by the composition root before the program
// starts. Invoked from the update loop on their own goroutines.
var (
	OnShutdown func()
	OnRestart  func()
)

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	// Components
	evaluations *components.EvaluationsComponent
	outcomes    *components.OutcomesComponent
	safety      *components.SafetyComponent
	params      *components.ParamsComponent
	stats       *components.StatsComponent

	// State
	ready      bool
	quitting   bool
	paused     bool
	width      int
	height     int
	poolCount  int
	connected  map[string]bool
	lastUpdate time.Time
	errors     []ErrorEntry // last 3
	logs       []string

	// Counters feeding the stats panel
	evaluated   int64
	approved    int64
	executed    int64
	rejected    int64
	totalProfit float64
	errorCount  int64
}

// New creates a new TUI model.
func New(safety *components.SafetyComponent) Model {
	return Model{
		evaluations: components.NewEvaluationsComponent(50),
		outcomes:    components.NewOutcomesComponent(20),
		safety:      safety,
		params:      components.NewParamsComponent(),
		stats:       components.NewStatsComponent(),
		connected:   make(map[string]bool),
		logs:        make([]string, 0, 10),
		errors:      make([]ErrorEntry, 0, 3),
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

// tickCmd returns a command that sends a tick every 100ms for smooth animations.
func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "c":
			m.evaluations.Clear()
			m.outcomes.Clear()
			return m, nil
		case "p":
			m.paused = !m.paused
			return m, nil
		case "s":
			if OnShutdown != nil {
				go OnShutdown()
			}
			return m, nil
		case "r":
			if OnRestart != nil {
				go OnRestart()
			}
			return m, nil
		case "e":
			m.errors = make([]ErrorEntry, 0, 3)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		return m, tickCmd()

	case EvaluationMsg:
		if m.paused || msg.Opportunity == nil {
			return m, nil
		}
		opp := msg.Opportunity
		m.evaluated++
		verdict := msg.Reason
		if msg.Approved {
			m.approved++
		} else {
			m.rejected++
		}
		m.evaluations.Add(components.EvaluationRow{
			Timestamp: opp.CreatedAt.Format("15:04:05"),
			PoolPair:  opp.PoolPair(),
			SpreadPct: opp.SpreadPct,
			Profit:    opp.EstimatedProfit,
			Score:     msg.Score.Overall,
			Risk:      msg.Risk.Overall,
			Approved:  msg.Approved,
			Reason:    verdict,
		})
		m.lastUpdate = time.Now()

	case OutcomeMsg:
		rec := msg.Record
		if rec.Success {
			m.executed++
			m.totalProfit += rec.RealizedProfit.InexactFloat64()
		}
		if rec.Status.Fault() {
			m.errorCount++
		}
		m.outcomes.Add(components.OutcomeRow{
			Timestamp: rec.Timestamp.Format("15:04:05"),
			PoolPair:  rec.PoolPair,
			Status:    string(rec.Status),
			Amount:    rec.TradeAmount,
			Realized:  rec.RealizedProfit,
			Success:   rec.Success,
		})
		m.lastUpdate = time.Now()

	case SafetyMsg:
		m.safety.Update(safetyView(msg.Status))
		m.lastUpdate = time.Now()

	case ParametersMsg:
		m.params.Update(components.ParamsView{
			MinSpreadPct:    msg.Params.MinSpreadPct,
			MinProfit:       msg.Params.MinProfit,
			MaxSlippagePct:  msg.Params.MaxSlippagePct,
			TargetTradeSize: msg.Params.TargetTradeSize,
			RiskTolerance:   msg.Params.RiskTolerance,
		})

	case SnapshotsMsg:
		m.poolCount = len(msg.Snapshots)
		m.lastUpdate = time.Now()

	case ConnectionStatusMsg:
		m.connected[msg.Name] = msg.Connected
		m.lastUpdate = time.Now()

	case ErrorMsg:
		m.errorCount++
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{
			Message:   msg.Error.Error(),
			Timestamp: time.Now(),
		})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)
	}

	return m, nil
}

func safetyView(status executionDomain.SafetyStatus) components.SafetyView {
	return components.SafetyView{
		State:               string(status.State),
		Shutdown:            status.Shutdown,
		ConsecutiveFailures: status.ConsecutiveFailures,
		LossSinceReset:      status.LossSinceReset,
		LastLossReset:       status.LastLossReset,
	}
}

// addLog adds a log message and returns the updated slice (keeps last 5).
func addLog(logs []string, level, message string) []string {
	timestamp := time.Now().Format("15:04:05")
	logLine := fmt.Sprintf("[%s] %s: %s", timestamp, level, message)
	logs = append(logs, logLine)
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}
	if !m.ready {
		return "\n  Starting..."
	}

	var b strings.Builder

	title := TitleStyle.Render(" 🔁 Cross-Pool Arbitrage Pipeline ")
	b.WriteString(title)
	b.WriteString("\n\n")

	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	m.stats.Update(components.Stats{
		Evaluated:   m.evaluated,
		Approved:    m.approved,
		Executed:    m.executed,
		Rejected:    m.rejected,
		TotalProfit: m.totalProfit,
		Errors:      m.errorCount,
	})

	// Top row: safety gate, parameters, stats
	topRow := lipgloss.JoinHorizontal(lipgloss.Top,
		BoxStyle.Render(m.safety.View()),
		BoxStyle.Render(m.params.View()),
		BoxStyle.Render(m.stats.View()),
	)
	b.WriteString(topRow)
	b.WriteString("\n")

	// Main content: evaluations above executions
	if m.width > 100 {
		b.WriteString(BoxStyle.Width(m.width - 4).Render(m.evaluations.View()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(m.width - 4).Render(m.outcomes.View()))
	} else {
		b.WriteString(BoxStyle.Render(m.evaluations.View()))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Render(m.outcomes.View()))
	}

	b.WriteString("\n")

	if len(m.errors) > 0 {
		errorStyle := lipgloss.NewStyle().Foreground(ColorDanger)
		errorHeader := lipgloss.NewStyle().Bold(true).Foreground(ColorDanger)
		mutedError := lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))

		b.WriteString(errorHeader.Render("ERRORS"))
		b.WriteString(mutedError.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(errorStyle.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(mutedError.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
	}

	helpText := "q: quit • c: clear • p: pause • s: shutdown gate • r: restart gate"
	if m.paused {
		pauseStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)
		b.WriteString(pauseStyle.Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render(helpText))

	return b.String()
}

// renderStatusBar renders the top status line.
func (m Model) renderStatusBar() string {
	var parts []string

	for name, connected := range m.connected {
		if connected {
			parts = append(parts, StatusClosed.Render("● "+name))
		} else {
			parts = append(parts, StatusOpen.Render("○ "+name))
		}
	}

	parts = append(parts, MutedValue.Render(fmt.Sprintf("pools: %d", m.poolCount)))

	if !m.lastUpdate.IsZero() {
		parts = append(parts, MutedValue.Render(
			fmt.Sprintf("updated %s ago", time.Since(m.lastUpdate).Round(time.Second))))
	}

	return strings.Join(parts, "  │  ")
}
