package ui

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Vaishnavi-Hegde17/enginetwin/engine"
	"github.com/Vaishnavi-Hegde17/enginetwin/model"
	"github.com/Vaishnavi-Hegde17/enginetwin/report"
	"github.com/Vaishnavi-Hegde17/enginetwin/util"
)

// Page identifies which view is active.
type Page int

const (
	PageOverview Page = iota
	PageTrends
	PageRanges
	PageEvents
	pageCount
)

var pageNames = []string{"overview", "trends", "ranges", "events"}

type tickMsg time.Time

type collectMsg struct {
	snap   *model.Snapshot
	result *model.AnalysisResult
}

type saveConfirmMsg struct {
	path string
	err  error
}

type exportMsg struct {
	res *report.ExportResult
	err error
}

// Options configures the dashboard beyond its ticker.
type Options struct {
	DataDir    string
	ExportPath string
	Exporter   *report.Exporter
	StartPage  string
	Debounce   int // consecutive anomalous readings that open an event
}

// Model is the bubbletea model.
type Model struct {
	ticker   engine.Ticker
	engine   *engine.Engine
	interval time.Duration
	opts     Options

	width  int
	height int

	snap    *model.Snapshot
	result  *model.AnalysisResult
	lastErr string

	page     Page
	showHelp bool
	scroll   int
	selected int
	paused   bool

	saveMsg     string
	saveMsgTime time.Time

	eventDetector *engine.EventDetector
	eventLog      *engine.EventLogWriter
}

// NewModel creates a new TUI model.
func NewModel(ticker engine.Ticker, interval time.Duration, opts Options) Model {
	if opts.Exporter == nil {
		opts.Exporter = report.NewExporter(2, report.A4)
	}
	if opts.ExportPath == "" {
		opts.ExportPath = report.DefaultFileName
	}
	m := Model{
		ticker:        ticker,
		engine:        ticker.Base(),
		interval:      interval,
		opts:          opts,
		page:          pageByName(opts.StartPage),
		eventDetector: engine.NewEventDetector(),
	}
	if opts.Debounce > 0 {
		m.eventDetector.SetDebounce(opts.Debounce)
	}
	if opts.DataDir != "" {
		path := filepath.Join(opts.DataDir, "events.jsonl")
		if events, err := engine.ReadEventLog(path); err == nil {
			m.eventDetector.LoadEvents(events)
		}
		m.eventLog = engine.NewEventLogWriter(path)
	}
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(tick(m.interval), collectOnce(m.ticker))
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func collectOnce(ticker engine.Ticker) tea.Cmd {
	return func() tea.Msg {
		snap, result := ticker.Tick(context.Background())
		return collectMsg{snap: snap, result: result}
	}
}

func saveReading(dir string, snap *model.Snapshot, result *model.AnalysisResult) tea.Cmd {
	return func() tea.Msg {
		data := struct {
			Snapshot *model.Snapshot       `json:"snapshot"`
			Result   *model.AnalysisResult `json:"result"`
		}{snap, result}
		out, err := json.MarshalIndent(data, "", "  ")
		if err != nil {
			return saveConfirmMsg{err: err}
		}
		path := filepath.Join(dir, fmt.Sprintf("enginetwin-%s.json", time.Now().Format("20060102-150405")))
		return saveConfirmMsg{path: path, err: os.WriteFile(path, out, 0o600)}
	}
}

func exportReport(e *report.Exporter, path string, d report.Dashboard) tea.Cmd {
	return func() tea.Msg {
		res, err := e.Export(context.Background(), d, path)
		return exportMsg{res: res, err: err}
	}
}

func (m Model) flash(format string, args ...any) Model {
	m.saveMsg = fmt.Sprintf(format, args...)
	m.saveMsgTime = time.Now()
	return m
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		player, replay := m.ticker.(*engine.Player)

		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "?":
			m.showHelp = true
		case "a":
			m.paused = !m.paused
			if !m.paused {
				return m, tea.Batch(tick(m.interval), collectOnce(m.ticker))
			}
		case "n":
			if m.paused {
				return m, collectOnce(m.ticker)
			}
		case "[", "]", "{", "}", "J", "K":
			if !replay {
				break
			}
			idx := player.Index() - 1
			switch msg.String() {
			case "[":
				idx -= 10
			case "]":
				idx += 10
			case "{":
				idx -= 60
			case "}":
				idx += 60
			case "J":
				idx = 0
			case "K":
				idx = player.Len() - 1
			}
			snap, result := player.Seek(idx)
			return m.apply(snap, result), nil
		case "S":
			if m.snap != nil {
				dir := m.opts.DataDir
				if dir == "" {
					dir = "."
				}
				return m, saveReading(dir, m.snap, m.result)
			}
		case "e":
			d, ok := report.FromHistory(m.engine.History, m.eventDetector.Events())
			if !ok {
				return m.flash("Nothing to export yet"), nil
			}
			m = m.flash("Exporting %s...", m.opts.ExportPath)
			return m, exportReport(m.opts.Exporter, m.opts.ExportPath, d)
		case "ctrl+d":
			if err := saveDefaultPage(m.page); err != nil {
				return m.flash("Error: %v", err), nil
			}
			return m.flash("Default page: %s", pageNames[m.page]), nil
		case "tab":
			m.page = (m.page + 1) % pageCount
			m.scroll = 0
		case "0", "1", "2", "3":
			m.page = Page(msg.String()[0] - '0')
			m.scroll = 0
		case "b", "esc":
			m.page = PageOverview
			m.scroll = 0
		case "j", "down":
			if m.page == PageEvents {
				m.selected = min(m.selected+1, max(0, len(m.eventDetector.Events())-1))
			} else {
				m.scroll++
			}
		case "k", "up":
			if m.page == PageEvents {
				m.selected = max(0, m.selected-1)
			} else {
				m.scroll = max(0, m.scroll-1)
			}
		case "g":
			m.scroll = 0
		case "G":
			m.scroll += max(1, m.height/2)
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case tickMsg:
		if m.paused {
			return m, nil
		}
		return m, tea.Batch(tick(m.interval), collectOnce(m.ticker))
	case collectMsg:
		return m.apply(msg.snap, msg.result), nil
	case saveConfirmMsg:
		if msg.err != nil {
			return m.flash("Save failed: %v", msg.err), nil
		}
		return m.flash("Saved %s", msg.path), nil
	case exportMsg:
		if msg.err != nil {
			return m.flash("Export failed: %v", msg.err), nil
		}
		return m.flash("Exported %s (%d pages, %s)", msg.res.Path, msg.res.Pages(), util.FormatSize(msg.res.Bytes)), nil
	}
	return m, nil
}

// apply takes a tick result into the model. A tick without a reading keeps
// the last good one on screen.
func (m Model) apply(snap *model.Snapshot, result *model.AnalysisResult) Model {
	if snap == nil {
		return m
	}
	if result == nil {
		m.lastErr = strings.Join(snap.Errors, "; ")
		return m
	}
	m.snap, m.result, m.lastErr = snap, result, ""
	if closed := m.eventDetector.Process(snap, result); closed != nil && m.eventLog != nil {
		if err := m.eventLog.Write(*closed); err != nil {
			m = m.flash("Event log: %v", err)
		}
	}
	return m
}

func (m Model) View() string {
	if m.showHelp {
		return m.renderHelp()
	}
	if m.width == 0 {
		return "Loading..."
	}
	if m.snap == nil {
		s := "Waiting for first reading..."
		if m.lastErr != "" {
			s += "\n" + critStyle.Render("feed: "+m.lastErr)
		}
		return s
	}

	var content string
	switch m.page {
	case PageOverview:
		content = renderOverview(m.snap, m.result, m.engine.History, m.width)
	case PageTrends:
		content = renderTrendsPage(m.engine.History, m.engine.Catalog(), m.width)
	case PageRanges:
		content = renderRangesPage(m.result, m.width)
	case PageEvents:
		content = renderEventsPage(m.eventDetector.ActiveEvent(), m.eventDetector.Events(), m.selected, m.width)
	}

	content = m.injectClock(content)

	lines := strings.Split(content, "\n")
	scroll := max(0, min(m.scroll, len(lines)-1))
	lines = lines[scroll:]
	// Leave room for the status bar
	if maxLines := m.height - 2; maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return strings.Join(lines, "\n") + "\n" + m.renderStatusBar()
}

func (m Model) renderStatusBar() string {
	var tabs []string
	for i, name := range pageNames {
		label := fmt.Sprintf("%d:%s", i, name)
		if Page(i) == m.page {
			tabs = append(tabs, headerStyle.Render("["+label+"]"))
		} else {
			tabs = append(tabs, dimStyle.Render(" "+label+" "))
		}
	}
	left := strings.Join(tabs, "")

	var right []string
	if p, ok := m.ticker.(*engine.Player); ok {
		right = append(right, orangeStyle.Render(fmt.Sprintf("REPLAY %d/%d", p.Index(), p.Len())))
	} else if m.snap != nil {
		right = append(right, dimStyle.Render("last reading "+util.FormatAge(m.snap.Timestamp, time.Now())))
	}
	if m.paused {
		right = append(right, warnStyle.Render("PAUSED"))
	}
	if m.lastErr != "" {
		right = append(right, critStyle.Render(truncate("feed: "+m.lastErr, 40)))
	}
	if m.saveMsg != "" && time.Since(m.saveMsgTime) < 5*time.Second {
		right = append(right, valueStyle.Render(m.saveMsg))
	}
	right = append(right, helpStyle.Render("?:help q:quit"))

	bar := left + "  " + strings.Join(right, "  ")
	if m.width > 0 && lipgloss.Width(bar) > m.width {
		bar = left
	}
	return bar
}

func (m Model) renderHelp() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("enginetwin - Engine Health Monitor"))
	sb.WriteString("\n\n")
	sb.WriteString(headerStyle.Render("Navigation"))
	sb.WriteString("\n")
	sb.WriteString("  0         Overview (prediction, parameters, worst)\n")
	sb.WriteString("  1         Trends (history charts per parameter)\n")
	sb.WriteString("  2         Ranges (normal band vs possible span)\n")
	sb.WriteString("  3         Events (anomaly episodes)\n")
	sb.WriteString("  Tab       Next page\n")
	sb.WriteString("  b / Esc   Back to overview\n")
	sb.WriteString("\n")
	sb.WriteString(headerStyle.Render("Controls"))
	sb.WriteString("\n")
	sb.WriteString("  a         Toggle auto-refresh (pause/resume)\n")
	sb.WriteString("  n         Step one reading while paused\n")
	sb.WriteString("  [ / ]     Replay seek -10 / +10 frames\n")
	sb.WriteString("  { / }     Replay seek -60 / +60 frames\n")
	sb.WriteString("  J / K     Replay jump to start / end\n")
	sb.WriteString("  e         Export PDF report\n")
	sb.WriteString("  S         Save current reading to JSON\n")
	sb.WriteString("  Ctrl+D    Make current page the default\n")
	sb.WriteString("  j/k       Scroll (select on Events page)\n")
	sb.WriteString("  g/G       Top / jump down\n")
	sb.WriteString("  ?         Toggle this help\n")
	sb.WriteString("  q/Ctrl+C  Quit\n")
	sb.WriteString("\n")
	sb.WriteString(helpStyle.Render("Press any key to close"))
	return sb.String()
}

// injectClock puts the clock and poll interval at the right of the first line.
func (m Model) injectClock(content string) string {
	if m.width < 40 {
		return content
	}
	clock := dimStyle.Render(time.Now().Format("15:04:05") + "  every " + util.FormatDuration(m.interval))
	clockW := lipgloss.Width(clock)

	lines := strings.Split(content, "\n")
	gap := m.width - lipgloss.Width(lines[0]) - clockW
	if gap < 2 {
		return strings.Repeat(" ", max(0, m.width-clockW)) + clock + "\n" + content
	}
	lines[0] += strings.Repeat(" ", gap) + clock
	return strings.Join(lines, "\n")
}
