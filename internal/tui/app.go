// Package tui renders the live dashboard behind 'tickerctl watch': a
// compact bubbletea view over the session snapshots the sync controller
// publishes.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/MattLD13/tickerctl/internal/state"
	"github.com/MattLD13/tickerctl/internal/sync"
	"github.com/MattLD13/tickerctl/internal/ticker"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("57")).Padding(0, 1)
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// modeCycle is the order the 'm' key steps through.
var modeCycle = []string{
	ticker.ModeSports,
	ticker.ModeLive,
	ticker.ModeMyTeams,
	ticker.ModeStocks,
	ticker.ModeWeather,
	ticker.ModeClock,
	ticker.ModeMusic,
	ticker.ModeFlights,
	ticker.ModeFlightTracker,
}

type tickMsg time.Time

// Model is the dashboard's bubbletea model. It never talks to the network
// itself; all reads come from the controller's published snapshots and all
// writes go through controller operations.
type Model struct {
	ctrl    *sync.Controller
	refresh time.Duration

	session state.Session
	spin    spinner.Model
	width   int
	height  int
}

func NewModel(ctrl *sync.Controller, refresh time.Duration) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("57"))
	return Model{
		ctrl:    ctrl,
		refresh: refresh,
		spin:    sp,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tickMsg:
		m.session = m.ctrl.Session()
		return m, m.tick()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.ctrl.FetchNow()
		m.ctrl.FetchDevices()
	case "m":
		current := m.session.Settings.Mode
		m.ctrl.Mutate(func(s *ticker.Settings) {
			s.Mode = nextMode(current)
		})
	case "s":
		m.ctrl.Mutate(func(s *ticker.Settings) {
			s.ScrollSeamless = !s.ScrollSeamless
		})
	}
	return m, nil
}

func nextMode(current string) string {
	for i, mode := range modeCycle {
		if mode == current {
			return modeCycle[(i+1)%len(modeCycle)]
		}
	}
	return modeCycle[0]
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("tickerctl"))
	b.WriteString("  ")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	if !m.session.HasSettings {
		b.WriteString(m.spin.View())
		b.WriteString(" waiting for first snapshot...\n")
		b.WriteString("\n" + helpStyle.Render("q quit • r refresh"))
		return b.String()
	}

	b.WriteString(panelStyle.Render(m.renderSettings()))
	b.WriteString("\n")
	b.WriteString(panelStyle.Render(m.renderDevices()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q quit • r refresh • m next mode • s toggle seamless"))
	return b.String()
}

func (m Model) renderStatus() string {
	line := m.session.StatusLine()
	if m.session.Editing {
		line += " • saving…"
	}
	switch m.session.Connectivity {
	case state.Connected:
		return okStyle.Render(line)
	case state.ServerOnly:
		return warnStyle.Render(line)
	default:
		return badStyle.Render(line)
	}
}

func (m Model) renderSettings() string {
	s := m.session.Settings
	rows := []string{
		labelStyle.Render("Mode        ") + valueStyle.Render(s.Mode),
	}
	switch s.Mode {
	case ticker.ModeMyTeams:
		rows = append(rows, labelStyle.Render("My teams    ")+valueStyle.Render(strings.Join(s.MyTeams, ", ")))
	case ticker.ModeWeather:
		rows = append(rows, labelStyle.Render("Weather     ")+valueStyle.Render(fmt.Sprintf("%s (%.2f, %.2f)", s.WeatherCity, s.WeatherLat, s.WeatherLon)))
	case ticker.ModeFlights:
		rows = append(rows, labelStyle.Render("Airport     ")+valueStyle.Render(fmt.Sprintf("%s (%s)", s.AirportIATA, s.AirportName)))
	case ticker.ModeFlightTracker:
		rows = append(rows, labelStyle.Render("Tracking    ")+valueStyle.Render(s.TrackFlightID))
	}
	seamless := "off"
	if s.ScrollSeamless {
		seamless = "on"
	}
	rows = append(rows,
		labelStyle.Render("Scroll      ")+valueStyle.Render(fmt.Sprintf("speed %d, seamless %s", s.ScrollSpeed, seamless)),
	)
	if s.DebugMode {
		rows = append(rows, labelStyle.Render("Debug       ")+warnStyle.Render("on "+s.CustomDate))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderDevices() string {
	if len(m.session.Devices) == 0 {
		return labelStyle.Render("No devices paired")
	}
	rows := make([]string, 0, len(m.session.Devices))
	for _, d := range m.session.Devices {
		name := d.Name
		if name == "" {
			name = d.ID
		}
		lastSeen := "never seen"
		if t := d.LastSeenTime(); !t.IsZero() {
			lastSeen = humanize.Time(t)
		}
		rows = append(rows, fmt.Sprintf("%s  %s  %s",
			valueStyle.Render(name),
			labelStyle.Render(fmt.Sprintf("brightness %d%%", d.Settings.Brightness)),
			labelStyle.Render(lastSeen)))
	}
	return strings.Join(rows, "\n")
}

// Run starts the dashboard and blocks until the user quits.
func Run(ctrl *sync.Controller, refresh time.Duration) error {
	p := tea.NewProgram(NewModel(ctrl, refresh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
