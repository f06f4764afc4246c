// Command omniledctl is a companion terminal dashboard for omniledd: it
// polls the daemon's read-only status socket (internal/statusipc) and
// renders the RPC address, event queue depth, and registered device
// list, refreshing on a tick the same way a live log viewer would.
package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/omniled/omniled/internal/statusipc"
)

const pollInterval = 500 * time.Millisecond

func main() {
	dataDir := flag.String("data-dir", ".", "data directory the daemon was started with (locates omniled.sock)")
	flag.Parse()

	m := newModel(statusipc.DefaultSocketPath(*dataDir))
	p := tea.NewProgram(m)
	if _, err := p.Run(); err != nil {
		fmt.Println("omniledctl:", err)
	}
}

type tickMsg time.Time

type snapshotMsg struct {
	snap statusipc.Snapshot
	err  error
}

// model is the dashboard's bubbletea state: the last snapshot
// successfully retrieved, the last error (if the socket is down), and
// the socket path to poll.
type model struct {
	sockPath string
	snap     statusipc.Snapshot
	err      error
	attached bool
	width    int
	spin     spinner.Model
}

func newModel(sockPath string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	return model{sockPath: sockPath, spin: s}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(pollCmd(m.sockPath), tickCmd(), m.spin.Tick)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
		return m, nil
	case tickMsg:
		return m, tea.Batch(pollCmd(m.sockPath), tickCmd())
	case snapshotMsg:
		if msg.err != nil {
			m.attached = false
			m.err = msg.err
			return m, nil
		}
		m.attached = true
		m.err = nil
		m.snap = msg.snap
		return m, nil
	case spinner.TickMsg:
		if m.attached {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	if !m.attached {
		status := m.spin.View() + " connecting to " + m.sockPath + " ..."
		if m.err != nil {
			status = errStyle.Render("omniledd not reachable at " + m.sockPath)
		}
		return titleStyle.Render("OmniLED") + "\n\n" + status + "\n\n" + helpStyle.Render("press q to quit")
	}

	uptime := time.Since(m.snap.StartedAt).Round(time.Second)
	header := fmt.Sprintf("rpc %s  queue %d  tick %dms  up %s",
		m.snap.RPCAddress, m.snap.QueueLen, m.snap.TickMS, uptime)

	rows := make([]string, 0, len(m.snap.Devices)+1)
	rows = append(rows, headerStyle.Render(fmt.Sprintf("%-20s %6s %6s", "DEVICE", "W", "H")))
	for _, d := range m.snap.Devices {
		rows = append(rows, rowStyle.Render(fmt.Sprintf("%-20s %6d %6d", d.Name, d.Width, d.Height)))
	}
	if len(m.snap.Devices) == 0 {
		rows = append(rows, helpStyle.Render("(no devices registered)"))
	}

	body := titleStyle.Render("OmniLED") + "\n" + subtitleStyle.Render(header) + "\n\n" + joinLines(rows)

	if len(m.snap.StateNames) > 0 {
		body += "\n\n" + headerStyle.Render("STATE") + "\n" + rowStyle.Render(joinWords(m.snap.StateNames))
	}

	return body + "\n\n" + helpStyle.Render("press q to quit")
}

func joinWords(words []string) string {
	out := ""
	for i, w := range words {
		if i > 0 {
			out += ", "
		}
		out += w
	}
	return out
}

func joinLines(lines []string) string {
	out := ""
	for i, l := range lines {
		if i > 0 {
			out += "\n"
		}
		out += l
	}
	return out
}

func pollCmd(sockPath string) tea.Cmd {
	return func() tea.Msg {
		snap, err := statusipc.Query(sockPath, 300*time.Millisecond)
		return snapshotMsg{snap: snap, err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// accent is the daemon's status color, a soft teal picked via go-colorful
// so the header and device rows share one palette anchor instead of the
// raw ANSI accent numbers lipgloss defaults to.
var accent = colorful.Hsv(178, 0.55, 0.85)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(accent.Hex())).
			Padding(0, 1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("252"))

	rowStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("1"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Italic(true)
)
