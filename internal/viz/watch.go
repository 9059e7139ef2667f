package viz

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/geom"
	"github.com/san-kum/pimsim/internal/input"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/session"
)

const (
	canvasWidth     = 60
	canvasHeight    = 30
	frameRate       = 50 * time.Millisecond
	keyHold         = 300 * time.Millisecond
	historyCapacity = 120
	trailCapacity   = 600
	logLines        = 6
)

// Session is what the viewer drives. *session.Session implements it.
type Session interface {
	Start(ctx context.Context, mode session.Mode, info robot.StartInfo) error
	Stop() error
	Input(ev input.Event) error
	Snapshot() session.Snapshot
}

type (
	TickMsg    time.Time
	startedMsg struct{ err error }
	releaseMsg struct {
		code int
		seq  int
	}
)

type Options struct {
	Start        robot.StartInfo
	FieldWidth   float64
	FieldHeight  float64
	AutoDuration time.Duration
	Theme        string
}

// Model shows one session and forwards key presses to it.
type Model struct {
	sess    Session
	reports <-chan report.Message
	opts    Options

	canvas  *Canvas
	proj    Projector
	theme   Theme
	st      styles
	snap    session.Snapshot
	objects field.Snapshot
	trail   []geom.Vec
	center  []float64
	logs    []string
	held    map[int]int
	seq     int
	started time.Time
	ticks   int
}

// NewModel returns a viewer for sess. Reports from the session are read
// from reports, typically a report.Chan the session reports to.
func NewModel(sess Session, reports <-chan report.Message, opts Options) Model {
	if opts.FieldWidth <= 0 {
		opts.FieldWidth = field.DefaultWidth
	}
	if opts.FieldHeight <= 0 {
		opts.FieldHeight = field.DefaultHeight
	}
	canvas := NewCanvas(canvasWidth, canvasHeight)
	theme := GetTheme(opts.Theme)
	return Model{
		sess:    sess,
		reports: reports,
		opts:    opts,
		canvas:  canvas,
		proj:    Fit(canvas, opts.FieldWidth, opts.FieldHeight),
		theme:   theme,
		st:      newStyles(theme),
		snap:    sess.Snapshot(),
		held:    make(map[int]int),
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Canvas returns the last drawn frame.
func (m Model) Canvas() *Canvas { return m.canvas }

func (m Model) start(mode session.Mode) tea.Cmd {
	sess, info := m.sess, m.opts.Start
	return func() tea.Msg {
		return startedMsg{err: sess.Start(context.Background(), mode, info)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "ctrl+q":
			m.sess.Stop()
			return m, tea.Quit
		case "ctrl+t":
			return m, m.start(session.Teleop)
		case "ctrl+o":
			return m, m.start(session.Auto)
		case "esc":
			m.sess.Stop()
		case "ctrl+g":
			m.theme = m.theme.next()
			m.st = newStyles(m.theme)
		default:
			code, ok := keyCode(msg.String())
			if !ok {
				return m, nil
			}
			m.seq++
			if _, down := m.held[code]; !down {
				m.sess.Input(input.Event{KeyMode: input.ModeKeyboard, KeyCode: code})
			}
			m.held[code] = m.seq
			seq := m.seq
			return m, tea.Tick(keyHold, func(time.Time) tea.Msg { return releaseMsg{code: code, seq: seq} })
		}
	case releaseMsg:
		if m.held[msg.code] == msg.seq {
			delete(m.held, msg.code)
			m.sess.Input(input.Event{KeyMode: input.ModeKeyboard, KeyCode: msg.code, Up: true})
		}
	case startedMsg:
		if msg.err != nil {
			m.addLog(msg.err.Error())
		}
	case TickMsg:
		m.refresh(time.Time(msg))
		return m, tick()
	}
	return m, nil
}

func (m *Model) addLog(line string) {
	m.logs = append(m.logs, line)
	if len(m.logs) > logLines {
		m.logs = m.logs[len(m.logs)-logLines:]
	}
}

// refresh drains pending reports, takes a new snapshot and redraws.
func (m *Model) refresh(now time.Time) {
	for drained := false; !drained; {
		select {
		case msg, ok := <-m.reports:
			if !ok {
				drained = true
				break
			}
			switch msg.Kind {
			case report.KindObjects:
				m.objects = *msg.Objects
			case report.KindLog:
				m.addLog(msg.Log)
			case report.KindMode:
				if msg.Mode != string(session.Idle) {
					m.trail = m.trail[:0]
					m.center = m.center[:0]
					m.started = now
				}
			}
		default:
			drained = true
		}
	}

	prev := m.snap
	m.snap = m.sess.Snapshot()
	if m.snap.Mode != session.Idle && (m.snap.Ticks != prev.Ticks || len(m.trail) == 0) {
		m.trail = appendCapped(m.trail, geom.Vec{m.snap.Pose.X, m.snap.Pose.Y}, trailCapacity)
		m.center = appendCapped(m.center, m.snap.Sensors.Center, historyCapacity)
	}
	m.draw()
}

func appendCapped[T any](s []T, v T, capacity int) []T {
	s = append(s, v)
	if len(s) > capacity {
		s = s[len(s)-capacity:]
	}
	return s
}

func (m *Model) draw() {
	m.canvas.Clear()
	for _, group := range [][]field.Shape{m.objects.TapeLines, m.objects.Obstacles, m.objects.Ramps} {
		for _, sh := range group {
			m.canvas.DrawQuad(m.proj, sh.Corners)
		}
	}
	m.canvas.DrawPath(m.proj, m.trail)
	if m.snap.RobotType != "" {
		m.canvas.DrawQuad(m.proj, m.snap.Corners)
	}
}

func (m Model) modeStyle() lipgloss.Style {
	switch m.snap.Mode {
	case session.Teleop:
		return m.st.teleop
	case session.Auto:
		return m.st.auto
	}
	return m.st.idle
}

func (m Model) flag(b bool, on, off string) string {
	if b {
		return m.st.on.Render(on)
	}
	return m.st.off.Render(off)
}

func (m Model) row(label, value string) string {
	return m.st.label.Render(label) + m.st.value.Render(value) + "\n"
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(m.st.header.Render("PIMSIM") + "\n")
	s.WriteString(m.modeStyle().Render(strings.ToUpper(string(m.snap.Mode))) + "\n\n")

	if m.snap.Mode == session.Auto && m.opts.AutoDuration > 0 && !m.started.IsZero() {
		left := 1 - float64(time.Since(m.started))/float64(m.opts.AutoDuration)
		s.WriteString(m.row("Period", ProgressBar(left, 20, m.st.auto)))
	}

	p := m.snap.Pose
	s.WriteString(m.row("Robot", m.snap.RobotType))
	s.WriteString(m.row("Pose", fmt.Sprintf("x %.1f  y %.1f  %.0f°", p.X, p.Y, p.Dir)))
	ls := m.snap.Sensors
	s.WriteString(m.row("Line", fmt.Sprintf("%s%s%s  %.2f %.2f %.2f",
		SensorBar(ls.Left), SensorBar(ls.Center), SensorBar(ls.Right), ls.Left, ls.Center, ls.Right)))
	s.WriteString(m.row("Switches",
		m.flag(m.snap.Switches.Front, "FRONT", "front")+" "+m.flag(m.snap.Switches.Back, "BACK", "back")))
	s.WriteString(m.row("Holding", m.flag(m.snap.Holding, "yes", "no")))
	s.WriteString(m.row("Units", fmt.Sprintf("%d busy", m.snap.Busy)))
	s.WriteString(m.row("Ticks", fmt.Sprintf("%d", m.snap.Ticks)))

	if len(m.center) > 1 {
		chart := asciigraph.Plot(m.center,
			asciigraph.Height(4),
			asciigraph.Width(30),
			asciigraph.LowerBound(0),
			asciigraph.UpperBound(1),
			asciigraph.Caption("center sensor"))
		s.WriteString(m.st.graph.Render(chart) + "\n")
	}

	for _, line := range m.logs {
		s.WriteString(m.st.log.Render(line) + "\n")
	}

	s.WriteString(m.st.keyHint.Render("^T:Teleop ^O:Auto Esc:Stop ^G:Theme ^C:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		m.st.canvas.Render(m.canvas.String()),
		m.st.panel.Render(s.String()))
}
