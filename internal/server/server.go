// Package server exposes one session over a websocket. Reports are pushed
// to every connected page; pages send code, objects, mode changes and
// input events.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/field"
	"github.com/san-kum/pimsim/internal/input"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/session"
)

// Session is what the server drives. *session.Session implements it.
type Session interface {
	UploadCode(src string) error
	DefineObjects(l field.Layout) error
	Start(ctx context.Context, mode session.Mode, info robot.StartInfo) error
	Stop() error
	Input(ev input.Event) error
	Snapshot() session.Snapshot
}

const shutdownTimeout = 5 * time.Second

var ErrUnknownMessage = errors.New("server: unknown message")

type Server struct {
	sess     Session
	hub      *Hub
	path     string
	base     context.Context
	log      zerolog.Logger
	upgrader websocket.Upgrader
	robot    robot.StartInfo
}

type Option func(*Server)

// WithPath sets the websocket endpoint, /ws by default.
func WithPath(path string) Option {
	return func(s *Server) { s.path = path }
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *Server) { s.log = log }
}

// WithStart sets where the robot starts when a start message carries no
// robotInfo.
func WithStart(info robot.StartInfo) Option {
	return func(s *Server) { s.robot = info }
}

// WithContext sets the context runs are started under. Canceling it stops
// the active run.
func WithContext(ctx context.Context) Option {
	return func(s *Server) { s.base = ctx }
}

func New(sess Session, hub *Hub, opts ...Option) *Server {
	s := &Server{
		sess: sess,
		hub:  hub,
		path: "/ws",
		base: context.Background(),
		log:  zerolog.Nop(),
		robot: robot.StartInfo{
			X:    robot.DefaultStartX,
			Y:    robot.DefaultStartY,
			Type: robot.DefaultType,
		},
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// the simulator is served to local pages from any origin
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With().Str("component", "server").Logger()
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(s.path, s.serveWS)
	mux.HandleFunc("/state", s.serveState)
	return mux
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Str("path", s.path).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) serveState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.sess.Snapshot()); err != nil {
		s.log.Warn().Err(err).Msg("failed to write state")
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("upgrade failed")
		return
	}
	c := newClient(conn)
	s.hub.add(c)
	go c.writeLoop()

	if err := c.readLoop(s.handle); err != nil {
		s.log.Debug().Err(err).Str("remote", c.remote).Msg("read failed")
	}
	s.hub.remove(c)
}

// robotInfo is the start position a page sends. Missing coordinates fall
// back to the configured start.
type robotInfo struct {
	X    *float64 `json:"xpos"`
	Y    *float64 `json:"ypos"`
	Dir  *float64 `json:"dir"`
	Type string   `json:"robotType"`
}

type inbound struct {
	Code      *string       `json:"code"`
	Objects   *field.Layout `json:"objects"`
	Start     bool          `json:"start"`
	Mode      string        `json:"mode"`
	RobotInfo *robotInfo    `json:"robotInfo"`
	Stop      bool          `json:"stop"`
	input.Event
}

func (s *Server) startInfo(ri *robotInfo) robot.StartInfo {
	info := s.robot
	if ri == nil {
		return info
	}
	info.X, info.Y = math.NaN(), math.NaN()
	if ri.X != nil {
		info.X = *ri.X
	}
	if ri.Y != nil {
		info.Y = *ri.Y
	}
	if ri.Dir != nil {
		info.Dir = *ri.Dir
	}
	if ri.Type != "" {
		info.Type = ri.Type
	}
	return info
}

func (s *Server) handle(c *client, data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		c.reply(report.Logf("bad message: %v", err))
		return
	}

	switch {
	case msg.Code != nil:
		s.check(c, s.sess.UploadCode(*msg.Code))
	case msg.Objects != nil:
		// invalid layouts are already reported by the session
		if err := s.sess.DefineObjects(*msg.Objects); err != nil {
			s.log.Debug().Err(err).Msg("objects rejected")
		}
	case msg.Start:
		mode, err := session.ParseMode(msg.Mode)
		if err != nil {
			c.reply(report.Logf("%v", err))
			return
		}
		if mode == session.Idle {
			s.check(c, s.sess.Stop())
			return
		}
		info := s.startInfo(msg.RobotInfo)
		// setup may run for a while; a later stop interrupts it
		go func() {
			if err := s.sess.Start(s.base, mode, info); err != nil {
				s.log.Debug().Err(err).Str("mode", string(mode)).Msg("start failed")
			}
		}()
	case msg.Stop:
		s.check(c, s.sess.Stop())
	case msg.KeyMode != "":
		s.check(c, s.sess.Input(msg.Event))
	default:
		c.reply(report.Logf("%v", ErrUnknownMessage))
	}
}

func (s *Server) check(c *client, err error) {
	if err != nil {
		c.reply(report.Logf("%v", err))
	}
}
