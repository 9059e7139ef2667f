package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/san-kum/pimsim/internal/report"
	"github.com/san-kum/pimsim/internal/robot"
	"github.com/san-kum/pimsim/internal/script"
	"github.com/san-kum/pimsim/internal/session"
)

func newServer(t *testing.T, funcs script.Native) (*httptest.Server, *session.Session, *Hub) {
	t.Helper()
	hub := NewHub(zerolog.Nop())
	sess, err := session.New(session.Config{TickPeriod: 5 * time.Millisecond},
		session.WithHost(funcs),
		session.WithReporter(hub),
	)
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(New(sess, hub).Handler())
	t.Cleanup(func() {
		ts.Close()
		sess.Close()
	})
	return ts, sess, hub
}

func dial(t *testing.T, ts *httptest.Server, hub *Hub) *websocket.Conn {
	t.Helper()
	before := hub.Clients()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() == before {
		if time.Now().After(deadline) {
			t.Fatal("client was not registered")
		}
		time.Sleep(time.Millisecond)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg string) {
	t.Helper()
	if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
		t.Fatal(err)
	}
}

// await reads until match returns true or the deadline passes.
func await(t *testing.T, conn *websocket.Conn, what string, match func(report.Message) bool) report.Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("waiting for %s: %v", what, err)
		}
		var m report.Message
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		if match(m) {
			return m
		}
	}
}

func isMode(mode string) func(report.Message) bool {
	return func(m report.Message) bool { return m.Kind == report.KindMode && m.Mode == mode }
}

func logContains(substr string) func(report.Message) bool {
	return func(m report.Message) bool { return m.Kind == report.KindLog && strings.Contains(m.Log, substr) }
}

func TestTeleopOverWebsocket(t *testing.T) {
	ts, sess, hub := newServer(t, script.Native{
		script.TeleopMain: func(ctx context.Context, c *script.NativeCall) error {
			w, err := c.Keyboard.GetValue(ctx, "w")
			if err != nil {
				return err
			}
			if w == true {
				c.Robot.SetValue(ctx, robot.DeviceMotor, robot.ParamVelocityB, 1.0)
				return c.Robot.SetValue(ctx, robot.DeviceMotor, robot.ParamVelocityA, -1.0)
			}
			return nil
		},
	})
	conn := dial(t, ts, hub)

	send(t, conn, `{"code": "native"}`)
	send(t, conn, `{"start": true, "mode": "teleop", "robotInfo": {"xpos": 70, "ypos": 70, "dir": 0, "robotType": "medium"}}`)
	await(t, conn, "teleop", isMode("teleop"))

	send(t, conn, `{"keyMode": "keyboard", "keyCode": 87, "up": false}`)
	m := await(t, conn, "movement", func(m report.Message) bool {
		return m.Kind == report.KindPose && m.Robot.X > 70
	})
	if m.Robot.Y != 70 || m.Robot.RobotType != "medium" {
		t.Errorf("unexpected pose %+v", m.Robot)
	}

	send(t, conn, `{"stop": true}`)
	await(t, conn, "idle", isMode("idle"))
	if sess.Snapshot().Mode != session.Idle {
		t.Error("session should be idle")
	}
}

func TestStartWithoutCode(t *testing.T) {
	ts, _, hub := newServer(t, script.Native{})
	conn := dial(t, ts, hub)

	send(t, conn, `{"start": true, "mode": "auto"}`)
	await(t, conn, "upload reminder", logContains("please upload code first"))
}

func TestBadMessages(t *testing.T) {
	ts, _, hub := newServer(t, script.Native{})
	conn := dial(t, ts, hub)

	tests := []struct {
		name string
		msg  string
		want string
	}{
		{"not json", `{`, "bad message"},
		{"unknown", `{"hello": 1}`, "unknown message"},
		{"bad mode", `{"start": true, "mode": "practice"}`, "unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			send(t, conn, tt.msg)
			await(t, conn, tt.want, logContains(tt.want))
		})
	}
}

func TestObjectsBroadcast(t *testing.T) {
	ts, _, hub := newServer(t, script.Native{})
	a := dial(t, ts, hub)
	b := dial(t, ts, hub)

	send(t, a, `{"objects": {"wallsData": [{"x": 10, "y": 10, "w": 5, "h": 20}]}}`)
	for _, conn := range []*websocket.Conn{a, b} {
		m := await(t, conn, "objects", func(m report.Message) bool { return m.Kind == report.KindObjects })
		if len(m.Objects.Obstacles) != 1 {
			t.Errorf("expected one obstacle, got %+v", m.Objects)
		}
	}

	send(t, a, `{"objects": {"wallsData": [{"x": 10, "y": 10, "w": -5, "h": 20}]}}`)
	await(t, a, "layout error", logContains("size must be positive"))
}

func TestState(t *testing.T) {
	ts, sess, _ := newServer(t, script.Native{})

	resp, err := http.Get(ts.URL + "/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got struct {
		ID   string
		Mode string
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.ID != sess.ID().String() || got.Mode != "idle" {
		t.Errorf("unexpected state %+v", got)
	}
}

func TestHubRemove(t *testing.T) {
	ts, _, hub := newServer(t, script.Native{})
	conn := dial(t, ts, hub)
	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("client was not removed")
		}
		time.Sleep(time.Millisecond)
	}
	hub.Report(report.Logf("nobody listening"))
}
