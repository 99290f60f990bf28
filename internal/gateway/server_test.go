package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/core"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/dice"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/inventory"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
)

const testZoneYAML = `
zone:
  id: keep
  name: The Keep
  description: A single-room keep for transport tests.
  start_location: hall
  locations:
    - id: hall
      title: Great Hall
      description: Bare stone and a cold hearth.
`

// stubAuth hands out pre-built sessions so tests skip the database.
type stubAuth struct {
	sessions map[string]*session.Session
	err      error
}

func (a *stubAuth) Login(_ context.Context, _, _, character string) (*session.Session, error) {
	if a.err != nil {
		return nil, a.err
	}
	sess, ok := a.sessions[character]
	if !ok {
		return nil, errors.New("no such character")
	}
	return sess, nil
}

func newTestSession(t *testing.T, name string) *session.Session {
	t.Helper()
	cls := &catalog.Class{ID: "warrior", Name: "Warrior", BaseHP: 20, BaseMP: 10, HPPerLevel: 5, MPPerLevel: 2}
	race := &catalog.Race{ID: "human", Name: "Human"}
	return session.New(session.Params{
		UID:        "uid-" + name,
		Name:       name,
		Role:       session.RolePlayer,
		Class:      cls,
		Race:       race,
		LocationID: "hall",
		Stats:      catalog.Stats{Might: 5, Agility: 5, Vitality: 5, Intellect: 5, Perception: 5},
		Level:      1,
		HP:         20, MaxHP: 20,
		MP: 10, MaxMP: 10,
		OutboxSize:     16,
		BackpackSlots:  10,
		BackpackWeight: 50,
	})
}

// startServer boots a gateway on an ephemeral port over a one-room world.
func startServer(t *testing.T, auth Authenticator) (*Server, string) {
	t.Helper()

	zone, err := world.LoadZoneFromBytes([]byte(testZoneYAML))
	require.NoError(t, err)
	graph, err := world.NewGraph([]*world.Zone{zone})
	require.NoError(t, err)

	logger := zap.NewNop()
	c := core.New(
		config.GameConfig{TickInterval: time.Second, RestRegenHP: 3, MeditateRegenMP: 4, BackpackSlots: 10, BackpackWeight: 50},
		logger,
		graph,
		entity.NewManager(map[string]*entity.Template{}),
		session.NewRegistry(logger),
		catalog.NewRegistry(),
		inventory.NewFloorManager(),
		dice.NewChecker(dice.NewCryptoSource(), logger),
		nil,
	)

	cfg := config.GatewayConfig{Host: "127.0.0.1", Port: 0, WriteTimeout: time.Second, OutboxSize: 16}
	srv := NewServer(cfg, c, auth, logger)
	require.NoError(t, srv.Start())
	t.Cleanup(srv.Stop)

	return srv, "ws://" + srv.listener.Addr().String() + "/ws"
}

// inFrame mirrors serverFrame with the payload left raw for per-test decoding.
type inFrame struct {
	Type  string          `json:"type"`
	Event json.RawMessage `json:"event"`
}

func readFrame(t *testing.T, conn *websocket.Conn) inFrame {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f inFrame
	require.NoError(t, conn.ReadJSON(&f))
	return f
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestLoginDeliversInitialState(t *testing.T) {
	auth := &stubAuth{sessions: map[string]*session.Session{"Brennan": newTestSession(t, "Brennan")}}
	srv, url := startServer(t, auth)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(loginRequest{Account: "acct", Password: "pw", Character: "Brennan"}))

	frame := readFrame(t, conn)
	require.Equal(t, "location", frame.Type)
	var loc protocol.LocationEvent
	require.NoError(t, json.Unmarshal(frame.Event, &loc))
	assert.Equal(t, "hall", loc.ID)
	assert.Equal(t, "Great Hall", loc.Title)

	frame = readFrame(t, conn)
	require.Equal(t, "vitals", frame.Type)
	var vitals protocol.VitalsEvent
	require.NoError(t, json.Unmarshal(frame.Event, &vitals))
	assert.Equal(t, 20, vitals.HP)
	assert.Equal(t, 20, vitals.MaxHP)

	frame = readFrame(t, conn)
	require.Equal(t, "inventory", frame.Type)

	assert.Equal(t, 1, srv.core.Sessions().Count())
}

func TestLoginRejectionClosesConnection(t *testing.T) {
	auth := &stubAuth{err: errors.New("bad credentials")}
	_, url := startServer(t, auth)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(loginRequest{Account: "acct", Password: "wrong", Character: "Brennan"}))

	frame := readFrame(t, conn)
	require.Equal(t, "result", frame.Type)
	var res protocol.ResultEvent
	require.NoError(t, json.Unmarshal(frame.Event, &res))
	assert.False(t, res.OK)
	assert.Equal(t, "login failed", res.Message)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var f inFrame
	assert.Error(t, conn.ReadJSON(&f))
}

func TestDuplicateLoginIsRejected(t *testing.T) {
	auth := &stubAuth{sessions: map[string]*session.Session{"Brennan": newTestSession(t, "Brennan")}}
	_, url := startServer(t, auth)

	first := dial(t, url)
	require.NoError(t, first.WriteJSON(loginRequest{Account: "acct", Password: "pw", Character: "Brennan"}))
	require.Equal(t, "location", readFrame(t, first).Type)

	second := dial(t, url)
	require.NoError(t, second.WriteJSON(loginRequest{Account: "acct", Password: "pw", Character: "Brennan"}))
	frame := readFrame(t, second)
	require.Equal(t, "result", frame.Type)
	var res protocol.ResultEvent
	require.NoError(t, json.Unmarshal(frame.Event, &res))
	assert.False(t, res.OK)
	assert.Equal(t, "that character is already online", res.Message)
}

func TestSayEchoesToSpeaker(t *testing.T) {
	auth := &stubAuth{sessions: map[string]*session.Session{"Brennan": newTestSession(t, "Brennan")}}
	_, url := startServer(t, auth)

	conn := dial(t, url)
	require.NoError(t, conn.WriteJSON(loginRequest{Account: "acct", Password: "pw", Character: "Brennan"}))
	for _, want := range []string{"location", "vitals", "inventory"} {
		require.Equal(t, want, readFrame(t, conn).Type)
	}

	require.NoError(t, conn.WriteJSON(protocol.ClientMessage{Type: protocol.TypeSay, Text: "well met"}))

	frame := readFrame(t, conn)
	require.Equal(t, "chat", frame.Type)
	var chat protocol.ChatEvent
	require.NoError(t, json.Unmarshal(frame.Event, &chat))
	assert.Equal(t, "Brennan", chat.From)
	assert.Equal(t, "well met", chat.Text)
}
