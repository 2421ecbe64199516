package relay_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
	"github.com/emmaarthur191/coastal-project-sub004/internal/relay"
)

func startRelay(t *testing.T) (*relay.Server, string) {
	t.Helper()
	s := relay.NewServer(zaptest.NewLogger(t))
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv.URL
}

func join(t *testing.T, base, thread, user string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(base, "http") + "/ws/messaging/" + thread + "/?token=" + user
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readType(t *testing.T, c *websocket.Conn) frame.Raw {
	t.Helper()
	require.NoError(t, c.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := c.ReadMessage()
	require.NoError(t, err)
	raw, err := frame.Peek(data)
	require.NoError(t, err)
	return raw
}

func TestServer_PingGetsPong(t *testing.T) {
	_, base := startRelay(t)
	a := join(t, base, "t1", "alice")

	require.NoError(t, a.WriteJSON(frame.Ping()))
	require.Equal(t, frame.TypePong, readType(t, a).Type)
}

func TestServer_BroadcastsChatToThread(t *testing.T) {
	_, base := startRelay(t)
	a := join(t, base, "t1", "alice")
	b := join(t, base, "t1", "bob")
	other := join(t, base, "t2", "carol")
	// Both members must be registered before the broadcast.
	require.NoError(t, b.WriteJSON(frame.Ping()))
	readType(t, b)

	require.NoError(t, a.WriteJSON(frame.TypingFrame("t1", "alice", true)))
	require.Equal(t, frame.TypeTypingStart, readType(t, b).Type)
	require.Equal(t, frame.TypeTypingStart, readType(t, a).Type, "sender receives its own echo")

	require.NoError(t, other.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := other.ReadMessage()
	require.Error(t, err, "other threads receive nothing")
}

func TestServer_SignalsGoOnlyToTarget(t *testing.T) {
	_, base := startRelay(t)
	a := join(t, base, "t1", "alice")
	b := join(t, base, "t1", "bob")
	c := join(t, base, "t1", "carol")
	for _, conn := range []*websocket.Conn{b, c} {
		require.NoError(t, conn.WriteJSON(frame.Ping()))
		readType(t, conn)
	}

	end := signal.End{Header: signal.Header{SenderID: "alice", TargetID: "bob", CallID: "c1"}}
	require.NoError(t, a.WriteJSON(end))

	raw := readType(t, b)
	require.Equal(t, string(signal.KindEnd), raw.Type)
	msg, err := signal.Decode(raw.Data)
	require.NoError(t, err)
	require.Equal(t, domain.UserID("alice"), msg.Head().SenderID)

	require.NoError(t, c.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err = c.ReadMessage()
	require.Error(t, err, "non-targets receive nothing")
}

func TestServer_Directory(t *testing.T) {
	s, base := startRelay(t)
	s.AddUser(domain.User{ID: "bob", FirstName: "Bob", LastName: "Quaye"})
	ctx := context.Background()

	alice := relay.NewHTTP(base, "alice", nil)
	u, err := alice.FetchUser(ctx, "bob")
	require.NoError(t, err)
	require.Equal(t, "Bob Quaye", u.DisplayName())

	u, err = alice.FetchUser(ctx, "zed")
	require.NoError(t, err)
	require.Equal(t, "zed", u.DisplayName())

	_, err = alice.FetchPublicKey(ctx, "alice")
	require.ErrorIs(t, err, relay.ErrNotFound)

	require.NoError(t, alice.PublishPublicKey(ctx, "alice", domain.PublicKey{4, 9}))
	k, err := relay.NewHTTP(base, "bob", nil).FetchPublicKey(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, domain.PublicKey{4, 9}, k)

	require.Error(t, alice.PublishPublicKey(ctx, "bob", domain.PublicKey{1}), "publishing for someone else is forbidden")
}

func TestServer_KeyRecordWireShape(t *testing.T) {
	b, err := json.Marshal(relay.PublicKeyRecord{UserID: "u", PublicKey: domain.PublicKey{1, 2}})
	require.NoError(t, err)
	require.JSONEq(t, `{"user_id":"u","public_key":"AQI="}`, string(b))
}
