package chat

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hushchat/hush/internal/app"
	"github.com/hushchat/hush/internal/config"
)

type fakeConn struct {
	mu     sync.Mutex
	frames [][]byte
}

func (f *fakeConn) TrySend(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, append([]byte(nil), data...))
	return nil
}

func (f *fakeConn) events(t *testing.T) []map[string]any {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]map[string]any, 0, len(f.frames))
	for _, frame := range f.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(frame, &m))
		out = append(out, m)
	}
	return out
}

func (f *fakeConn) types(t *testing.T) []string {
	t.Helper()
	evts := f.events(t)
	out := make([]string, 0, len(evts))
	for _, e := range evts {
		out = append(out, e["type"].(string))
	}
	return out
}

func (f *fakeConn) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = nil
}

func testConfig() *config.Config {
	return &config.Config{
		MaxMessageLen:     2000,
		MessageRateLimit:  100,
		MessageRateWindow: time.Minute,
		ReadLimit:         32768,
		PingPeriod:        time.Minute,
	}
}

func newTestController() *ChatWSController {
	return NewChatWSController(app.NewOrchestrator(), testConfig())
}

func joinEvent(roomID, username, avatar string) []byte {
	b, _ := json.Marshal(map[string]string{
		"type": "join_chat", "room_id": roomID, "username": username, "avatar": avatar,
	})
	return b
}

func messageEvent(text string) []byte {
	b, _ := json.Marshal(map[string]string{"type": "send_message", "message": text})
	return b
}

func TestJoin_HappyPath(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))

	require.Equal(t, []string{"room_key", "message_history", "user_list_update", "joined_successfully"}, alice.types(t))

	evts := alice.events(t)
	require.NotEmpty(t, evts[0]["encryption_key"])
	require.Equal(t, room.Key().Encode(), evts[0]["encryption_key"])
	require.Empty(t, evts[1]["messages"])
	require.Equal(t, float64(1), evts[2]["count"])
}

func TestJoin_LowercaseRoomIDNormalized(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(strings.ToLower(string(room.ID())), "alice", "cat"))

	require.Contains(t, alice.types(t), "joined_successfully")
	sess, ok := ctl.Orch.Registry.Lookup("a")
	require.True(t, ok)
	require.Equal(t, room.ID(), sess.RoomID)
}

func TestJoin_UnknownRoom(t *testing.T) {
	ctl := newTestController()

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent("ZZZZZZZZ", "alice", "cat"))

	require.Equal(t, []string{"error"}, alice.types(t))
	_, ok := ctl.Orch.Registry.Lookup("a")
	require.False(t, ok, "rejected join must not create a session")
}

func TestJoin_MissingIdentity(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "   ", "cat"))
	require.Equal(t, []string{"error"}, alice.types(t))

	alice.reset()
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", ""))
	require.Equal(t, []string{"error"}, alice.types(t))

	_, ok := ctl.Orch.Registry.Lookup("a")
	require.False(t, ok)
}

func TestRoomLifecycle_Scenario(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)
	roomID := string(room.ID())
	require.Len(t, roomID, 8)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(roomID, "alice", "cat"))
	require.Equal(t, []string{"room_key", "message_history", "user_list_update", "joined_successfully"}, alice.types(t))
	alice.reset()

	// Bob joins: alice sees the presence event and the updated list.
	bob := &fakeConn{}
	ctl.handleEvent("b", bob, joinEvent(roomID, "bob", "dog"))
	require.Equal(t, []string{"user_joined", "user_list_update"}, alice.types(t))

	aliceEvts := alice.events(t)
	require.Equal(t, "bob", aliceEvts[0]["username"])
	require.Equal(t, float64(2), aliceEvts[1]["count"])
	alice.reset()
	bob.reset()

	// Bob sends a message: the whole room, sender included, gets it.
	ctl.handleEvent("b", bob, messageEvent("hi"))
	for _, conn := range []*fakeConn{alice, bob} {
		evts := conn.events(t)
		require.Len(t, evts, 1)
		require.Equal(t, "new_message", evts[0]["type"])
		require.Equal(t, "bob", evts[0]["username"])
		require.Equal(t, "hi", evts[0]["message"])
		require.Equal(t, true, evts[0]["is_encrypted"])
	}
	require.Len(t, room.Recent(), 1)
	alice.reset()
	bob.reset()

	// Alice disconnects: bob sees user_left and the shrunken list.
	ctl.disconnect("a")
	require.Equal(t, []string{"user_left", "user_list_update"}, bob.types(t))
	bobEvts := bob.events(t)
	require.Equal(t, "alice", bobEvts[0]["username"])
	require.Equal(t, float64(1), bobEvts[1]["count"])
	bob.reset()

	// A second disconnect for the same connection emits nothing.
	ctl.disconnect("a")
	require.Empty(t, bob.types(t))
}

func TestMessage_HistoryReplayedToLateJoiner(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))
	ctl.handleEvent("a", alice, messageEvent("hello"))
	ctl.handleEvent("a", alice, messageEvent("world"))

	bob := &fakeConn{}
	ctl.handleEvent("b", bob, joinEvent(string(room.ID()), "bob", "dog"))

	evts := bob.events(t)
	require.Equal(t, "message_history", evts[1]["type"])
	msgs := evts[1]["messages"].([]any)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	second := msgs[1].(map[string]any)
	require.Equal(t, "hello", first["message"])
	require.Equal(t, "world", second["message"])
}

func TestMessage_Unauthenticated(t *testing.T) {
	ctl := newTestController()

	stranger := &fakeConn{}
	ctl.handleEvent("x", stranger, messageEvent("hi"))

	require.Equal(t, []string{"error"}, stranger.types(t))
}

func TestMessage_EmptyAfterTrim(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))
	alice.reset()

	ctl.handleEvent("a", alice, messageEvent("   "))
	require.Equal(t, []string{"error"}, alice.types(t))
	require.Empty(t, room.Recent())
}

func TestMessage_TooLong(t *testing.T) {
	cfg := testConfig()
	cfg.MaxMessageLen = 5
	ctl := NewChatWSController(app.NewOrchestrator(), cfg)
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))
	alice.reset()

	ctl.handleEvent("a", alice, messageEvent("this is way past the cap"))
	require.Equal(t, []string{"error"}, alice.types(t))
	require.Empty(t, room.Recent())
}

func TestMessage_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.MessageRateLimit = 2
	ctl := NewChatWSController(app.NewOrchestrator(), cfg)
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))
	alice.reset()

	ctl.handleEvent("a", alice, messageEvent("one"))
	ctl.handleEvent("a", alice, messageEvent("two"))
	ctl.handleEvent("a", alice, messageEvent("three"))

	types := alice.types(t)
	require.Equal(t, []string{"new_message", "new_message", "error"}, types)
	require.Len(t, room.Recent(), 2)
}

func TestTyping_ExcludesSender(t *testing.T) {
	ctl := newTestController()
	room, err := ctl.Orch.Rooms.Create()
	require.NoError(t, err)

	alice := &fakeConn{}
	bob := &fakeConn{}
	ctl.handleEvent("a", alice, joinEvent(string(room.ID()), "alice", "cat"))
	ctl.handleEvent("b", bob, joinEvent(string(room.ID()), "bob", "dog"))
	alice.reset()
	bob.reset()

	typing, _ := json.Marshal(map[string]any{"type": "typing", "is_typing": true})
	ctl.handleEvent("b", bob, typing)

	require.Empty(t, bob.types(t), "sender must not receive their own typing event")
	evts := alice.events(t)
	require.Len(t, evts, 1)
	require.Equal(t, "user_typing", evts[0]["type"])
	require.Equal(t, "bob", evts[0]["username"])
	require.Equal(t, true, evts[0]["is_typing"])
}

func TestTyping_UnauthenticatedSilentlyIgnored(t *testing.T) {
	ctl := newTestController()

	stranger := &fakeConn{}
	typing, _ := json.Marshal(map[string]any{"type": "typing", "is_typing": true})
	ctl.handleEvent("x", stranger, typing)

	require.Empty(t, stranger.types(t))
}

func TestPing(t *testing.T) {
	ctl := newTestController()

	conn := &fakeConn{}
	ctl.handleEvent("a", conn, []byte(`{"type":"ping"}`))

	require.Equal(t, []string{"pong"}, conn.types(t))
}

func TestUnknownEvent_Ignored(t *testing.T) {
	ctl := newTestController()

	conn := &fakeConn{}
	ctl.handleEvent("a", conn, []byte(`{"type":"dance"}`))
	ctl.handleEvent("a", conn, []byte(`not json`))

	require.Empty(t, conn.types(t))
}
