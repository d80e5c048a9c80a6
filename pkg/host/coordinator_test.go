package host

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dentalcow/cybermix/pkg/audio"
	"github.com/Dentalcow/cybermix/pkg/binding"
	"github.com/Dentalcow/cybermix/pkg/transport"
	"github.com/Dentalcow/cybermix/pkg/wire"
)

// countingAPI wraps SimAPI and records every SetVolume call.
type countingAPI struct {
	*audio.SimAPI

	mu       sync.Mutex
	setCalls []setCall
}

type setCall struct {
	id    string
	value float64
}

func (a *countingAPI) SetVolume(id string, volume float64) error {
	a.mu.Lock()
	a.setCalls = append(a.setCalls, setCall{id, volume})
	a.mu.Unlock()
	return a.SimAPI.SetVolume(id, volume)
}

func (a *countingAPI) calls() []setCall {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]setCall, len(a.setCalls))
	copy(out, a.setCalls)
	return out
}

func newTestCoordinator(t *testing.T, apps ...string) (*Coordinator, *countingAPI) {
	t.Helper()
	api := &countingAPI{SimAPI: audio.NewSimAPI(apps...)}
	c, err := New(Config{Pages: 3, Suppression: time.Minute}, api, nil)
	require.NoError(t, err)
	return c, api
}

// deviceReader decodes everything the host sends over conn into a channel.
func deviceReader(t *testing.T, conn net.Conn) chan any {
	t.Helper()
	msgs := make(chan any, 256)
	devFramer := transport.NewFramer(conn)
	go func() {
		for {
			mt, payload, err := devFramer.ReadFrame()
			if err != nil {
				return
			}
			if m, err := wire.Decode(mt, payload); err == nil {
				msgs <- m
			}
		}
	}()
	return msgs
}

// attachTestLink wires a fake device over an in-memory pipe and returns the
// channel of messages the device decodes. Attaching pushes the full state.
func attachTestLink(t *testing.T, c *Coordinator) chan any {
	t.Helper()
	hostSide, devSide := net.Pipe()
	t.Cleanup(func() { devSide.Close() })

	msgs := deviceReader(t, devSide)

	l := &deviceLink{
		id:     "test-link",
		framer: transport.NewFramer(hostSide),
		closer: hostSide,
		cancel: func() {},
		monitor: transport.NewLinkMonitor(transport.DefaultLinkConfig(),
			func() error { return nil }, nil),
	}
	c.handleLinkUp(l)
	return msgs
}

// collect receives exactly n messages or fails the test.
func collect(t *testing.T, msgs chan any, n int) []any {
	t.Helper()
	out := make([]any, 0, n)
	for len(out) < n {
		select {
		case m := <-msgs:
			out = append(out, m)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d messages", len(out), n)
		}
	}
	return out
}

// assertQuiet asserts no further messages arrive.
func assertQuiet(t *testing.T, msgs chan any) {
	t.Helper()
	select {
	case m := <-msgs:
		t.Fatalf("unexpected message %#v", m)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestFaderMovedOnBoundChannelSetsVolumeOnce(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 2, "app.music"))

	c.handleFrame(&wire.FaderMoved{Channel: 2, Value: 0.75})

	calls := api.calls()
	require.Len(t, calls, 1)
	assert.Equal(t, setCall{"app.music", 0.75}, calls[0])
}

func TestFaderMovedOnUnassignedChannelIsHarmless(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")

	c.handleFrame(&wire.FaderMoved{Channel: 1, Value: 0.3})

	assert.Empty(t, api.calls())
	assert.InDelta(t, 0.3, c.fader[1], 1e-9)
}

func TestFaderMovedOnDeadTargetIsHarmless(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 0, "app.music"))

	api.RemoveSession("app.music")
	ev := <-api.Events()
	c.handleAudio(ev)

	c.handleFrame(&wire.FaderMoved{Channel: 0, Value: 0.5})
	assert.Empty(t, api.calls())
}

func TestLinkUpPushesFullState(t *testing.T) {
	c, _ := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 0, "app.music"))

	msgs := attachTestLink(t, c)

	// Page announcement, one SetVolume for the bound channel, display and
	// LED for all five channels, and the master bar level.
	got := collect(t, msgs, 1+1+2*wire.ChannelCount+1)

	_, ok := got[0].(*wire.PageChanged)
	assert.True(t, ok, "first message should announce the page, got %#v", got[0])

	var setVolumes, displays, leds, bars int
	for _, m := range got[1:] {
		switch m.(type) {
		case *wire.SetVolume:
			setVolumes++
		case *wire.RenderDisplay:
			displays++
		case *wire.SetLED:
			leds++
		case *wire.SetLEDBar:
			bars++
		}
	}
	assert.Equal(t, 1, setVolumes)
	assert.Equal(t, wire.ChannelCount, displays)
	assert.Equal(t, wire.ChannelCount, leds)
	assert.Equal(t, 1, bars)
	assertQuiet(t, msgs)
}

func TestPageChangedToPageWithUnassignedChannels(t *testing.T) {
	c, _ := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 0, "app.music"))
	msgs := attachTestLink(t, c)
	collect(t, msgs, 13) // drain the initial full state

	// Page 1 has no bindings at all.
	c.handleFrame(&wire.PageChanged{Page: 1})

	got := collect(t, msgs, 2*wire.ChannelCount)
	for _, m := range got {
		switch msg := m.(type) {
		case *wire.RenderDisplay:
			assert.Equal(t, unassignedLine, msg.Line1)
			assert.Empty(t, msg.Line2)
		case *wire.SetLED:
			assert.Equal(t, colorUnassigned, [3]uint8{msg.R, msg.G, msg.B})
		default:
			t.Fatalf("unexpected message %#v", m)
		}
	}
	assert.Equal(t, uint8(1), c.page)
	assertQuiet(t, msgs)
}

func TestOutOfRangePageForcesResync(t *testing.T) {
	c, _ := newTestCoordinator(t)
	msgs := attachTestLink(t, c)
	collect(t, msgs, 12)

	c.handleFrame(&wire.PageChanged{Page: 9})

	got := collect(t, msgs, 12)
	pc, ok := got[0].(*wire.PageChanged)
	require.True(t, ok)
	assert.Equal(t, uint8(0), pc.Page)
	assert.Equal(t, uint8(0), c.page)
}

func TestEchoSuppressedVolumeChangeNotForwarded(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 2, "app.music"))
	msgs := attachTestLink(t, c)
	collect(t, msgs, 13)

	// The fader moves; the mixer reports our own write back.
	c.handleFrame(&wire.FaderMoved{Channel: 2, Value: 0.6})
	collect(t, msgs, 2) // display + LED refresh for the moved channel

	ev := <-api.Events()
	require.Equal(t, audio.VolumeChanged, ev.Kind)
	c.handleAudio(ev)

	// The echo must not bounce back to the device as SetVolume.
	assertQuiet(t, msgs)
}

func TestExternalVolumeChangeForwarded(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 2, "app.music"))
	msgs := attachTestLink(t, c)
	collect(t, msgs, 13)

	// The application changes its own volume, no local write preceding it.
	api.ChangeVolume("app.music", 0.25)
	ev := <-api.Events()
	c.handleAudio(ev)

	got := collect(t, msgs, 3)
	var sv *wire.SetVolume
	for _, m := range got {
		if v, ok := m.(*wire.SetVolume); ok {
			sv = v
		}
	}
	require.NotNil(t, sv)
	assert.Equal(t, uint8(2), sv.Channel)
	assert.InDelta(t, 0.25, sv.Value, 1e-9)
}

func TestSessionRemovedShowsDeadChannel(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 3, "app.music"))
	msgs := attachTestLink(t, c)
	collect(t, msgs, 13)

	api.RemoveSession("app.music")
	ev := <-api.Events()
	c.handleAudio(ev)

	got := collect(t, msgs, 2)
	for _, m := range got {
		switch msg := m.(type) {
		case *wire.RenderDisplay:
			assert.Equal(t, "app.musi", msg.Line1) // name truncated, kept visible
		case *wire.SetLED:
			assert.Equal(t, colorBoundDead, [3]uint8{msg.R, msg.G, msg.B})
		}
	}

	// The application restarts: the channel comes back without re-assigning.
	api.AddSession("app.music", 0.8)
	ev = <-api.Events()
	c.handleAudio(ev)

	got = collect(t, msgs, 3)
	var sv *wire.SetVolume
	for _, m := range got {
		if v, ok := m.(*wire.SetVolume); ok {
			sv = v
		}
	}
	require.NotNil(t, sv)
	assert.InDelta(t, 0.8, sv.Value, 1e-9)
}

func TestHelloTriggersFullResync(t *testing.T) {
	c, _ := newTestCoordinator(t)
	msgs := attachTestLink(t, c)
	collect(t, msgs, 12)

	c.handleFrame(&wire.Hello{Protocol: wire.ProtocolVersion, Channels: 5, Pages: 3})
	collect(t, msgs, 12)
	assertQuiet(t, msgs)
}

func TestSendWithoutLinkIsDropped(t *testing.T) {
	c, api := newTestCoordinator(t, "app.music")
	require.NoError(t, c.bindings.Assign(0, 0, "app.music"))

	// No link attached: the movement still reaches the mixer, and the
	// outbound visual update lands in the state tables only.
	c.handleFrame(&wire.FaderMoved{Channel: 0, Value: 0.9})
	require.Len(t, api.calls(), 1)

	// The next link-up carries the latest value.
	msgs := attachTestLink(t, c)
	got := collect(t, msgs, 13)

	var sv *wire.SetVolume
	for _, m := range got {
		if v, ok := m.(*wire.SetVolume); ok {
			sv = v
		}
	}
	require.NotNil(t, sv)
	assert.InDelta(t, 0.9, sv.Value, 1e-9)
}

func TestConsoleCommandsThroughQueue(t *testing.T) {
	c, _ := newTestCoordinator(t, "app.music", "app.chat")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	require.NoError(t, c.Assign(0, 0, "app.music"))
	require.NoError(t, c.Assign(0, 1, "app.chat"))
	assert.Error(t, c.Assign(0, 2, "app.music")) // conflict on the page

	require.NoError(t, c.SetPage(2))
	assert.Equal(t, uint8(2), c.Page())
	assert.Error(t, c.SetPage(9))

	assert.False(t, c.Connected())

	records := c.Bindings()
	assert.Len(t, records, 2)

	sessions := c.Sessions()
	assert.GreaterOrEqual(t, len(sessions), 3) // master + two apps
}

func TestLinkOutlivesConnectAttempt(t *testing.T) {
	api := &countingAPI{SimAPI: audio.NewSimAPI("app.music")}
	c, err := New(Config{
		Pages:             3,
		Suppression:       time.Minute,
		HeartbeatInterval: time.Minute,
	}, api, nil)
	require.NoError(t, err)
	require.NoError(t, c.bindings.Assign(0, 2, "app.music"))

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	go func() { _ = c.Run(runCtx) }()

	hostSide, devSide := net.Pipe()
	t.Cleanup(func() { devSide.Close() })
	msgs := deviceReader(t, devSide)

	// The reconnect loop attaches under a short-lived attempt context and
	// releases it as soon as the connect function returns. The link must not
	// die with it.
	attemptCtx, cancelAttempt := context.WithTimeout(context.Background(), 30*time.Second)
	connect := func(ctx context.Context) error {
		c.Attach(hostSide)
		return nil
	}
	require.NoError(t, connect(attemptCtx))
	cancelAttempt()

	collect(t, msgs, 13) // the full state still arrives

	devFramer := transport.NewFramer(devSide)
	require.NoError(t, devFramer.WriteMessage(&wire.FaderMoved{Channel: 2, Value: 0.75}))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(api.calls()) == 0 {
		time.Sleep(10 * time.Millisecond)
	}
	calls := api.calls()
	require.Len(t, calls, 1, "fader movement after the attempt context ended must still route")
	assert.Equal(t, setCall{"app.music", 0.75}, calls[0])
}

func TestCorruptStateFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	api := &countingAPI{SimAPI: audio.NewSimAPI("app.music")}
	c, err := New(Config{Pages: 3}, api, binding.NewStore(path))
	require.NoError(t, err, "stale state must degrade, not prevent startup")

	assert.Empty(t, c.Bindings())
	assert.Equal(t, uint8(0), c.page)
}

func TestFaderMovesPersistDebounced(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	store := binding.NewStore(path)
	api := &countingAPI{SimAPI: audio.NewSimAPI("app.music")}
	c, err := New(Config{
		Pages:             3,
		SaveInterval:      20 * time.Millisecond,
		HeartbeatInterval: time.Minute,
	}, api, store)
	require.NoError(t, err)

	// A drag produces a burst of movements; none of them hits the disk.
	c.handleFrame(&wire.FaderMoved{Channel: 1, Value: 0.2})
	c.handleFrame(&wire.FaderMoved{Channel: 1, Value: 0.3})
	c.handleFrame(&wire.FaderMoved{Channel: 1, Value: 0.4})
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "fader moves alone must not write the state file")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	_, values, _, err := store.Load(nil)
	require.NoError(t, err)
	require.Len(t, values, wire.ChannelCount)
	assert.InDelta(t, 0.4, values[1], 1e-9)
}
