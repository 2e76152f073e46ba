package server

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"aios/internal/action"
	"aios/internal/agent"
	"aios/internal/client"
	"aios/internal/config"
	"aios/internal/device"
	"aios/internal/history"
	"aios/internal/protocol"
)

type testDaemon struct {
	client *client.Client
	fake   *device.Fake
	store  *history.Store
	socket string
	cancel context.CancelFunc
	done   chan error
}

func startTestDaemon(t *testing.T) *testDaemon {
	t.Helper()

	cfg := config.Default()
	cfg.Socket = filepath.Join(t.TempDir(), "agent.sock")
	cfg.ConfirmDangerous = false
	cfg.LLM.Provider = config.ProviderLocal

	fake := device.NewFake()
	dispatcher := action.NewDispatcher(fake, cfg.ConfirmDangerous, nil)
	store := history.NewStore(cfg.History.Capacity)

	engine, err := agent.New(agent.Options{
		Controller: fake,
		Dispatcher: dispatcher,
		Store:      store,
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	srv := New(cfg, engine, dispatcher, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	// Wait for the listener to come up.
	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", cfg.Socket)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	d := &testDaemon{
		client: client.New(cfg.Socket),
		fake:   fake,
		store:  store,
		socket: cfg.Socket,
		cancel: cancel,
		done:   done,
	}
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("server did not stop in time")
		}
	})
	return d
}

func TestServer_ChatFallbackExecutesAction(t *testing.T) {
	d := startTestDaemon(t)

	resp, err := d.client.Chat(context.Background(), "volume up")
	require.NoError(t, err)

	assert.Equal(t, protocol.StatusOK, resp.Status)
	require.NotNil(t, resp.ActionResult)
	assert.True(t, resp.ActionResult.Success)
	assert.Equal(t, 60, d.fake.VolumeLevel)
	assert.Equal(t, 2, d.store.Len())
}

func TestServer_ActionClamps(t *testing.T) {
	d := startTestDaemon(t)

	resp, err := d.client.Action(context.Background(), json.RawMessage(`{"action":"brightness","level":150}`))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, 100, d.fake.BrightnessLevel)

	resp, err = d.client.Action(context.Background(), json.RawMessage(`{"action":"brightness","level":-20}`))
	require.NoError(t, err)
	require.NotNil(t, resp.Result)
	assert.True(t, resp.Result.Success)
	assert.Equal(t, 0, d.fake.BrightnessLevel)
}

// roundTrip sends one request and reads one response on an existing
// connection.
func roundTrip(t *testing.T, conn net.Conn, req protocol.Request) protocol.Response {
	t.Helper()
	payload, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, protocol.WriteFrame(conn, payload))
	data, err := protocol.ReadFrame(conn)
	require.NoError(t, err)
	var resp protocol.Response
	require.NoError(t, json.Unmarshal(data, &resp))
	return resp
}

func TestServer_UnknownActionKeepsConnection(t *testing.T) {
	d := startTestDaemon(t)

	conn, err := net.Dial("unix", d.socket)
	require.NoError(t, err)
	defer conn.Close()

	resp := roundTrip(t, conn, protocol.Request{Cmd: protocol.CmdAction, Action: json.RawMessage(`{"action":"bogus"}`)})
	require.NotNil(t, resp.Result)
	assert.False(t, resp.Result.Success)
	assert.NotEmpty(t, resp.Result.Message)

	// The same connection must still serve requests.
	resp = roundTrip(t, conn, protocol.Request{Cmd: protocol.CmdStatus})
	assert.Equal(t, protocol.StatusOK, resp.Status)
}

func TestServer_UnknownCommandKeepsConnection(t *testing.T) {
	d := startTestDaemon(t)

	conn, err := net.Dial("unix", d.socket)
	require.NoError(t, err)
	defer conn.Close()

	resp := roundTrip(t, conn, protocol.Request{Cmd: "dance"})
	assert.Equal(t, protocol.StatusError, resp.Status)
	assert.Contains(t, resp.Message, "dance")

	resp = roundTrip(t, conn, protocol.Request{Cmd: protocol.CmdStatus})
	assert.Equal(t, protocol.StatusOK, resp.Status)
}

func TestServer_OversizeFrameClosesConnection(t *testing.T) {
	d := startTestDaemon(t)

	conn, err := net.Dial("unix", d.socket)
	require.NoError(t, err)
	defer conn.Close()

	// Declare a length one byte over the ceiling.
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], protocol.MaxFrameSize+1)
	_, err = conn.Write(header[:])
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF, "server must close the connection")

	// The server itself stays up.
	resp, err := d.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, resp.Status)
}

func TestServer_MalformedJSONClosesConnectionOnly(t *testing.T) {
	d := startTestDaemon(t)

	conn, err := net.Dial("unix", d.socket)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, protocol.WriteFrame(conn, []byte("this is not json")))
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, err = conn.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)

	resp, err := d.client.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, resp.Status)
}

func TestServer_Status(t *testing.T) {
	d := startTestDaemon(t)

	resp, err := d.client.Status(context.Background())
	require.NoError(t, err)

	assert.Equal(t, protocol.StatusOK, resp.Status)
	require.NotNil(t, resp.Running)
	assert.True(t, *resp.Running)
	require.NotNil(t, resp.AIConfigured)
	assert.False(t, *resp.AIConfigured)
	require.NotNil(t, resp.System)
	assert.Equal(t, "testhost", resp.System.Hostname)
	assert.NotZero(t, resp.System.MemoryMB)
}

func TestServer_ClearEmptiesHistory(t *testing.T) {
	d := startTestDaemon(t)

	_, err := d.client.Chat(context.Background(), "what time is it")
	require.NoError(t, err)
	require.NotZero(t, d.store.Len())

	resp, err := d.client.Clear(context.Background())
	require.NoError(t, err)
	assert.Equal(t, protocol.StatusOK, resp.Status)
	assert.Zero(t, d.store.Len())
}

func TestServer_ConcurrentChats(t *testing.T) {
	d := startTestDaemon(t)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := d.client.Chat(context.Background(), "volume up")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	// Two chats append four intact turns.
	assert.Equal(t, 4, d.store.Len())
	for _, turn := range d.store.Snapshot() {
		assert.NotEmpty(t, turn.Role)
		assert.NotEmpty(t, turn.Content)
	}
}

func TestServer_GracefulShutdown(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := config.Default()
	cfg.Socket = filepath.Join(t.TempDir(), "agent.sock")
	cfg.LLM.Provider = config.ProviderLocal

	fake := device.NewFake()
	dispatcher := action.NewDispatcher(fake, false, nil)
	engine, err := agent.New(agent.Options{
		Controller: fake,
		Dispatcher: dispatcher,
		Store:      history.NewStore(20),
		Timeout:    time.Second,
	})
	require.NoError(t, err)

	srv := New(cfg, engine, dispatcher, fake, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, func() bool {
		conn, err := net.Dial("unix", cfg.Socket)
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 2*time.Second, 10*time.Millisecond)

	// A connection left open at shutdown must not block the drain.
	idle, err := net.Dial("unix", cfg.Socket)
	require.NoError(t, err)
	defer idle.Close()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not drain")
	}
}
