package nimsforestscope

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWebServer(t *testing.T) (*WebTarget, *httptest.Server) {
	t.Helper()
	target, err := NewWebTarget("", WithWebLogger(quietLogger()))
	require.NoError(t, err)
	srv := httptest.NewServer(target.Handler())
	t.Cleanup(srv.Close)
	return target, srv
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestWebTargetServesFrames(t *testing.T) {
	target, srv := newTestWebServer(t)

	resp, _ := get(t, srv.URL+"/frame.png")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, body := get(t, srv.URL+"/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))

	frame := &Frame{
		Seq:   1,
		Image: image.NewRGBA(image.Rect(0, 0, 40, 30)),
		Texts: map[string]string{LabelSpikeChannel: "B"},
	}
	require.NoError(t, target.Update(context.Background(), frame))

	resp, body = get(t, srv.URL+"/frame.png")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	img, err := png.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())

	_, body = get(t, srv.URL+"/api/frame")
	var meta FrameJSON
	require.NoError(t, json.Unmarshal(body, &meta))
	assert.Equal(t, uint64(1), meta.Seq)
	assert.Equal(t, 40, meta.Width)
	assert.Equal(t, []TextJSON{{Label: LabelSpikeChannel, Text: "B"}}, meta.Texts)

	resp, body = get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/ws")
}

func TestWebTargetEmptyFrameHasNoPNG(t *testing.T) {
	target, srv := newTestWebServer(t)

	require.NoError(t, target.Update(context.Background(), &Frame{Seq: 1}))

	resp, _ := get(t, srv.URL+"/frame.png")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestWebTargetWebsocket(t *testing.T) {
	target, srv := newTestWebServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	// The handler registers the client after the upgrade completes.
	require.Eventually(t, func() bool {
		target.clientsMu.Lock()
		defer target.clientsMu.Unlock()
		return len(target.clients) == 1
	}, time.Second, time.Millisecond)

	target.Sink(LabelBouncesTop).SetText("3")
	require.NoError(t, target.Update(context.Background(), &Frame{Seq: 5}))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	var msg MessageJSON
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "text", msg.Type)
	require.NotNil(t, msg.Text)
	assert.Equal(t, TextJSON{Label: LabelBouncesTop, Text: "3"}, *msg.Text)

	msg = MessageJSON{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "frame", msg.Type)
	require.NotNil(t, msg.Frame)
	assert.Equal(t, uint64(5), msg.Frame.Seq)
}

func TestWebTargetBroadcastKeepsNewest(t *testing.T) {
	target, err := NewWebTarget("", WithWebLogger(quietLogger()))
	require.NoError(t, err)
	c := &wsClient{send: make(chan MessageJSON, clientQueue)}
	target.clients[c] = struct{}{}

	sink := target.Sink(LabelSpikeChannel)
	for i := range clientQueue + 10 {
		sink.SetText(strconv.Itoa(i))
	}

	require.Len(t, c.send, clientQueue)
	var last MessageJSON
	for range clientQueue {
		last = <-c.send
	}
	require.NotNil(t, last.Text)
	assert.Equal(t, strconv.Itoa(clientQueue+9), last.Text.Text)
}

func TestWebTargetStalledClientDoesNotBlock(t *testing.T) {
	target, srv := newTestWebServer(t)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool {
		target.clientsMu.Lock()
		defer target.clientsMu.Unlock()
		return len(target.clients) == 1
	}, time.Second, time.Millisecond)

	// The client never reads, so its socket buffers fill up quickly.
	text := strings.Repeat("x", 64*1024)
	sink := target.Sink(LabelSpikeChannel)
	start := time.Now()
	for range 2000 {
		sink.SetText(text)
	}
	assert.Less(t, time.Since(start), writeTimeout)
}
