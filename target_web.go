package nimsforestscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// WebTarget serves the visualization via HTTP for web browsers.
// The latest frame is available as PNG at /frame.png, its metadata and
// side-display texts at /api/frame, and live updates over /ws.
type WebTarget struct {
	addr     string
	server   *http.Server
	frame    *Frame
	png      []byte
	mu       sync.RWMutex
	webDir   string // Optional directory with static web assets
	started  bool
	log      logrus.FieldLogger
	upgrader websocket.Upgrader

	clientsMu sync.Mutex
	clients   map[*wsClient]struct{}
}

// wsClient is one websocket connection with its own writer goroutine.
// Messages queue in send; when the queue is full the oldest is dropped.
type wsClient struct {
	conn *websocket.Conn
	send chan MessageJSON
}

const (
	clientQueue  = 64
	writeTimeout = time.Second
)

// WebOption configures a WebTarget.
type WebOption func(*WebTarget)

// WithWebDir sets the directory containing static web assets.
func WithWebDir(dir string) WebOption {
	return func(t *WebTarget) {
		t.webDir = dir
	}
}

// WithWebLogger sets the logger.
func WithWebLogger(log logrus.FieldLogger) WebOption {
	return func(t *WebTarget) {
		t.log = log
	}
}

// NewWebTarget creates a target that serves the visualization via HTTP.
func NewWebTarget(addr string, opts ...WebOption) (*WebTarget, error) {
	target := &WebTarget{
		addr:    addr,
		log:     logrus.StandardLogger(),
		clients: make(map[*wsClient]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	for _, opt := range opts {
		opt(target)
	}

	return target, nil
}

// Name implements Target.
func (t *WebTarget) Name() string {
	return fmt.Sprintf("WebTarget(%s)", t.addr)
}

// Update implements Target.
func (t *WebTarget) Update(ctx context.Context, frame *Frame) error {
	var encoded []byte
	if w, h := frame.Size(); w > 0 && h > 0 {
		var buf bytes.Buffer
		if err := png.Encode(&buf, frame.Image); err != nil {
			return fmt.Errorf("encode PNG: %w", err)
		}
		encoded = buf.Bytes()
	}

	t.mu.Lock()
	t.frame = frame
	t.png = encoded
	wasStarted := t.started
	t.mu.Unlock()

	meta := FrameToJSON(frame)
	t.broadcast(MessageJSON{Type: "frame", Frame: &meta})

	// Auto-start server on first update
	if !wasStarted && t.addr != "" {
		return t.start()
	}
	return nil
}

// Sink returns a text sink that queues every write for websocket clients
// as soon as it happens. It never waits on a client.
func (t *WebTarget) Sink(label string) TextSink {
	return TextSinkFunc(func(text string) {
		t.broadcast(MessageJSON{Type: "text", Text: &TextJSON{Label: label, Text: text}})
	})
}

// Handler returns the HTTP handler for embedding in existing servers.
func (t *WebTarget) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/frame", t.handleFrameJSON)
	mux.HandleFunc("/frame.png", t.handleFramePNG)
	mux.HandleFunc("/ws", t.handleWebsocket)

	// Health check
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Static files
	if t.webDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(t.webDir)))
	} else {
		mux.HandleFunc("/", t.handleIndex)
	}

	return mux
}

func (t *WebTarget) handleFrameJSON(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	frame := t.frame
	t.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	json.NewEncoder(w).Encode(FrameToJSON(frame))
}

func (t *WebTarget) handleFramePNG(w http.ResponseWriter, r *http.Request) {
	t.mu.RLock()
	data := t.png
	t.mu.RUnlock()

	if data == nil {
		http.Error(w, "no frame rendered yet", http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (t *WebTarget) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		t.log.WithError(err).Debug("websocket upgrade failed")
		return
	}

	c := &wsClient{conn: conn, send: make(chan MessageJSON, clientQueue)}
	t.clientsMu.Lock()
	t.clients[c] = struct{}{}
	t.clientsMu.Unlock()

	go t.writePump(c)

	// Drain reads so close frames are handled; clients never send data.
	go func() {
		defer t.dropClient(c)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (t *WebTarget) writePump(c *wsClient) {
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			t.log.WithError(err).Debug("websocket client dropped")
			t.dropClient(c)
			return
		}
	}
}

// broadcast queues msg for every client without blocking.
func (t *WebTarget) broadcast(msg MessageJSON) {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()

	for c := range t.clients {
		select {
		case c.send <- msg:
		default:
			// Slow client: the newest message wins.
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- msg:
			default:
			}
		}
	}
}

func (t *WebTarget) dropClient(c *wsClient) {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	t.removeClientLocked(c)
}

func (t *WebTarget) removeClientLocked(c *wsClient) {
	if _, ok := t.clients[c]; !ok {
		return
	}
	delete(t.clients, c)
	close(c.send)
	c.conn.Close()
}

func (t *WebTarget) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>nimsforestscope</title>
    <style>
        body { font-family: system-ui; background: #1a1a2e; color: #eee; padding: 2rem; }
        h1 { color: #4ade80; }
        canvas, img { background: #000; }
        .info { background: #16213e; padding: 1rem; border-radius: 8px; margin: 1rem 0; }
        .info span { margin-right: 1.5rem; }
    </style>
</head>
<body>
    <h1>nimsforestscope</h1>
    <img id="frame" src="/frame.png" alt="frame">
    <div class="info" id="texts"></div>
    <script>
        const texts = {};
        const box = document.getElementById('texts');
        const img = document.getElementById('frame');
        function show() {
            box.innerHTML = Object.keys(texts).sort()
                .map(k => '<span><strong>' + k + '</strong> ' + texts[k] + '</span>').join('');
        }
        const ws = new WebSocket((location.protocol === 'https:' ? 'wss://' : 'ws://') + location.host + '/ws');
        ws.onmessage = (ev) => {
            const msg = JSON.parse(ev.data);
            if (msg.type === 'text') {
                texts[msg.text.label] = msg.text.text;
            } else if (msg.type === 'frame') {
                (msg.frame.texts || []).forEach(t => { texts[t.label] = t.text; });
                img.src = '/frame.png?seq=' + msg.frame.seq;
            }
            show();
        };
    </script>
</body>
</html>`

func (t *WebTarget) start() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.started {
		return nil
	}

	t.server = &http.Server{
		Addr:    t.addr,
		Handler: t.Handler(),
	}

	go func() {
		if err := t.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			t.log.WithError(err).WithField("target", t.Name()).Error("web server stopped")
		}
	}()

	t.started = true
	return nil
}

// Close implements Target.
func (t *WebTarget) Close() error {
	t.clientsMu.Lock()
	for c := range t.clients {
		t.removeClientLocked(c)
	}
	t.clientsMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.server != nil {
		return t.server.Shutdown(context.Background())
	}
	return nil
}

// URL returns the URL where the web target is serving.
func (t *WebTarget) URL() string {
	return "http://localhost" + t.addr
}
