package dev

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/sylph-dev/sylph/pkg/router"
)

// ReloadPath is where the reload socket is mounted.
const ReloadPath = "/_sylph/reload"

// ReloadMessageType represents the type of reload message.
type ReloadMessageType string

const (
	ReloadTypeRoutes ReloadMessageType = "routes"
	ReloadTypeError  ReloadMessageType = "error"
)

// ReloadMessage is sent to browsers via WebSocket.
type ReloadMessage struct {
	Type   ReloadMessageType `json:"type"`
	Routes []string          `json:"routes,omitempty"`
	Error  string            `json:"error,omitempty"`
	File   string            `json:"file,omitempty"`
}

// ReloadServer tells connected clients when a live discovery pass changed
// the route table.
type ReloadServer struct {
	clients  map[*websocket.Conn]bool
	mu       sync.RWMutex
	writeMu  sync.Mutex
	upgrader websocket.Upgrader
}

// NewReloadServer creates a new reload server.
func NewReloadServer() *ReloadServer {
	return &ReloadServer{
		clients: make(map[*websocket.Conn]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

// ServeHTTP upgrades the request and holds the connection until the client
// disconnects.
func (r *ReloadServer) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		return
	}

	r.mu.Lock()
	r.clients[conn] = true
	r.mu.Unlock()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	r.mu.Lock()
	delete(r.clients, conn)
	r.mu.Unlock()
	conn.Close()
}

// NotifyPass reports a finished discovery pass: the bound routes, and the
// first failure if any module failed.
func (r *ReloadServer) NotifyPass(report *router.Report) {
	if report == nil {
		return
	}
	if len(report.Failures) > 0 {
		f := report.Failures[0]
		r.broadcast(ReloadMessage{Type: ReloadTypeError, Error: f.Err.Error(), File: f.Path})
	}
	if len(report.Bound) == 0 {
		return
	}
	routes := make([]string, len(report.Bound))
	for i, k := range report.Bound {
		routes[i] = k.String()
	}
	r.broadcast(ReloadMessage{Type: ReloadTypeRoutes, Routes: routes})
}

func (r *ReloadServer) broadcast(msg ReloadMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	r.mu.RLock()
	clients := make([]*websocket.Conn, 0, len(r.clients))
	for client := range r.clients {
		clients = append(clients, client)
	}
	r.mu.RUnlock()

	r.writeMu.Lock()
	defer r.writeMu.Unlock()
	for _, client := range clients {
		if err := client.WriteMessage(websocket.TextMessage, data); err != nil {
			r.mu.Lock()
			delete(r.clients, client)
			r.mu.Unlock()
			client.Close()
		}
	}
}

// ClientCount returns the number of connected clients.
func (r *ReloadServer) ClientCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// Close closes all client connections.
func (r *ReloadServer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for client := range r.clients {
		client.Close()
		delete(r.clients, client)
	}
}

// ClientScript reloads the page whenever the route table changes.
const ClientScript = `<script>
(function() {
    var delay = 1000;
    function connect() {
        var proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(proto + '//' + location.host + '/_sylph/reload');
        ws.onopen = function() { delay = 1000; };
        ws.onmessage = function(e) {
            var msg;
            try { msg = JSON.parse(e.data); } catch (err) { return; }
            if (msg.type === 'routes') { location.reload(); }
            if (msg.type === 'error') { console.error('[sylph]', msg.file, msg.error); }
        };
        ws.onclose = function() {
            setTimeout(function() { delay = Math.min(delay * 2, 30000); connect(); }, delay);
        };
    }
    connect();
})();
</script>
`
