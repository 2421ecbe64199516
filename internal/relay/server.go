package relay

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/emmaarthur191/coastal-project-sub004/internal/domain"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/frame"
	"github.com/emmaarthur191/coastal-project-sub004/internal/protocol/signal"
)

const (
	memberQueue  = 64
	writeTimeout = 10 * time.Second
	maxFrameSize = 1 << 20
)

// member is one open socket in a thread.
type member struct {
	user domain.UserID
	send chan []byte
}

// Server is an in-memory development backend: the thread socket hub plus
// the user and key directories. The token of a request is taken as the
// caller's user id.
type Server struct {
	log      *zap.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	threads map[domain.ThreadID]map[*member]struct{}
	users   map[domain.UserID]domain.User
	keys    map[domain.UserID]domain.PublicKey
}

func NewServer(log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{
		log: log.Named("relay"),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		threads: make(map[domain.ThreadID]map[*member]struct{}),
		users:   make(map[domain.UserID]domain.User),
		keys:    make(map[domain.UserID]domain.PublicKey),
	}
}

// AddUser registers directory data for u.
func (s *Server) AddUser(u domain.User) {
	s.mu.Lock()
	s.users[u.ID] = u
	s.mu.Unlock()
}

// Online reports whether user has a socket open on thread.
func (s *Server) Online(thread domain.ThreadID, user domain.UserID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for m := range s.threads[thread] {
		if m.user == user {
			return true
		}
	}
	return false
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /ws/messaging/{thread}/", s.serveSocket)
	mux.HandleFunc("GET /api/users/{id}", s.authorized(s.getUser))
	mux.HandleFunc("GET /api/keys/{id}", s.authorized(s.getKey))
	mux.HandleFunc("PUT /api/keys/{id}", s.authorized(s.putKey))
	return mux
}

func bearer(r *http.Request) string {
	return strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
}

func (s *Server) authorized(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if bearer(r) == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id := domain.UserID(r.PathValue("id"))
	s.mu.RLock()
	u, ok := s.users[id]
	s.mu.RUnlock()
	if !ok {
		// Unknown users are still callable; only the name is missing.
		u = domain.User{ID: id}
	}
	writeJSON(w, u)
}

func (s *Server) getKey(w http.ResponseWriter, r *http.Request) {
	id := domain.UserID(r.PathValue("id"))
	s.mu.RLock()
	k, ok := s.keys[id]
	s.mu.RUnlock()
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, PublicKeyRecord{UserID: id, PublicKey: k})
}

func (s *Server) putKey(w http.ResponseWriter, r *http.Request) {
	id := domain.UserID(r.PathValue("id"))
	if bearer(r) != id.String() {
		http.Error(w, "cannot publish another user's key", http.StatusForbidden)
		return
	}
	defer r.Body.Close()
	var rec PublicKeyRecord
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(rec.PublicKey) == 0 {
		http.Error(w, "empty key", http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.keys[id] = rec.PublicKey
	s.mu.Unlock()
	s.log.Info("key published", zap.String("user", id.String()))
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request) {
	thread := domain.ThreadID(r.PathValue("thread"))
	user := domain.UserID(r.URL.Query().Get("token"))
	if user == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("upgrade failed", zap.Error(err))
		return
	}
	conn.SetReadLimit(maxFrameSize)

	m := &member{user: user, send: make(chan []byte, memberQueue)}
	s.join(thread, m)
	log := s.log.With(zap.String("thread", thread.String()), zap.String("user", user.String()))
	log.Info("joined")

	go s.writeLoop(conn, m)
	defer func() {
		s.leave(thread, m)
		log.Info("left")
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		s.relay(thread, m, data, log)
	}
}

func (s *Server) writeLoop(conn *websocket.Conn, m *member) {
	defer conn.Close()
	for b := range m.send {
		_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
			return
		}
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeTimeout))
}

// relay answers pings, delivers signals to their target and broadcasts
// every other frame to the whole thread, sender included.
func (s *Server) relay(thread domain.ThreadID, from *member, data []byte, log *zap.Logger) {
	raw, err := frame.Peek(data)
	if err != nil {
		log.Debug("bad frame", zap.Error(err))
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	switch {
	case raw.Type == frame.TypePing:
		pong, _ := json.Marshal(frame.Pong())
		s.deliver(from, pong, log)
	case raw.Type == frame.TypePong:
	case signal.IsSignal(raw.Type):
		var h signal.Header
		if err := raw.Decode(&h); err != nil || h.TargetID == "" {
			log.Debug("signal without target", zap.String("type", raw.Type))
			return
		}
		for m := range s.threads[thread] {
			if m.user == h.TargetID {
				s.deliver(m, data, log)
			}
		}
	default:
		for m := range s.threads[thread] {
			s.deliver(m, data, log)
		}
	}
}

// deliver enqueues b for m. Callers hold s.mu.
func (s *Server) deliver(m *member, b []byte, log *zap.Logger) {
	select {
	case m.send <- b:
	default:
		log.Warn("member queue full; frame dropped", zap.String("to", m.user.String()))
	}
}

func (s *Server) join(thread domain.ThreadID, m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.threads[thread] == nil {
		s.threads[thread] = make(map[*member]struct{})
	}
	s.threads[thread][m] = struct{}{}
}

func (s *Server) leave(thread domain.ThreadID, m *member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.threads[thread], m)
	if len(s.threads[thread]) == 0 {
		delete(s.threads, thread)
	}
	close(m.send)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
