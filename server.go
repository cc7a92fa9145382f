package main

import (
	"encoding/json"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/websocket"
)

const (
	defaultMatchLimit = 20
	maxMatchLimit     = 100
	maxLoginBody      = 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true // Non-browser clients don't send Origin
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return u.Host == r.Host
	},
}

func extractIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("http: encode response: %v", err)
	}
}

// SetupRoutes configures HTTP routes. admin may be nil, which disables the admin API.
func SetupRoutes(hub *Hub, cfg *ServerConfig, admin *AdminAuth, db *DB, events *EventLog) *http.ServeMux {
	mux := http.NewServeMux()

	// Serve static files with no-cache so browsers always revalidate
	if cfg.ClientDir != "" {
		fs := http.FileServer(http.Dir(cfg.ClientDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "no-cache")
			fs.ServeHTTP(w, r)
		}))
	}

	// WebSocket endpoint
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		ip := extractIP(r)
		if !hub.CanAccept(ip) {
			http.Error(w, "too many connections", http.StatusServiceUnavailable)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Printf("hub: upgrade error: %v", err)
			return
		}

		hub.TrackConnect(ip)

		client := NewClient(hub, conn, ip)
		hub.register <- client

		go client.WritePump()
		go client.ReadPump()
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]int{
			"connections":   hub.TotalConns(),
			"clients":       hub.ClientCount(),
			"rooms":         hub.rooms.RoomCount(),
			"droppedEvents": events.Dropped(),
		})
	})

	mux.HandleFunc("GET /api/rooms/{id}/qr.png", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		if hub.rooms.GetRoom(id) == nil {
			http.NotFound(w, r)
			return
		}
		png, err := RoomQRCode(cfg.PublicURL, id)
		if err != nil {
			log.Printf("http: %v", err)
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	})

	if admin != nil {
		setupAdminRoutes(mux, hub, admin, db, events)
	}
	return mux
}

func setupAdminRoutes(mux *http.ServeMux, hub *Hub, admin *AdminAuth, db *DB, events *EventLog) {
	mux.HandleFunc("POST /api/admin/login", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Password string `json:"password"`
		}
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBody)).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid body"})
			return
		}
		token, err := admin.Login(body.Password, extractIP(r))
		switch {
		case errors.Is(err, ErrLoginRate):
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": err.Error()})
		case err != nil:
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusOK, map[string]string{"token": token})
		}
	})

	mux.HandleFunc("GET /api/admin/rooms", requireAdmin(admin, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, hub.rooms.ListRooms())
	}))

	mux.HandleFunc("GET /api/admin/matches", requireAdmin(admin, func(w http.ResponseWriter, r *http.Request) {
		limit := defaultMatchLimit
		if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 {
			limit = min(v, maxMatchLimit)
		}
		matches, err := db.RecentMatches(limit)
		if err != nil {
			log.Printf("db: recent matches: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
			return
		}
		if matches == nil {
			matches = []MatchRow{}
		}
		writeJSON(w, http.StatusOK, matches)
	}))

	mux.HandleFunc("GET /api/admin/events", requireAdmin(admin, func(w http.ResponseWriter, r *http.Request) {
		days := 7
		if v, err := strconv.Atoi(r.URL.Query().Get("days")); err == nil && v > 0 {
			days = v
		}
		counts, err := events.EventCounts(days)
		if err != nil {
			log.Printf("db: event counts: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database error"})
			return
		}
		if counts == nil {
			counts = map[string]int{}
		}
		writeJSON(w, http.StatusOK, counts)
	}))
}

// requireAdmin rejects requests without a valid bearer token
func requireAdmin(admin *AdminAuth, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || admin.ValidateToken(token) != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
			return
		}
		next(w, r)
	}
}
