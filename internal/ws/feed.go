package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/colectra/backend/internal/domain"
	"github.com/colectra/backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is handled at the HTTP level
	},
}

// ScanFeed pushes collection scans to agency dashboards over WebSocket as
// collectors record them. Subscribers are grouped per agency; a slow or dead
// subscriber is dropped rather than blocking the publisher.
type ScanFeed struct {
	auth     *service.AuthService
	agencies service.AgencyStore

	mu   sync.RWMutex
	subs map[string]map[*websocket.Conn]chan *domain.CollectionScan // agencyID -> conns
}

// NewScanFeed creates a new ScanFeed.
func NewScanFeed(auth *service.AuthService, agencies service.AgencyStore) *ScanFeed {
	return &ScanFeed{
		auth:     auth,
		agencies: agencies,
		subs:     make(map[string]map[*websocket.Conn]chan *domain.CollectionScan),
	}
}

// PublishScan fans a scan out to the agency's subscribers. Never blocks.
func (f *ScanFeed) PublishScan(agencyID string, scan *domain.CollectionScan) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	for _, ch := range f.subs[agencyID] {
		select {
		case ch <- scan:
		default: // subscriber too slow, skip this event
		}
	}
}

// Handle upgrades HTTP to WebSocket and streams the agency's scans.
// URL: /ws/agencies/{agencyID}/scans?token=JWT_TOKEN
func (f *ScanFeed) Handle(w http.ResponseWriter, r *http.Request) {
	agencyID := chi.URLParam(r, "agencyID")

	// Browsers cannot set headers on WebSocket requests, so the token rides
	// in the query string.
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "token required", http.StatusUnauthorized)
		return
	}
	claims, err := f.auth.VerifyToken(r.Context(), token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	agency, err := f.agencies.FindByID(r.Context(), agencyID)
	if err != nil || agency == nil {
		http.Error(w, "agency not found", http.StatusNotFound)
		return
	}
	if claims.Role != domain.RoleAdmin && agency.OwnerUserID != claims.Sub {
		http.Error(w, "not the owner of this agency", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ch := f.subscribe(agencyID, conn)
	defer f.unsubscribe(agencyID, conn)
	log.Printf("Scan feed connected for agency %s (user: %s)", agencyID, claims.Email)

	// Drain the reader so pings and close frames are processed; the client
	// never sends application data on this feed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case scan := <-ch:
			if err := conn.WriteJSON(scan); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (f *ScanFeed) subscribe(agencyID string, conn *websocket.Conn) chan *domain.CollectionScan {
	ch := make(chan *domain.CollectionScan, 16)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subs[agencyID] == nil {
		f.subs[agencyID] = make(map[*websocket.Conn]chan *domain.CollectionScan)
	}
	f.subs[agencyID][conn] = ch
	return ch
}

func (f *ScanFeed) unsubscribe(agencyID string, conn *websocket.Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.subs[agencyID], conn)
	if len(f.subs[agencyID]) == 0 {
		delete(f.subs, agencyID)
	}
}
