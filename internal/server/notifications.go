package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/websocket"

	"ruralhealth/internal/domain"
	"ruralhealth/internal/kv"
)

const demoPassword = "demo123"

func notificationKey(id string) string     { return "notification:" + id }
func notificationChannel(id string) string { return "notifications:" + id }

// notify stores a notification and pushes it to any open feed. Failures are
// only logged.
func (s *Server) notify(ctx context.Context, userID, title, message, kind string) {
	n := domain.Notification{
		ID:        s.newID(),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      kind,
		CreatedAt: s.now().UTC(),
	}
	if err := s.deps.Store.Set(ctx, notificationKey(n.ID), n); err != nil {
		s.log.Warn("store notification failed", "user", userID, "err", err)
		return
	}
	if err := s.deps.Store.Publish(ctx, notificationChannel(userID), n); err != nil {
		s.log.Warn("publish notification failed", "user", userID, "err", err)
	}
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	all, err := kv.List[domain.Notification](r.Context(), s.deps.Store, "notification:")
	if err != nil {
		s.log.Error("list notifications failed", "err", err)
		respondError(w, http.StatusInternalServerError, "Internal server error fetching notifications")
		return
	}
	uid := userID(r.Context())
	mine := make([]domain.Notification, 0, len(all))
	for _, n := range all {
		if n.UserID == uid {
			mine = append(mine, n)
		}
	}
	sort.Slice(mine, func(i, j int) bool { return mine[i].CreatedAt.After(mine[j].CreatedAt) })
	respond(w, http.StatusOK, map[string]any{"notifications": mine})
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.deps.Config.AllowedOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}
	return len(s.deps.Config.AllowedOrigins) == 0
}

// handleNotificationFeed streams the caller's new notifications. Browsers
// cannot set headers on a websocket upgrade, so the token may also arrive as
// ?token=.
func (s *Server) handleNotificationFeed(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	claims, err := s.deps.Tokens.Parse(token)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "Invalid authorization token")
		return
	}

	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	feed, closeFeed, err := s.deps.Store.Subscribe(ctx, notificationChannel(claims.UserID))
	if err != nil {
		s.log.Error("notification subscribe failed", "err", err)
		_ = conn.WriteJSON(map[string]string{"type": "error", "error": "Notifications temporarily unavailable"})
		return
	}
	defer closeFeed()

	if err := conn.WriteJSON(map[string]string{"type": "connected", "user_id": claims.UserID}); err != nil {
		return
	}

	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					s.log.Warn("notification feed closed unexpectedly", "err", err)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-feed:
			if !ok {
				return
			}
			var n domain.Notification
			if err := json.Unmarshal(payload, &n); err != nil {
				s.log.Warn("bad notification payload", "err", err)
				continue
			}
			if err := conn.WriteJSON(map[string]any{"type": "notification", "notification": n}); err != nil {
				return
			}
		}
	}
}

type demoUser struct {
	id    string
	email string
	name  string
	role  domain.UserRole
	phone string
}

var demoUsers = []demoUser{
	{id: "demo-patient-1", email: "patient@demo.com", name: "Sarah Johnson", role: domain.RolePatient, phone: "+1 (555) 123-4567"},
	{id: "demo-doctor-1", email: "doctor@demo.com", name: "Dr. Michael Chen", role: domain.RoleDoctor, phone: "+1 (555) 234-5678"},
	{id: "demo-nurse-1", email: "nurse@demo.com", name: "Emily Rodriguez", role: domain.RoleNurse, phone: "+1 (555) 345-6789"},
	{id: "demo-admin-1", email: "admin@demo.com", name: "John Administrator", role: domain.RoleAdmin, phone: "+1 (555) 456-7890"},
}

// SeedDemo creates the demo accounts once. Existing accounts are left alone.
func (s *Server) SeedDemo(ctx context.Context) error {
	for _, u := range demoUsers {
		_, err := s.createUserWithID(ctx, u.id, domain.SignupRequest{
			Email:    u.email,
			Password: demoPassword,
			Name:     u.name,
			Role:     u.role,
			Phone:    u.phone,
		})
		if errors.Is(err, errEmailTaken) {
			continue
		}
		if err != nil {
			return err
		}
		s.log.Info("created demo user", "email", u.email)
	}
	return nil
}
