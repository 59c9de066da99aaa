package web

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"zengo/internal/game"
	"zengo/internal/ranking"
)

const (
	headerUserID  = "X-User-ID"
	headerGuildID = "X-Guild-ID"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

var errBadRequest = errors.New("bad request")

// HealthFunc reports whether backing services are reachable.
type HealthFunc func(ctx context.Context) error

type Handlers struct {
	game   *game.Service
	hub    *EventHub
	health HealthFunc
}

func NewHandlers(svc *game.Service, hub *EventHub, health HealthFunc) *Handlers {
	return &Handlers{
		game:   svc,
		hub:    hub,
		health: health,
	}
}

func NewRouter(svc *game.Service, hub *EventHub, health HealthFunc) *chi.Mux {
	r := chi.NewRouter()

	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("REQUEST: %s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	})

	h := NewHandlers(svc, hub, health)

	r.Get("/health", h.HealthCheck)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/channels/{channelID}", func(r chi.Router) {
			r.Get("/", h.Inquiry)
			r.Post("/attack", h.Attack)
			r.Post("/items/{itemID}/use", h.UseItem)
			r.Post("/reset", h.Reset)
		})

		r.Route("/players/{userID}", func(r chi.Router) {
			r.Get("/", h.Profile)
			r.Post("/items", h.GrantItem)
			r.Post("/weapons", h.GrantWeapon)
			r.Post("/armors", h.GrantArmor)
		})

		r.Route("/rankings", func(r chi.Router) {
			r.Get("/players", h.PlayerRanking)
			r.Get("/channels", h.ChannelRanking)
		})

		if hub != nil {
			r.Get("/events", h.Events)
		}
	})

	return r
}

func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"error":  err.Error(),
			})
			return
		}
	}

	body := map[string]interface{}{
		"status":  "ok",
		"service": "zengo",
	}
	if h.hub != nil {
		body["ws_clients"] = h.hub.ClientCount()
		body["dropped_events"] = h.hub.Dropped()
	}
	if h.game != nil {
		if stats, ok := h.game.CooldownStats(); ok {
			body["cooldown"] = stats
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handlers) Attack(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	res, err := h.game.Attack(r.Context(), actor)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) UseItem(w http.ResponseWriter, r *http.Request) {
	actor, err := actorFrom(r)
	if err != nil {
		writeError(w, err)
		return
	}
	itemID, err := strconv.Atoi(chi.URLParam(r, "itemID"))
	if err != nil {
		writeError(w, errBadRequest)
		return
	}
	res, err := h.game.UseItem(r.Context(), actor, itemID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handlers) Reset(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(r.Header.Get(headerUserID))
	if err != nil {
		writeError(w, err)
		return
	}
	cleared, err := h.game.Reset(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"cleared": cleared})
}

func (h *Handlers) Inquiry(w http.ResponseWriter, r *http.Request) {
	channelID, err := parseID(chi.URLParam(r, "channelID"))
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.game.Inquiry(r.Context(), channelID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	profile, err := h.game.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

type grantItemRequest struct {
	ItemID   int `json:"item_id"`
	Quantity int `json:"quantity"`
}

type grantEquipmentRequest struct {
	Kind  int  `json:"kind"`
	Value int  `json:"value"` // power for weapons, defense for armor
	Equip bool `json:"equip"`
}

func (h *Handlers) GrantItem(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req grantItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest)
		return
	}
	item, err := h.game.GrantItem(r.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handlers) GrantWeapon(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req grantEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest)
		return
	}
	weapon, err := h.game.GrantWeapon(r.Context(), userID, req.Kind, req.Value, req.Equip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, weapon)
}

func (h *Handlers) GrantArmor(w http.ResponseWriter, r *http.Request) {
	userID, err := parseID(chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req grantEquipmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, errBadRequest)
		return
	}
	armor, err := h.game.GrantArmor(r.Context(), userID, req.Kind, req.Value, req.Equip)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, armor)
}

func (h *Handlers) PlayerRanking(w http.ResponseWriter, r *http.Request) {
	userID, page, err := rankingParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	players, err := h.game.PlayerRanking(r.Context(), userID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"page": page, "players": players})
}

func (h *Handlers) ChannelRanking(w http.ResponseWriter, r *http.Request) {
	userID, page, err := rankingParams(r)
	if err != nil {
		writeError(w, err)
		return
	}
	channels, err := h.game.ChannelRanking(r.Context(), userID, page)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"page": page, "channels": channels})
}

// Events upgrades to a WebSocket that receives every game event.
func (h *Handlers) Events(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	clientID := generateClientID()
	client := &Client{
		ID:   clientID,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}

	welcome, _ := json.Marshal(map[string]interface{}{
		"type": "connected",
		"id":   clientID,
		"time": time.Now().Unix(),
	})
	client.Send <- welcome

	h.hub.register <- client
	go client.readPump()
}

func actorFrom(r *http.Request) (game.Actor, error) {
	userID, err := parseID(r.Header.Get(headerUserID))
	if err != nil {
		return game.Actor{}, err
	}
	channelID, err := parseID(chi.URLParam(r, "channelID"))
	if err != nil {
		return game.Actor{}, err
	}
	var guildID uint64
	if raw := r.Header.Get(headerGuildID); raw != "" {
		if guildID, err = parseID(raw); err != nil {
			return game.Actor{}, err
		}
	}
	return game.Actor{UserID: userID, ChannelID: channelID, GuildID: guildID}, nil
}

func rankingParams(r *http.Request) (uint64, int, error) {
	userID, err := parseID(r.Header.Get(headerUserID))
	if err != nil {
		return 0, 0, err
	}
	page := 0
	if raw := r.URL.Query().Get("page"); raw != "" {
		if page, err = strconv.Atoi(raw); err != nil {
			return 0, 0, errBadRequest
		}
	}
	return userID, page, nil
}

func parseID(raw string) (uint64, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, errBadRequest
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, ranking.ErrInvalidPage),
		errors.Is(err, game.ErrInvalidQuantity):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrCoolingDown):
		status = http.StatusTooManyRequests
	case errors.Is(err, game.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, game.ErrItemNotOwned),
		errors.Is(err, game.ErrBattleElsewhere):
		status = http.StatusConflict
	default:
		log.Printf("[Web] Request failed: %v", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// generateClientID generates a unique client ID
func generateClientID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return hex.EncodeToString([]byte(time.Now().String()))[:16]
	}
	return hex.EncodeToString(b)
}
