package cart

import (
	"encoding/json"
	"net/http"
	"net/url"
	"slices"
	"time"

	cartstore "storefront_back_end/internal/cart"
	"storefront_back_end/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

type cartEvent struct {
	Type string          `json:"type"`
	Cart json.RawMessage `json:"cart"`
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.origins) == 0 {
				return true
			}
			u, err := url.Parse(origin)
			if err != nil {
				return false
			}
			return slices.Contains(h.origins, u.Scheme+"://"+u.Host)
		},
	}
}

// Subscribe gère la synchronisation temps réel du panier : chaque onglet de la
// session reçoit l'état complet après chaque changement.
func (h *Handler) Subscribe(c *gin.Context) {
	store := middleware.CartFrom(c)

	// L'upgrade écrit sa propre réponse : on y reporte le cookie d'une session neuve
	var header http.Header
	if cookies := c.Writer.Header().Values("Set-Cookie"); len(cookies) > 0 {
		header = http.Header{"Set-Cookie": cookies}
	}

	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, header)
	if err != nil {
		h.log.Warn("❌ Erreur upgrade WebSocket", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()

	// S'abonner au canal Redis de la session
	pubsub := h.redis.Subscribe(ctx, cartstore.Channel(store.SessionID()))
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Warn("⚠️ Abonnement panier impossible", zap.String("session", store.SessionID()), zap.Error(err))
		return
	}
	ch := pubsub.Channel()

	// Le client n'envoie rien : la lecture sert à détecter la fermeture
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	initial, err := json.Marshal(store.Snapshot())
	if err != nil {
		h.log.Error("❌ Encodage panier", zap.Error(err))
		return
	}
	if err := h.write(conn, cartEvent{Type: "cart_snapshot", Cart: initial}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := h.write(conn, cartEvent{Type: "cart_updated", Cart: json.RawMessage(msg.Payload)}); err != nil {
				h.log.Debug("🔌 WebSocket panier fermé", zap.Error(err))
				return
			}
		case <-ticker.C:
			// Ping pour garder la connexion active
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) write(conn *websocket.Conn, ev cartEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(ev)
}
