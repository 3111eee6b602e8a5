package presence

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"authgate/internal/identity"

	"github.com/coder/websocket"
)

// Authenticator resolves the authenticated user for an incoming request.
// The auth API's session check implements it.
type Authenticator interface {
	UserFromRequest(r *http.Request) (identity.User, error)
}

// Gateway upgrades authenticated requests to websocket sessions and streams
// presence events until the client disconnects.
type Gateway struct {
	log  *slog.Logger
	hub  *Hub
	auth Authenticator

	writeTimeout time.Duration
	queueSize    int
}

// NewGateway constructs a Gateway.
func NewGateway(log *slog.Logger, hub *Hub, auth Authenticator) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		log:          log,
		hub:          hub,
		auth:         auth,
		writeTimeout: 5 * time.Second,
		queueSize:    32,
	}
}

// HandleWS authenticates the request via the session cookie, upgrades it,
// and forwards hub events as JSON text messages.
func (g *Gateway) HandleWS(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	user, err := g.auth.UserFromRequest(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Error("presence.accept.fail", "err", err)
		return
	}
	defer func() { _ = conn.Close(websocket.StatusNormalClosure, "bye") }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, unsubscribe := g.hub.Subscribe(g.queueSize)
	defer unsubscribe()

	g.log.Info("presence.subscribe", "user_id", user.ID, "remote", r.RemoteAddr)

	// Reader goroutine: the client sends nothing meaningful, but reading is
	// required to notice closes and to answer pings.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := g.writeEvent(ctx, conn, ev); err != nil {
				g.log.Info("presence.write.fail", "user_id", user.ID, "err", err)
				return
			}
		}
	}
}

func (g *Gateway) writeEvent(parent context.Context, conn *websocket.Conn, ev Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(parent, g.writeTimeout)
	defer cancel()

	return conn.Write(ctx, websocket.MessageText, b)
}
