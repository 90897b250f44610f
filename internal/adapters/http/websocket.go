package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/nats-io/nats.go"

	natsadapter "github.com/samirrijal/youthcenters/internal/adapters/nats"
	"github.com/samirrijal/youthcenters/internal/core/domain"
	"github.com/samirrijal/youthcenters/internal/core/usecases"
	"github.com/samirrijal/youthcenters/internal/pkg/metrics"
)

const wsPingInterval = 30 * time.Second

// wsMessage is a location report sent by the client.
type wsMessage struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Radius    float64  `json:"radius"` // meters, 0 = no filter
	Limit     int      `json:"limit"`
}

// wsEnvelope wraps every server message.
type wsEnvelope struct {
	Type string      `json:"type"` // "nearby" | "dataset_updated" | "error"
	Data interface{} `json:"data,omitempty"`
	Err  string      `json:"error,omitempty"`
}

// WebSocketHandler answers each location report with the ranked centers and
// the overlay for that position. When NATS is configured, dataset
// replacements are relayed so clients know to send their position again.
// Clients send JSON: {"latitude":37.56,"longitude":126.97,"radius":1000,"limit":20}
func WebSocketHandler(deps *Dependencies) func(*websocket.Conn) {
	lim := deps.limits()

	return func(c *websocket.Conn) {
		defer c.Close()

		session, _ := c.Locals("requestid").(string)
		logger := slog.Default().With("session", session, "remote", c.RemoteAddr().String())
		logger.Info("ws client connected")

		metrics.ActiveWebSockets.Inc()
		defer metrics.ActiveWebSockets.Dec()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var mu sync.Mutex
		writeJSON := func(v wsEnvelope) error {
			data, err := json.Marshal(v)
			if err != nil {
				return err
			}
			mu.Lock()
			defer mu.Unlock()
			return c.WriteMessage(websocket.TextMessage, data)
		}

		if deps.NATS != nil {
			sub, err := deps.NATS.Subscribe(natsadapter.SubjectDatasetUpdated, func(msg *nats.Msg) {
				var event domain.DatasetEvent
				if err := json.Unmarshal(msg.Data, &event); err != nil {
					return
				}
				_ = writeJSON(wsEnvelope{Type: "dataset_updated", Data: event})
			})
			if err != nil {
				logger.Warn("ws dataset relay unavailable", "error", err)
			} else {
				defer func() { _ = sub.Unsubscribe() }()
			}
		}

		go func() {
			ticker := time.NewTicker(wsPingInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					err := c.WriteMessage(websocket.PingMessage, nil)
					mu.Unlock()
					if err != nil {
						return
					}
				case <-ctx.Done():
					return
				}
			}
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				break
			}

			var m wsMessage
			if err := json.Unmarshal(raw, &m); err != nil {
				_ = writeJSON(wsEnvelope{Type: "error", Err: "invalid JSON"})
				continue
			}
			if m.Latitude == nil || m.Longitude == nil {
				_ = writeJSON(wsEnvelope{Type: "error", Err: "latitude and longitude are required"})
				continue
			}

			limit := m.Limit
			if limit <= 0 || limit > lim.Max {
				limit = lim.Default
			}

			res, err := deps.Centers.Nearby(ctx, usecases.NearbyQuery{
				Reference:    domain.Location{Latitude: *m.Latitude, Longitude: *m.Longitude},
				RadiusMeters: max(m.Radius, 0),
				Limit:        limit,
				SessionID:    session,
			})
			if err != nil {
				logger.Warn("ws nearby failed", "error", err)
				_ = writeJSON(wsEnvelope{Type: "error", Err: err.Error()})
				continue
			}
			if err := writeJSON(wsEnvelope{Type: "nearby", Data: toNearbyResponse(res)}); err != nil {
				break
			}
		}

		logger.Info("ws client disconnected")
	}
}
