package relay

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"orthoview/internal/model"
)

// AssetProvider yields the signed asset URLs of a plan.
type AssetProvider interface {
	AssetURLs(ctx context.Context, planID string) (model.AssetURLs, error)
}

// Upgrade rejects plain HTTP requests on the viewer route before the
// websocket handler runs.
func Upgrade() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}

// Handler serves one relay session per viewer connection. The plan's signed
// URLs are fetched concurrently with the read loop so it does not matter
// whether the guest announces readiness before or after they resolve.
func Handler(assets AssetProvider, store ExportStore) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		planID := c.Params("id")

		var wmu sync.Mutex
		send := func(m Message) error {
			wmu.Lock()
			defer wmu.Unlock()
			return c.WriteJSON(m)
		}

		ctx := context.Background()
		sess := NewSession(planID, send, store)

		go func() {
			urls, err := assets.AssetURLs(ctx, planID)
			if err != nil {
				log.Printf("relay: plan %s asset resolution failed: %v", planID, err)
				return
			}
			sess.SetAssetURLs(urls)
		}()

		for {
			_, raw, err := c.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Printf("relay: plan %s websocket read: %v", planID, err)
				}
				return
			}

			var msg Message
			if err := json.Unmarshal(raw, &msg); err != nil {
				log.Printf("relay: plan %s invalid message: %v", planID, err)
				continue
			}
			sess.HandleMessage(ctx, msg)
		}
	})
}
