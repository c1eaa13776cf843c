package relay

import (
	"context"
	"log"
	"time"
)

// StartReaper closes rooms that have seen no game traffic for ttl.
func StartReaper(ctx context.Context, store Store, hub *Hub, ttl, interval time.Duration) {
	if store == nil || interval <= 0 {
		log.Println("[REAPER] Store or interval missing; room reaper not started")
		return
	}

	log.Printf("[REAPER] Room reaper started (ttl=%s interval=%s)", ttl, interval)
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				log.Println("[REAPER] Room reaper stopping")
				return
			case now := <-ticker.C:
				reapIdleRooms(ctx, store, hub, now.Add(-ttl))
			}
		}
	}()
}

// reapIdleRooms closes every room idle since before cutoff and returns how
// many it closed.
func reapIdleRooms(ctx context.Context, store Store, hub *Hub, cutoff time.Time) int {
	codes, err := store.Expired(ctx, cutoff)
	if err != nil {
		log.Printf("[REAPER] Failed to fetch idle rooms: %v", err)
		return 0
	}

	for _, code := range codes {
		log.Printf("[REAPER] Closing idle room %s", code)
		if hub != nil {
			hub.CloseRoom(code, "room expired")
		}
		if err := store.Delete(ctx, code); err != nil {
			log.Printf("[REAPER] Failed to delete room %s: %v", code, err)
		}
	}
	return len(codes)
}
