package mockapi

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// RunChatter posts a random seeded line into a random room every interval
// until ctx is done, giving connected clients live traffic to render.
func (s *Server) RunChatter(ctx context.Context, interval time.Duration, seed uint64) {
	if interval <= 0 {
		return
	}
	r := rand.New(rand.NewPCG(seed, seed+1))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rooms := s.store.Rooms()
			users := s.store.Users()
			if len(rooms) == 0 || len(users) == 0 {
				continue
			}
			room := rooms[r.IntN(len(rooms))]
			user := users[r.IntN(len(users))]
			if _, err := s.post(room.ID, user.ID, seedLine(r), "chatter"); err != nil {
				tuilog.Log.Warn("chatter post failed", "room", room.ID, "error", err)
			}
		}
	}
}
