package mockapi

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/wethinkt/go-studyroom/internal/chat"
)

// SeedPassword is the password of every seeded account.
const SeedPassword = "password"

var seedUsers = []struct{ email, nickname string }{
	{"kim@studyroom.dev", "kim"},
	{"lee@studyroom.dev", "lee"},
	{"park@studyroom.dev", "park"},
	{"choi@studyroom.dev", "choi"},
}

var seedLines = []string{
	"오늘 몇 시에 시작해요?",
	"I pushed the notes for chapter 3.",
	"Anyone up for a pomodoro session?",
	"점심 먹고 다시 올게요",
	"Does `binary search` count as divide and conquer?",
	"ok",
	"👍",
	"Quick summary:\n- arrays are contiguous\n- slices share backing arrays\n- append may reallocate",
	"The mock exam is on Friday, don't forget.",
	"저는 오늘 알고리즘 문제 세 개 풀었어요. 하나는 DP, 둘은 그래프 문제였는데 그래프 쪽이 훨씬 어려웠어요.",
	"Can someone explain why the invariant holds after the rotation? I keep getting lost in the left-right case.",
	"**Reminder:** study room closes at 10pm",
}

// SeedOptions controls Seed.
type SeedOptions struct {
	Rooms   int
	PerRoom int
	// Seed makes the generated history reproducible.
	Seed uint64
	// Now is the time of the newest seeded message. Defaults to time.Now.
	Now time.Time
}

// Seed fills store with users and rooms of back-dated history. It returns
// the created users.
func Seed(store *Store, opts SeedOptions) ([]User, error) {
	if opts.Rooms <= 0 {
		opts.Rooms = 1
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	r := rand.New(rand.NewPCG(opts.Seed, opts.Seed^0x9e3779b97f4a7c15))

	users := make([]User, 0, len(seedUsers))
	for _, su := range seedUsers {
		u, err := store.AddUser(su.email, SeedPassword, su.nickname)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", su.email, err)
		}
		users = append(users, u)
	}

	for i := range opts.Rooms {
		id := fmt.Sprintf("room-%d", i+1)
		store.AddRoom(id, fmt.Sprintf("Study room %d", i+1))

		at := opts.Now.Add(-time.Duration(opts.PerRoom) * 2 * time.Minute)
		for range opts.PerRoom {
			at = at.Add(time.Duration(30+r.IntN(180)) * time.Second)
			u := users[r.IntN(len(users))]
			err := store.Insert(id, chat.Message{
				AuthorID: u.ID,
				Content:  seedLine(r),
				SentAt:   at.UTC(),
			})
			if err != nil {
				return nil, err
			}
		}
	}
	return users, nil
}

func seedLine(r *rand.Rand) string {
	line := seedLines[r.IntN(len(seedLines))]
	// Occasionally produce a long message so wrapped heights vary.
	if r.IntN(8) == 0 {
		line = strings.Repeat(line+" ", 2+r.IntN(4))
	}
	return strings.TrimSpace(line)
}
