package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wethinkt/go-studyroom/internal/mockapi"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// Mock backend flags
var (
	mockHost      string
	mockPort      int
	mockRooms     int
	mockPerRoom   int
	mockSeed      uint64
	mockChatter   time.Duration
	mockQuiet     bool
	mockAnonymous bool
)

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Run a local development backend",
	Long: `Run an in-memory backend that speaks the same REST and WebSocket API
the client uses: sign-in, token reissue, paged room history and a live
socket per room.

Rooms are seeded with back-dated history. Every seeded account uses the
password "password":
  kim@studyroom.dev  lee@studyroom.dev  park@studyroom.dev  choi@studyroom.dev

With --chatter, a generated message is posted into a random room at the
given interval so connected clients see live traffic.

Examples:
  studyroom serve-mock
  studyroom serve-mock --rooms 1 --per-room 1000 --chatter 2s
  studyroom serve-mock --anonymous -q`,
	Args: cobra.NoArgs,
	RunE: runServeMock,
}

func runServeMock(cmd *cobra.Command, args []string) error {
	store := mockapi.NewStore()
	users, err := mockapi.Seed(store, mockapi.SeedOptions{
		Rooms:   mockRooms,
		PerRoom: mockPerRoom,
		Seed:    mockSeed,
	})
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	tuilog.Log.Info("Seeded mock store", "rooms", mockRooms, "per_room", mockPerRoom, "users", len(users))

	var accessLog io.Writer
	if mockQuiet {
		// Keep stdout clean; request lines go to the debug log, if any.
		accessLog = tuilog.Log.Writer()
	}
	srv := mockapi.NewServer(store, mockapi.Config{
		Host:           mockHost,
		Port:           mockPort,
		AccessLog:      accessLog,
		AllowAnonymous: mockAnonymous,
	})

	// Create context that cancels on interrupt
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		tuilog.Log.Info("Received interrupt signal, shutting down")
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(ctx)
	})
	g.Go(func() error {
		srv.RunChatter(ctx, mockChatter, mockSeed)
		return nil
	})

	err = g.Wait()
	fmt.Fprintln(os.Stderr, "\nShutting down...")
	if err != nil && err != context.Canceled {
		return err
	}
	return nil
}
