package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wethinkt/go-studyroom/internal/auth"
	"github.com/wethinkt/go-studyroom/internal/feed"
	"github.com/wethinkt/go-studyroom/internal/history"
	"github.com/wethinkt/go-studyroom/internal/tui"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// Room command flags
var (
	roomName   string
	roomReplay string
)

var roomCmd = &cobra.Command{
	Use:   "room <roomID>",
	Short: "Open a chat room",
	Long: `Open a chat room in the terminal.

The newest page of messages is shown first. Scrolling to the top loads
older pages; new messages arrive over the live socket. When you are
scrolled up, new messages are counted instead of moving the view.

With --replay, messages are read from a JSONL file that is followed as it
grows, and sending is disabled.

Keys:
  ↑/↓ pgup/pgdown   scroll
  home/end          oldest loaded / latest
  enter             send
  ctrl+r            retry a failed load
  ctrl+o            reconnect the live feed
  esc               quit`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRoom(cmd, args[0])
	},
}

// loadSession returns the stored session, or nil when the user has not
// signed in. Anonymous access works against backends that allow it.
func loadSession() (*auth.Session, error) {
	path, err := auth.DefaultPath()
	if err != nil {
		return nil, err
	}
	s, err := auth.Load(path)
	if errors.Is(err, auth.ErrNotSignedIn) {
		tuilog.Log.Info("No stored session, continuing anonymously")
		return nil, nil
	}
	return s, err
}

func runRoom(cmd *cobra.Command, roomID string) error {
	tuilog.Log.Info("Starting room", "room", roomID, "api", cfg.APIURL, "replay", roomReplay)

	session, err := loadSession()
	if err != nil {
		return err
	}
	authClient := auth.NewClient(cfg.APIURL, nil)

	loader := history.New(cfg.APIURL, session, history.Options{
		PageSize: cfg.PageSize,
		Auth:     authClient,
	})

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	var live tui.Feed
	if roomReplay != "" {
		events, err := feed.TailFile(ctx, roomReplay)
		if err != nil {
			return fmt.Errorf("open replay %s: %w", roomReplay, err)
		}
		live = tui.NewReplayFeed(events, cancel)
	} else {
		live = feed.Dial(ctx, cfg.LiveURL(), roomID, feed.Options{
			Session: session,
			Auth:    authClient,
		})
	}

	model := tui.NewRoomModel(tui.RoomConfig{
		RoomID:   roomID,
		Title:    roomName,
		SelfID:   session.UserID(),
		Loader:   loader,
		Feed:     live,
		EdgeRows: cfg.EdgeRows,
		Markdown: cfg.Markdown,
	})

	p := tea.NewProgram(model, terminalSize()...)
	_, err = p.Run()
	live.Close()

	tuilog.Log.Info("Room exited", "room", roomID, "error", err)
	return err
}

// pickRoom lists the rooms and lets the user choose one. It returns nil
// when the user cancels.
func pickRoom(cmd *cobra.Command) (*tui.RoomOption, error) {
	session, err := loadSession()
	if err != nil {
		return nil, err
	}
	client := history.New(cfg.APIURL, session, history.Options{Auth: auth.NewClient(cfg.APIURL, nil)})
	rooms, err := client.Rooms(cmd.Context())
	var se *history.StatusError
	if session == nil && errors.As(err, &se) && se.Status == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: run `studyroom signin` first", auth.ErrNotSignedIn)
	}
	if err != nil {
		return nil, err
	}

	options := make([]tui.RoomOption, len(rooms))
	for i, r := range rooms {
		options[i] = tui.RoomOption{ID: r.ID, Name: r.Name, Messages: r.Messages}
	}
	return tui.PickRoom(options, terminalSize()...)
}

// terminalSize reports the initial window size so the first frame is laid
// out before the first WindowSizeMsg arrives.
func terminalSize() []tea.ProgramOption {
	// try stdout, stdin, stderr in order
	for _, fd := range []int{int(os.Stdout.Fd()), int(os.Stdin.Fd()), int(os.Stderr.Fd())} {
		if term.IsTerminal(fd) {
			w, h, err := term.GetSize(fd)
			if err == nil && w > 0 && h > 0 {
				tuilog.Log.Info("Terminal size", "fd", fd, "width", w, "height", h)
				return []tea.ProgramOption{tea.WithWindowSize(w, h)}
			}
		}
	}
	return nil
}
