package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/history"
	"github.com/wethinkt/go-studyroom/internal/i18n"
)

// History flags
var (
	historyAll   bool
	historyJSON  bool
	historyPages int
)

// errEnoughPages stops a Walk once the requested number of pages arrived.
var errEnoughPages = errors.New("enough pages")

var historyCmd = &cobra.Command{
	Use:   "history <roomID>",
	Short: "Print a room's history",
	Long: `Print a room's messages oldest first, without the interactive view.

By default only the newest page is printed. Use --pages to go further
back, or --all to walk to the beginning of the room.

Examples:
  studyroom history room-1
  studyroom history room-1 --pages 3
  studyroom history room-1 --all --json | jq .content`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := loadSession()
		if err != nil {
			return err
		}
		loader := history.New(cfg.APIURL, session, history.Options{PageSize: cfg.PageSize})

		var pages []chat.Page
		err = loader.Walk(cmd.Context(), args[0], func(p chat.Page) error {
			pages = append(pages, p)
			if !historyAll && len(pages) >= historyPages {
				return errEnoughPages
			}
			return nil
		})
		if err != nil && !errors.Is(err, errEnoughPages) {
			return err
		}

		msgs := chronological(pages)
		if historyJSON {
			return writeJSONLines(cmd.OutOrStdout(), msgs)
		}
		writeTranscript(cmd.OutOrStdout(), msgs)
		return nil
	},
}

// chronological flattens pages fetched newest first into one ascending
// slice.
func chronological(pages []chat.Page) []chat.Message {
	var out []chat.Message
	for _, p := range slices.Backward(pages) {
		out = append(out, p.Messages...)
	}
	return out
}

// writeJSONLines writes one message per line, the same shape --replay reads.
func writeJSONLines(w io.Writer, msgs []chat.Message) error {
	enc := json.NewEncoder(w)
	for _, m := range msgs {
		if err := enc.Encode(m); err != nil {
			return err
		}
	}
	return nil
}

// writeTranscript prints messages with a date line at each day boundary,
// then how long ago the last one was sent.
func writeTranscript(w io.Writer, msgs []chat.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, i18n.T("chat.empty", "No messages yet."))
		return
	}
	var prev chat.Message
	for i, m := range msgs {
		if i == 0 || i18n.DateChanged(prev.SentAt, m.SentAt) {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "── %s ──\n", i18n.FormatDate(m.SentAt))
		}
		name := m.Author.Nickname
		if name == "" {
			name = m.AuthorID
		}
		body := strings.ReplaceAll(m.Content, "\n", "\n      ")
		fmt.Fprintf(w, "%s %s: %s\n", i18n.FormatClock(m.SentAt), name, body)
		prev = m
	}
	fmt.Fprintf(w, "\n%s\n", i18n.Tf("chat.lastMessage", "Last message %s", i18n.RelativeTime(prev.SentAt)))
}
