package feed

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/wethinkt/go-studyroom/internal/chat"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

const tailDebounce = 100 * time.Millisecond

// ErrFileRemoved ends a tail when the file is deleted or renamed.
var ErrFileRemoved = errors.New("replay file removed")

// TailFile replays a JSONL file of messages and then streams lines as they
// are appended. Each line is a chat.Message or a message Frame. The channel
// is closed after EventClosed, when ctx is cancelled or the file goes away.
func TailFile(ctx context.Context, path string) (<-chan Event, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		f.Close()
		return nil, err
	}
	// Watch the directory: removal of an open file is only reported there.
	path = filepath.Clean(path)
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		watcher.Close()
		f.Close()
		return nil, err
	}

	ch := make(chan Event, 64)
	go tailLoop(ctx, path, f, watcher, ch)
	return ch, nil
}

func tailLoop(ctx context.Context, path string, f *os.File, watcher *fsnotify.Watcher, ch chan<- Event) {
	defer close(ch)
	defer f.Close()
	defer watcher.Close()

	reader := bufio.NewReader(f)
	var partial []byte

	// drain sends every complete line; a trailing fragment waits for the
	// rest of its line.
	drain := func() bool {
		for {
			line, err := reader.ReadBytes('\n')
			if err != nil {
				partial = append(partial, line...)
				return true
			}
			if len(partial) > 0 {
				line = append(partial, line...)
				partial = nil
			}
			m, ok := parseLine(line)
			if !ok {
				continue
			}
			select {
			case ch <- Event{Kind: EventMessage, Message: m}:
			case <-ctx.Done():
				return false
			}
		}
	}

	if !drain() {
		return
	}
	select {
	case ch <- Event{Kind: EventConnected}:
	case <-ctx.Done():
		return
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != path {
				continue
			}
			if event.Has(fsnotify.Write) {
				// Debounce rapid writes
				debounce.Reset(tailDebounce)
			}
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				ch <- Event{Kind: EventClosed, Err: ErrFileRemoved}
				return
			}

		case <-debounce.C:
			if !drain() {
				return
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			tuilog.Log.Warn("Replay watcher error", "error", err)
		}
	}
}

// parseLine accepts either a bare message or a {"type":"message"} frame.
func parseLine(line []byte) (chat.Message, bool) {
	var f Frame
	if err := json.Unmarshal(line, &f); err == nil && f.Type == FrameMessage && f.Message != nil {
		return *f.Message, true
	}
	var m chat.Message
	if err := json.Unmarshal(line, &m); err != nil {
		tuilog.Log.Debug("Skipping replay line", "error", err)
		return chat.Message{}, false
	}
	if m.ID == "" && m.Content == "" {
		return chat.Message{}, false
	}
	if m.AuthorID == "" {
		m.AuthorID = m.Author.ID
	}
	return m, true
}
