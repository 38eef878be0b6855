// Package cmd provides the CLI commands for studyroom.
package cmd

import (
	"fmt"
	"os"
	"runtime/pprof"

	"github.com/spf13/cobra"

	"github.com/wethinkt/go-studyroom/internal/config"
	"github.com/wethinkt/go-studyroom/internal/i18n"
	"github.com/wethinkt/go-studyroom/internal/mockapi"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// global flags
var (
	profileFile *os.File // held open for profiling
	logPath     string
	verbose     bool
	rootRoom    string
)

// cfg is loaded once in PersistentPreRunE and shared by every command.
var cfg config.Config

// rootCmd is the root command for the CLI.
var rootCmd = &cobra.Command{
	Use:   "studyroom",
	Short: "Terminal client for studyroom chat rooms",
	Long: `studyroom is a terminal chat client for study-group rooms.

It shows a room's recent messages, pages in older history as you scroll
up, and follows new messages live.

Running without a subcommand lists the rooms and opens the one you pick.

Commands:
  room        Open a chat room
  signin      Sign in and store the session
  history     Print a room's history
  serve-mock  Run a local development backend

Examples:
  studyroom serve-mock --chatter 3s     # start a local backend
  studyroom signin --email kim@studyroom.dev
  studyroom room room-1                 # open a room
  studyroom --room room-1               # same as above`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Start pprof profiling if STUDYROOM_PROFILE is set
		if profilePath := os.Getenv("STUDYROOM_PROFILE"); profilePath != "" {
			f, err := os.Create(profilePath)
			if err != nil {
				return fmt.Errorf("create profile file: %w", err)
			}
			profileFile = f

			if err := pprof.StartCPUProfile(f); err != nil {
				f.Close()
				profileFile = nil
				return fmt.Errorf("start CPU profile: %w", err)
			}
		}

		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded

		if err := initLogging(cfg); err != nil {
			return err
		}
		i18n.Init(i18n.ResolveLocale(cfg.Language))
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		// Stop CPU profiling
		if profileFile != nil {
			pprof.StopCPUProfile()
			profileFile.Close()
			profileFile = nil
		}
		return tuilog.Log.Close()
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		if rootRoom == "" {
			room, err := pickRoom(cmd)
			if err != nil || room == nil {
				return err
			}
			rootRoom = room.ID
			if roomName == "" {
				roomName = room.Label()
			}
		}
		return runRoom(cmd, rootRoom)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// initLogging opens the debug log. --log wins over the config file; the
// config already carries the STUDYROOM_LOG_FILE override.
func initLogging(c config.Config) error {
	path := logPath
	if path == "" {
		path = c.LogFile
	}
	if err := tuilog.Init(path); err != nil {
		return fmt.Errorf("open log %s: %w", path, err)
	}

	level := tuilog.ParseLevel(c.LogLevel)
	if verbose {
		level = tuilog.LevelDebug
	}
	tuilog.Log.SetLevel(level)
	return nil
}

func init() {
	// Global flags on root
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug log level)")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "write debug log to file")

	// Root can open a room directly
	rootCmd.Flags().StringVar(&rootRoom, "room", "", "room to open")
	rootCmd.Flags().StringVar(&roomName, "name", "", "room title shown in the header")

	// Room command flags
	roomCmd.Flags().StringVar(&roomName, "name", "", "room title shown in the header")
	roomCmd.Flags().StringVar(&roomReplay, "replay", "", "follow a JSONL file instead of the live socket (read-only)")

	// Sign-in flags
	signinCmd.Flags().StringVar(&signinEmail, "email", "", "account email")
	signinCmd.Flags().StringVar(&signinPassword, "password", "", "account password (prompted when empty)")
	_ = signinCmd.MarkFlagRequired("email")

	// History flags
	historyCmd.Flags().BoolVarP(&historyAll, "all", "a", false, "walk back to the beginning of the room")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "output as JSON lines")
	historyCmd.Flags().IntVarP(&historyPages, "pages", "n", 1, "number of pages to print (ignored with --all)")

	// Mock backend flags
	serveMockCmd.Flags().StringVar(&mockHost, "host", mockapi.DefaultHost, "server host")
	serveMockCmd.Flags().IntVarP(&mockPort, "port", "p", mockapi.DefaultPort, "server port (0 picks a free port)")
	serveMockCmd.Flags().IntVar(&mockRooms, "rooms", 3, "number of seeded rooms")
	serveMockCmd.Flags().IntVar(&mockPerRoom, "per-room", 250, "messages seeded per room")
	serveMockCmd.Flags().Uint64Var(&mockSeed, "seed", 1, "random seed for generated content")
	serveMockCmd.Flags().DurationVar(&mockChatter, "chatter", 0, "post a generated message every interval (0 disables)")
	serveMockCmd.Flags().BoolVarP(&mockQuiet, "quiet", "q", false, "write HTTP request logs to the debug log instead of stdout")
	serveMockCmd.Flags().BoolVar(&mockAnonymous, "anonymous", false, "accept requests without a token")

	versionCmd.Flags().BoolVar(&versionJSON, "json", false, "output as JSON")

	rootCmd.AddCommand(roomCmd)
	rootCmd.AddCommand(signinCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(serveMockCmd)
	rootCmd.AddCommand(languageCmd)
	rootCmd.AddCommand(versionCmd)
}
