package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/wethinkt/go-studyroom/internal/auth"
	"github.com/wethinkt/go-studyroom/internal/tuilog"
)

// Sign-in flags
var (
	signinEmail    string
	signinPassword string
)

var signinCmd = &cobra.Command{
	Use:   "signin",
	Short: "Sign in and store the session",
	Long: `Sign in with email and password. The tokens and profile are stored in
~/.studyroom/session.json and reused by room and history.

When --password is omitted it is read from the terminal without echo.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := resolvePassword(signinPassword)
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		client := auth.NewClient(cfg.APIURL, nil)
		session, err := client.SignIn(ctx, signinEmail, password)
		if err != nil {
			var apiErr *auth.APIError
			if errors.As(err, &apiErr) && apiErr.Message != "" {
				return fmt.Errorf("sign in: %s", apiErr.Message)
			}
			return fmt.Errorf("sign in: %w", err)
		}

		path, err := auth.DefaultPath()
		if err != nil {
			return err
		}
		if err := session.SaveTo(path); err != nil {
			return fmt.Errorf("save session: %w", err)
		}

		p := session.Profile()
		tuilog.Log.Info("Signed in", "user", session.UserID(), "path", path)
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (%s)\n", displayName(p), session.UserID())
		return nil
	},
}

// resolvePassword returns flag when set, otherwise prompts on the terminal.
func resolvePassword(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("--password is required when stdin is not a terminal")
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func displayName(p auth.Profile) string {
	if p.Nickname != "" {
		return p.Nickname
	}
	return p.ID
}
