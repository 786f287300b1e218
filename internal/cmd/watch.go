package cmd

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Vasu1712/scenyx-studio/internal/session"
	"github.com/Vasu1712/scenyx-studio/internal/storage"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <songId>",
	Short: "Join a song and log every change as it arrives",
	Long: `Join a song's room as a read-only collaborator and log presence and
edits until interrupted.

Examples:
  scenyx watch 42
  scenyx watch 42 --server http://studio.local:8080 --name observer`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

var (
	watchServer string
	watchName   string
)

func init() {
	watchCmd.Flags().StringVar(&watchServer, "server", "http://127.0.0.1:8080", "base URL of the scenyx server")
	watchCmd.Flags().StringVar(&watchName, "name", "watcher", "display name to join as")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	songID := args[0]
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := session.NewAPIClient(watchServer)
	user, err := client.GetOrCreateUser(ctx, watchName)
	if err != nil {
		return fmt.Errorf("failed to resolve user %q: %w", watchName, err)
	}

	wsURL, err := socketURL(watchServer)
	if err != nil {
		return err
	}
	// Servers without auth do not expose the token route.
	token, err := client.IssueToken(ctx, user.ID)
	switch {
	case err == nil:
		wsURL += "?token=" + url.QueryEscape(token)
	case !errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("failed to get session token: %w", err)
	}

	var s *session.Session
	s = session.New(client, songID, *user,
		session.WithChangeHandler(func() { logView(s) }),
		session.WithFailureHandler(func(op string, err error) {
			log.Printf("[Watch] %s failed: %v", op, err)
		}),
	)
	if err := s.Load(ctx); err != nil {
		return err
	}
	s.Connect(ctx, wsURL, session.DialOptions{})

	<-ctx.Done()
	log.Println("[Watch] Leaving")
	return s.Leave()
}

func logView(s *session.Session) {
	song := s.Song()
	if song == nil {
		return
	}
	notes := 0
	for _, t := range song.Tracks {
		notes += len(t.Notes)
	}
	names := make([]string, 0)
	for _, v := range s.Viewers() {
		names = append(names, v.AvatarIcon+" "+v.Name)
	}
	log.Printf("[Watch] %s: %q tempo=%d %s tracks=%d notes=%d chat=%d viewers=[%s]",
		s.State(), song.Name, song.Tempo, song.TimeSignature, len(song.Tracks), notes,
		len(song.ChatMessages), strings.Join(names, ", "))
}

// socketURL maps the API base URL onto the relay endpoint.
func socketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid server URL %q: %w", base, err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid server URL %q: scheme must be http or https", base)
	}
	u.Path += "/ws/songs"
	return u.String(), nil
}
