// ABOUTME: Authentication subcommands
// ABOUTME: Stores the Timeline credential in the keyring and runs the Google OAuth flow
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/term"

	"github.com/harperreed/timeline/credential"
	"github.com/harperreed/timeline/sync"
)

// AuthTimelineCommand prompts for the Timeline user and password and stores
// the encoded pair in the system keyring.
func AuthTimelineCommand(args []string) error {
	fs := flag.NewFlagSet("auth timeline", flag.ExitOnError)
	user := fs.String("user", "", "Timeline user name")
	remove := fs.Bool("clear", false, "Remove the stored credential")
	_ = fs.Parse(args)

	store, err := credential.Open()
	if err != nil {
		return err
	}

	if *remove {
		if err := store.Delete(credential.TimelineKey); err != nil {
			return err
		}
		fmt.Println("✓ Timeline credential removed")
		return nil
	}

	reader := bufio.NewReader(os.Stdin)
	if *user == "" {
		fmt.Print("User: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read user: %w", err)
		}
		*user = strings.TrimSpace(line)
	}
	if *user == "" {
		return fmt.Errorf("user is required")
	}

	password, err := readPassword(reader)
	if err != nil {
		return err
	}

	if err := store.Set(credential.TimelineKey, credential.BasicAuth(*user, password)); err != nil {
		return err
	}

	fmt.Printf("✓ Timeline credential stored for %s\n", *user)
	return nil
}

// readPassword reads without echo from a terminal, or a line from a pipe.
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		fmt.Print("Password: ")
		b, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// googleAuthTimeout bounds how long the callback server waits for the browser.
const googleAuthTimeout = 5 * time.Minute

// AuthGoogleCommand runs the OAuth consent flow for google: sources and
// saves the resulting token.
func AuthGoogleCommand(args []string) error {
	fs := flag.NewFlagSet("auth google", flag.ExitOnError)
	timeout := fs.Duration("timeout", googleAuthTimeout, "How long to wait for the browser")
	_ = fs.Parse(args)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	config, err := sync.GetClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to get OAuth config: %w", err)
	}

	ln, err := net.Listen("tcp", sync.OAuthCallbackAddr)
	if err != nil {
		return fmt.Errorf("failed to listen for the OAuth callback: %w", err)
	}

	token, err := authorizeGoogle(ctx, config, ln, func(authURL string) {
		fmt.Println("Opening browser for Google OAuth...")
		fmt.Printf("\nIf browser doesn't open, visit this URL:\n%s\n\n", authURL)
		_ = openBrowser(authURL)
	})
	if err != nil {
		return fmt.Errorf("OAuth flow failed: %w", err)
	}

	if err := sync.SaveToken(token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	fmt.Printf("\n✓ Authenticated successfully\n")
	fmt.Printf("✓ Tokens saved to %s\n\n", sync.TokenPath())
	fmt.Println("Calendar events can now be opened as google:<eventID>.")
	return nil
}

type authResult struct {
	token *oauth2.Token
	err   error
}

// authorizeGoogle serves the callback on ln until a redirect carrying the
// expected state arrives or ctx ends. Redirects with another state are
// rejected and ignored.
func authorizeGoogle(ctx context.Context, config *oauth2.Config, ln net.Listener, prompt func(authURL string)) (*oauth2.Token, error) {
	state := uuid.NewString()
	done := make(chan authResult, 1)
	finish := func(r authResult) {
		select {
		case done <- r:
		default:
		}
	}

	mux := http.NewServeMux()
	mux.HandleFunc(sync.OAuthCallbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("state") != state:
			http.Error(w, "unexpected state", http.StatusBadRequest)
			return
		case q.Get("error") != "":
			http.Error(w, "authorization denied", http.StatusForbidden)
			finish(authResult{err: fmt.Errorf("authorization denied: %s", q.Get("error"))})
			return
		case q.Get("code") == "":
			http.Error(w, "missing code", http.StatusBadRequest)
			finish(authResult{err: errors.New("no authorization code received")})
			return
		}

		token, err := config.Exchange(r.Context(), q.Get("code"))
		if err != nil {
			http.Error(w, "token exchange failed", http.StatusBadGateway)
			finish(authResult{err: fmt.Errorf("failed to exchange code: %w", err)})
			return
		}
		_, _ = fmt.Fprintln(w, "Authorization successful! You can close this window.")
		finish(authResult{token: token})
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			finish(authResult{err: err})
		}
	}()
	defer func() { _ = server.Shutdown(context.Background()) }()

	prompt(config.AuthCodeURL(state, oauth2.AccessTypeOffline))

	select {
	case r := <-done:
		return r.token, r.err
	case <-ctx.Done():
		return nil, fmt.Errorf("no authorization received: %w", ctx.Err())
	}
}

func openBrowser(url string) error {
	name, args := "xdg-open", []string{url}
	switch runtime.GOOS {
	case "darwin":
		name = "open"
	case "windows":
		name, args = "cmd", []string{"/c", "start", url}
	}
	return exec.Command(name, args...).Start()
}
