// ABOUTME: Short-lived local HTTP server that receives the OAuth redirect
// ABOUTME: The state parameter is checked before the authorization code is accepted
package youtube

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"sync"
	"time"
)

// CallbackServer handles the OAuth redirect on a loopback port
type CallbackServer struct {
	mu            sync.Mutex
	expectedState string
	codeChan      chan string
	errChan       chan error
	server        *http.Server
	listener      net.Listener
}

// NewCallbackServer creates a callback server expecting state
func NewCallbackServer(expectedState string) *CallbackServer {
	return &CallbackServer{
		expectedState: expectedState,
		codeChan:      make(chan string, 1),
		errChan:       make(chan error, 1),
	}
}

// Start listens on a random loopback port and serves in a goroutine
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)
	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("failed to listen for oauth callback: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.sendErr(err)
		}
	}()
	return nil
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html")

	if errParam := q.Get("error"); errParam != "" {
		s.sendErr(fmt.Errorf("oauth error: %s", errParam))
		fmt.Fprint(w, callbackPage("Authorization failed: "+html.EscapeString(errParam)))
		return
	}
	if q.Get("state") != s.expectedState {
		s.sendErr(errors.New("oauth state mismatch"))
		fmt.Fprint(w, callbackPage("Authorization failed: invalid state parameter"))
		return
	}
	code := q.Get("code")
	if code == "" {
		s.sendErr(errors.New("no authorization code received"))
		fmt.Fprint(w, callbackPage("Authorization failed: no code received"))
		return
	}

	select {
	case s.codeChan <- code:
	default:
	}
	fmt.Fprint(w, callbackPage("Authorization successful! You can close this window."))
}

func (s *CallbackServer) sendErr(err error) {
	select {
	case s.errChan <- err:
	default:
	}
}

// WaitForCode blocks until a code arrives, the callback fails or ctx is done
func (s *CallbackServer) WaitForCode(ctx context.Context) (string, error) {
	select {
	case code := <-s.codeChan:
		return code, nil
	case err := <-s.errChan:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization callback: %w", ctx.Err())
	}
}

// Stop shuts the server down
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// RedirectURI is the URL to register as the OAuth redirect
func (s *CallbackServer) RedirectURI() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return fmt.Sprintf("http://%s/callback", s.listener.Addr().String())
}

func callbackPage(message string) string {
	return `<!DOCTYPE html><html><head><title>Orpheo</title></head>` +
		`<body style="font-family: sans-serif; text-align: center; margin-top: 20vh">` +
		`<h1>` + message + `</h1></body></html>`
}
