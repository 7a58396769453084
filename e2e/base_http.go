package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/suite"

	"chatwire/auth"
)

type BaseHTTPSuite struct {
	suite.Suite
	Config Config
	client *http.Client
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseHTTPSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	s.client = &http.Client{Timeout: 10 * time.Second}
}

// SkipWithoutServer skips the scenario unless SERVER_ADDR points somewhere.
func (s *BaseHTTPSuite) SkipWithoutServer(t *testing.T) {
	if s.Config.ServerAddr == "" {
		t.Skip("SERVER_ADDR not set, skipping e2e scenario")
	}
}

// Banner prints a colorized section header in the test log.
func (s *BaseHTTPSuite) Banner(t *testing.T, name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	t.Log(header)
}

// TokenFor signs a token the way the identity service would. The server must
// share CHATWIRE_JWT_SECRET with the test run.
func (s *BaseHTTPSuite) TokenFor(userID, username string) string {
	token, err := auth.GenerateToken(userID, username, time.Hour)
	s.Require().NoError(err)
	return token
}

// Call performs one authenticated JSON round trip and decodes the response
// into out when out is non-nil.
func (s *BaseHTTPSuite) Call(t *testing.T, token, method, path string, body, out any) *http.Response {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}
	url := fmt.Sprintf("http://%s%s", s.Config.ServerAddr, path)
	req, err := http.NewRequest(method, url, reader)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	t.Logf("HTTP %s %s [%d] in %v", method, path, resp.StatusCode, time.Since(start))
	if s.Config.DebugJSON {
		t.Logf("RESPONSE:\n%s", string(raw))
	}
	if out != nil {
		s.Require().NoError(json.Unmarshal(raw, out))
	}
	return resp
}

// Dial opens an authenticated websocket to the running server.
func (s *BaseHTTPSuite) Dial(token string) (*websocket.Conn, error) {
	url := fmt.Sprintf("ws://%s/ws?token=%s", s.Config.ServerAddr, token)
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	return conn, err
}
