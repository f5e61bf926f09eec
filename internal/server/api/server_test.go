package api_test

import (
	"bufio"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/internal/server/api"
	"github.com/chromad/chromad/internal/server/api/auth"
	"github.com/chromad/chromad/pkg/chromatypes"
)

func startTestServer(t *testing.T, cfg api.ServerConfig) *api.Server {
	t.Helper()
	cfg.Addr = "127.0.0.1:0"
	s := api.New(cfg.Addr, cfg, slog.Default())
	s.Router().Register("ping", func(req *api.Request, res *api.Response, logger *slog.Logger) error {
		b, _ := json.Marshal(chromatypes.PingResponse{Server: "chromad", Version: "test"})
		res.JSON = string(b)
		return nil
	})
	require.NoError(t, s.Start())
	t.Cleanup(s.Close)
	return s
}

func TestServer_PingUnauthenticated(t *testing.T) {
	s := startTestServer(t, api.ServerConfig{RequireLocalHostAuth: false})

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprint(conn, "ping \x00")
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	var resp chromatypes.PingResponse
	require.NoError(t, json.Unmarshal([]byte(line), &resp))
	assert.Equal(t, "chromad", resp.Server)
}

func TestServer_RejectsUnauthenticatedWhenRequired(t *testing.T) {
	s := startTestServer(t, api.ServerConfig{RequireLocalHostAuth: true, Password: "hunter2"})

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = fmt.Fprint(conn, "ping \x00")
	require.NoError(t, err)

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	line, err := bufio.NewReader(conn).ReadString('\n')
	require.NoError(t, err)

	var apiErr chromatypes.ApiError
	require.NoError(t, json.Unmarshal([]byte(line), &apiErr))
	assert.Equal(t, 401, apiErr.Status)
}

func TestServer_AuthenticatedHandshakeUnlocksRoute(t *testing.T) {
	s := startTestServer(t, api.ServerConfig{RequireLocalHostAuth: true, Password: "hunter2"})

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	key, err := auth.DeriveKey("hunter2")
	require.NoError(t, err)

	clientNonce := make([]byte, auth.NonceSize)
	for i := range clientNonce {
		clientNonce[i] = byte(i)
	}
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte("chromad-Auth-v1"))
	mac.Write(clientNonce)

	msg := append([]byte(auth.HandshakeMagic), clientNonce...)
	msg = append(msg, mac.Sum(nil)...)
	_, err = conn.Write(msg)
	require.NoError(t, err)

	r := bufio.NewReader(conn)
	respPrefix := make([]byte, 3)
	_, err = r.Read(respPrefix)
	require.NoError(t, err)
	require.Equal(t, "OK\x00", string(respPrefix))

	serverNonce := make([]byte, auth.NonceSize)
	_, err = r.Read(serverNonce)
	require.NoError(t, err)

	sessionKey := auth.DeriveSessionKey(key, serverNonce, clientNonce)
	secConn, err := auth.WrapConn(conn, sessionKey)
	require.NoError(t, err)

	_, err = fmt.Fprint(secConn, "ping \x00")
	require.NoError(t, err)

	buf := make([]byte, 256)
	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	n, err := secConn.Read(buf)
	require.NoError(t, err)

	var resp chromatypes.PingResponse
	require.NoError(t, json.Unmarshal(buf[:n-1], &resp))
	assert.Equal(t, "chromad", resp.Server)
}
