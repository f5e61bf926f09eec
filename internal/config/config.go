// Package config defines the chromad CLI/config surface via kong, loading
// flags from JSON/YAML/TOML config files with env var and flag overrides,
// the same layering the teacher's viiper command uses.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"

	"github.com/chromad/chromad/internal/chromalog"
	"github.com/chromad/chromad/internal/configpaths"
	"github.com/chromad/chromad/internal/descriptor"
	"github.com/chromad/chromad/internal/device"
	"github.com/chromad/chromad/internal/hidio"
	"github.com/chromad/chromad/internal/manager"
	"github.com/chromad/chromad/internal/server/api"
	"github.com/chromad/chromad/internal/server/api/auth"
	"github.com/chromad/chromad/internal/server/api/handler"
	"github.com/chromad/chromad/pkg/chromatypes"
)

const keyFileName = "chromad.key.txt"

// CLI is the top-level kong command tree.
type CLI struct {
	Server ServerCommand `cmd:"" default:"withargs" help:"Run the chromad RGB control daemon"`
	Log    LogFlags      `embed:"" prefix:"log."`
}

// LogFlags configures the shared slog logger, mirroring the teacher's
// --log.level/--log.file flags.
type LogFlags struct {
	Level string `help:"Log level (trace,debug,info,warn,error)" default:"info" env:"CHROMAD_LOG_LEVEL"`
	File  string `help:"Also write logs to this file; console logs then all go to stderr" env:"CHROMAD_LOG_FILE"`
}

// ServerCommand runs the daemon: device manager plus the remote object
// interface.
type ServerCommand struct {
	Addr                 string `help:"API server listen address" default:":3342" env:"CHROMAD_ADDR"`
	RequireLocalHostAuth bool   `help:"Require authentication even for loopback clients" env:"CHROMAD_REQUIRE_LOCAL_AUTH"`
	DescriptorDir        string `help:"Directory of additional device descriptor YAML files" env:"CHROMAD_DESCRIPTOR_DIR"`
	VendorID             string `help:"USB vendor ID (hex) to watch for hotplug events" default:"0x1532" env:"CHROMAD_VENDOR_ID"`
	ConfigDir            string `help:"Directory for preferences, profiles, and the API key file" env:"CHROMAD_CONFIG_DIR"`
	LivePreviewFPS       int    `help:"Advisory frame rate (1-25) reported to preview consumers; does not bind the compositor" default:"15" env:"CHROMAD_LIVE_PREVIEW_FPS"`
	DevMode              bool   `help:"Report dev mode as on in ping responses; no diagnostic endpoints are registered" env:"CHROMAD_DEV_MODE"`
}

// Run is invoked by kong when "server" is selected.
func (s *ServerCommand) Run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.start(ctx, logger)
}

func (s *ServerCommand) start(ctx context.Context, logger *slog.Logger) error {
	vendorID, err := chromatypes.ParseHexOrNumber[uint16](s.VendorID)
	if err != nil {
		return fmt.Errorf("invalid vendor id %q: %w", s.VendorID, err)
	}

	if s.LivePreviewFPS < 1 || s.LivePreviewFPS > 25 {
		return fmt.Errorf("live preview fps must be in [1,25], got %d", s.LivePreviewFPS)
	}

	configDir := s.ConfigDir
	if configDir == "" {
		if configDir, err = configpaths.DefaultConfigDir(); err != nil {
			return fmt.Errorf("failed to resolve config dir: %w", err)
		}
	}
	profileDir := path.Join(configDir, "profiles")

	store := descriptor.NewStore()
	store.LoadBuiltins()
	if s.DescriptorDir != "" {
		if err := store.Load(s.DescriptorDir); err != nil {
			logger.Warn("descriptor directory load reported errors", "dir", s.DescriptorDir, "error", err)
		}
	}

	apiCfg := api.ServerConfig{
		Addr:                 s.Addr,
		RequireLocalHostAuth: s.RequireLocalHostAuth,
	}
	if apiCfg.Password, err = loadOrCreateKey(configDir, logger); err != nil {
		return err
	}

	srv := api.New(apiCfg.Addr, apiCfg, logger)

	observer, err := manager.NewNetlinkObserver(vendorID)
	if err != nil {
		return fmt.Errorf("failed to open hotplug observer: %w", err)
	}
	defer observer.Close()
	mgr := manager.New(store, observer, openTransport, publishFunc(srv), logger)

	handler.Register(srv.Router(), handler.Deps{
		Manager:        mgr,
		Version:        "dev",
		ProfileDir:     profileDir,
		LivePreviewFPS: s.LivePreviewFPS,
		DevMode:        s.DevMode,
	})

	mgrErrCh := make(chan error, 1)
	go func() { mgrErrCh <- mgr.Run(ctx) }()

	srvErrCh := make(chan error, 1)
	go func() { srvErrCh <- srv.Start() }()

	logger.Info("chromad started", "addr", s.Addr, "vendorId", fmt.Sprintf("0x%04X", vendorID))

	select {
	case <-ctx.Done():
		srv.Close()
		<-mgrErrCh
		return nil
	case err := <-srvErrCh:
		return err
	case err := <-mgrErrCh:
		return err
	}
}

func openTransport(path string) (device.Transport, error) {
	return hidio.Open(path)
}

// publishFunc returns the manager's property-change callback. It discards
// every event: nothing is logged and nothing is forwarded to "watch/{id}"
// connections from here, and srv is not used.
func publishFunc(srv *api.Server) manager.Publish {
	return func(ev chromatypes.Event) {}
}

func loadOrCreateKey(dir string, logger *slog.Logger) (string, error) {
	keyPath := path.Join(dir, keyFileName)
	if pwd, err := os.ReadFile(keyPath); err == nil {
		return strings.TrimSpace(string(pwd)), nil
	}

	newPwd, err := auth.GenerateKey()
	if err != nil {
		return "", fmt.Errorf("failed to generate API password: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("failed to create config dir for key file: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(newPwd), 0o600); err != nil {
		return "", fmt.Errorf("failed to write API password: %w", err)
	}
	logger.Info("generated API server password", "path", keyPath)
	return newPwd, nil
}

// SetupLogger builds the shared slog logger from LogFlags.
func SetupLogger(f LogFlags) (*slog.Logger, []func() error, error) {
	logger, closers, err := chromalog.Setup(f.Level, f.File)
	if err != nil {
		return nil, nil, err
	}
	fns := make([]func() error, len(closers))
	for i, c := range closers {
		fns[i] = c.Close
	}
	return logger, fns, nil
}
