package main

import (
	"context"
	"fmt"

	"github.com/go-ctap/biogate/pkg/config"
	"github.com/go-ctap/biogate/pkg/options"
	"github.com/go-ctap/biogate/pkg/platform/enroll"
	"github.com/go-ctap/biogate/pkg/platform/fido"
	"github.com/go-ctap/biogate/pkg/platform/fprintd"
	"github.com/go-ctap/biogate/pkg/sugar"
)

// enrollerFor returns the enrollment flow of the configured backend, or
// nil when it has none. The OS settings screen enrolls the built-in reader
// and never a security key, so the FIDO backend only launches an
// explicitly configured enroll_command.
func enrollerFor(cfg *config.Config, opts []options.Option) sugar.Enroller {
	if cfg.Platform.Backend == config.PlatformFIDO && cfg.Platform.EnrollCommand == "" {
		return nil
	}
	return enroll.NewLauncher(cfg.Platform.EnrollCommand, opts...)
}

func openPlatform(ctx context.Context, cfg *config.Config, opts []options.Option) (sugar.Platform, func() error, error) {
	launcher := enrollerFor(cfg, opts)

	switch cfg.Platform.Backend {
	case config.PlatformFIDO:
		dev, err := sugar.SelectDevice(ctx, opts...)
		if err != nil {
			return nil, nil, err
		}
		return fido.New(dev, launcher, opts...), dev.Close, nil
	case config.PlatformFprintd:
		conn, err := fprintd.Connect()
		if err != nil {
			return nil, nil, err
		}
		// The system bus connection is shared and must not be closed.
		return fprintd.New(conn, cfg.Platform.Username, launcher, opts...), func() error { return nil }, nil
	default:
		return nil, nil, fmt.Errorf("unknown platform %q", cfg.Platform.Backend)
	}
}
