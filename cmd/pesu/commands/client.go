package commands

import (
	"context"
	"fmt"
	"time"

	"pesuacademy/internal/components/telemetry"
	"pesuacademy/internal/scrapers/pesu"
	"pesuacademy/lib/util/serviceutil"
)

const loginTimeout = time.Minute

func newClient(ctx context.Context, cfg Config) (*pesu.Client, error) {
	opts := pesu.SessionOptions{
		BaseURL:          cfg.BaseUrl,
		RateLimit:        cfg.RateLimit,
		CloudflareBypass: cfg.CloudflareBypass,
		Telemetry:        telemetry.SlogAPI{},
	}
	if *debug {
		output, err := telemetry.NewFilesystemOutput(".dev/http")
		if err != nil {
			return nil, err
		}
		opts.InstrumentOutput = output
	}

	client, err := pesu.NewClient(opts)
	if err != nil {
		return nil, err
	}

	loginCtx, cancel := context.WithTimeout(ctx, loginTimeout)
	defer cancel()
	err = client.Login(loginCtx, cfg.Username, cfg.Password)
	if err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// mustClient loads the config and logs in, exiting on failure.
func mustClient(ctx context.Context) (*pesu.Client, Config) {
	cfg, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	client, err := newClient(ctx, cfg)
	if err != nil {
		serviceutil.Fatal(fmt.Sprintf("failed to login as %s", cfg.Username), err)
	}
	return client, cfg
}
