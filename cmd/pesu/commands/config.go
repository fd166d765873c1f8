package commands

import (
	"errors"
	"os"

	"pesuacademy/internal/notify"
	"pesuacademy/lib/configutil"
	"pesuacademy/lib/configutil/sqlconfig"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// BaseUrl defaults to the public portal.
	BaseUrl string `json:"base_url"`
	// RateLimit is in requests per second, 0 disables it.
	RateLimit        float64 `json:"rate_limit"`
	CloudflareBypass bool    `json:"cloudflare_bypass"`

	Database sqlconfig.Struct `json:"database"`

	Smtp                notify.SmtpConfig `json:"smtp"`
	NotifyEmails        []string          `json:"notify_emails"`
	AttendanceThreshold float64           `json:"attendance_threshold"`
}

const defaultAttendanceThreshold = 75

// loadConfig reads the config file if there is one, credentials missing from
// it are taken from PESU_USERNAME and PESU_PASSWORD (which can be set in .env).
func loadConfig() (Config, error) {
	cfg, err := configutil.ReadConfig[Config](*configPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, err
	}

	err = configutil.LoadDotenv()
	if err != nil {
		return Config{}, err
	}
	cfg.Username = configutil.FromEnv(cfg.Username, "PESU_USERNAME")
	cfg.Password = configutil.FromEnv(cfg.Password, "PESU_PASSWORD")
	if cfg.AttendanceThreshold <= 0 {
		cfg.AttendanceThreshold = defaultAttendanceThreshold
	}

	if cfg.Username == "" || cfg.Password == "" {
		return Config{}, errors.New("no credentials, set username and password in the config file or PESU_USERNAME and PESU_PASSWORD")
	}
	return cfg, nil
}
