package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/conf/v3"
)

// ErrHelpWanted is returned by LoadSettings after printing usage.
var ErrHelpWanted = conf.ErrHelpWanted

// Settings is the gateway's runtime configuration. Every field can be set as
// an environment variable (WEB_ADDRESS, ARCHIVE_WORKERS, ...) or a flag
// (--web-address, --archive-workers, ...).
type Settings struct {
	conf.Version
	Web struct {
		Address         string        `conf:"default:0.0.0.0:8080"`
		ReadTimeout     time.Duration `conf:"default:30s"`
		WriteTimeout    time.Duration `conf:"default:150s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
		BodyLimitMB     int           `conf:"default:50"`
		CORSOrigins     string        `conf:"default:*"`
	}
	GRPC struct {
		Enabled bool   `conf:"default:true"`
		Address string `conf:"default:0.0.0.0:9090"`
	}
	Gateway struct {
		APIKey  string        `conf:"env:LOVABLE_API_KEY,mask"`
		BaseURL string        `conf:"default:https://ai.gateway.lovable.dev/v1/chat/completions"`
		Model   string        `conf:"default:google/gemini-2.5-flash"`
		Timeout time.Duration `conf:"default:120s"`
	}
	Supabase struct {
		URL        string `conf:"env:SUPABASE_URL"`
		ServiceKey string `conf:"env:SUPABASE_SERVICE_KEY,mask"`
	}
	Archive struct {
		Bucket     string        `conf:"default:media-uploads"`
		Table      string        `conf:"default:media_uploads"`
		Workers    int           `conf:"default:4"`
		QueueSize  int           `conf:"default:64"`
		JobTimeout time.Duration `conf:"default:2m"`
	}
	Log struct {
		Level string `conf:"default:info"`
	}
}

// LoadSettings parses the environment and command line. When --help or
// --version is given the usage text is printed and ErrHelpWanted returned.
func LoadSettings(build, desc string) (*Settings, error) {
	cfg := Settings{
		Version: conf.Version{
			Build: build,
			Desc:  desc,
		},
	}
	help, err := conf.Parse("", &cfg)
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			fmt.Println(help)
			return nil, ErrHelpWanted
		}
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// String renders the settings with secrets masked.
func (s *Settings) String() string {
	out, err := conf.String(s)
	if err != nil {
		return fmt.Sprintf("settings unavailable: %v", err)
	}
	return out
}

// ArchiveEnabled reports whether the Supabase credentials archival needs are set.
func (s *Settings) ArchiveEnabled() bool {
	return s.Supabase.URL != "" && s.Supabase.ServiceKey != ""
}
