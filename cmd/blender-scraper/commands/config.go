package commands

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"blender-scraper/internal/components/telemetry"
	"blender-scraper/internal/release"
	"blender-scraper/internal/scrapers/blender"
)

type Config struct {
	// BuilderURL is the build archive url with a %s in place of the channel name.
	BuilderURL     string   `json:"builder_url"`
	StableURL      string   `json:"stable_url"`
	Channels       []string `json:"channels"`
	Layout         string   `json:"layout"`
	TimeoutSeconds float64  `json:"timeout_seconds"`
	Concurrency    int      `json:"concurrency"`
	UserAgent      string   `json:"user_agent"`
	// DB is a sqlite file path or a libsql:// url, nothing is exported if empty.
	DB        string           `json:"db"`
	Format    string           `json:"format"`
	Pretty    bool             `json:"pretty"`
	DumpHttp  string           `json:"dump_http"`
	Telemetry telemetry.Config `json:"telemetry"`
}

func DefaultConfig() Config {
	return Config{
		BuilderURL:     blender.DefaultBuilderURL,
		StableURL:      blender.DefaultStableURL,
		Channels:       append([]string{release.ChannelStable}, release.BuilderChannels...),
		Layout:         string(blender.LayoutCurrent),
		TimeoutSeconds: 30,
		Concurrency:    4,
		UserAgent:      blender.DefaultUserAgent,
		Format:         "json",
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Hosts are the hostnames redirects are allowed to.
func (c Config) Hosts() ([]string, error) {
	if strings.Count(c.BuilderURL, "%s") != 1 {
		return nil, fmt.Errorf("builder url %q must contain exactly one %%s", c.BuilderURL)
	}

	var hosts []string
	for _, link := range []string{fmt.Sprintf(c.BuilderURL, "daily"), c.StableURL} {
		parsed, err := url.Parse(link)
		if err != nil {
			return nil, fmt.Errorf("parse url %q: %w", link, err)
		}
		if parsed.Hostname() == "" {
			return nil, fmt.Errorf("url %q has no host", link)
		}
		hosts = append(hosts, parsed.Hostname())
	}
	return hosts, nil
}
