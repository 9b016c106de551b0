package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"blender-scraper/internal/collector"
	"blender-scraper/internal/components/chrono"
	"blender-scraper/internal/components/telemetry"
	"blender-scraper/internal/db"
	"blender-scraper/internal/release"
	"blender-scraper/internal/render"
	"blender-scraper/internal/scrapers/blender"
)

var ErrAllChannelsFailed = errors.New("every channel failed")

func sources(cfg Config, client blender.Client, tel telemetry.API) ([]collector.Source, error) {
	layout, err := blender.ParseLayout(cfg.Layout)
	if err != nil {
		return nil, err
	}

	stable := blender.NewStable(client, chrono.NewStandardTime(), tel, cfg.StableURL)
	builder := blender.NewBuilder(client, tel, blender.BuilderOptions{
		URLTemplate: cfg.BuilderURL,
		Layout:      layout,
	})

	seen := map[string]bool{}
	var out []collector.Source
	for _, channel := range cfg.Channels {
		channel = strings.TrimSpace(channel)
		if channel == "" || seen[channel] {
			continue
		}
		seen[channel] = true

		if channel == release.ChannelStable {
			out = append(out, collector.Source{Channel: channel, Scrape: stable.Scrape})
			continue
		}
		out = append(out, collector.Source{
			Channel: channel,
			Scrape: func(ctx context.Context) (release.Collection, error) {
				return builder.Scrape(ctx, channel)
			},
		})
	}
	return out, nil
}

// Run scrapes every configured channel and writes the result to `out`. The result
// is written even when every channel failed, in which case ErrAllChannelsFailed is
// returned.
func Run(ctx context.Context, cfg Config, out io.Writer) error {
	format, err := render.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	hosts, err := cfg.Hosts()
	if err != nil {
		return err
	}

	otel, err := telemetry.Setup(ctx, "blender-scraper", cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	defer func() {
		err := otel.Shutdown(context.Background())
		if err != nil {
			slog.Warn("failed to shutdown telemetry", "err", err)
		}
	}()

	tel := telemetry.SlogAPI{}

	var dump telemetry.MessageOutput
	if cfg.DumpHttp != "" {
		fsOutput, err := telemetry.NewFilesystemOutput(cfg.DumpHttp)
		if err != nil {
			return fmt.Errorf("dump http: %w", err)
		}
		slog.Info("dumping http messages", "dir", fsOutput.Dir())
		dump = fsOutput
	}

	client := blender.NewClient(tel, blender.ClientOptions{
		Timeout:   cfg.Timeout(),
		UserAgent: cfg.UserAgent,
		Hosts:     hosts,
		Output:    dump,
	})
	srcs, err := sources(cfg, client, tel)
	if err != nil {
		return err
	}

	result := collector.NewCollector(tel, cfg.Concurrency).Collect(ctx, srcs)

	err = render.Write(out, format, result.Channels, cfg.Pretty)
	if err != nil {
		return err
	}

	if cfg.DB != "" && len(result.Channels) > 0 {
		err = export(ctx, cfg.DB, result.Channels)
		if err != nil {
			return err
		}
	}

	if result.AllFailed() {
		return fmt.Errorf("%w: %w", ErrAllChannelsFailed, result.Err())
	}
	return nil
}

func export(ctx context.Context, dsn string, channels release.ChannelMap) error {
	database, err := db.OpenDB(dsn)
	if err != nil {
		return err
	}
	defer database.Close()

	written, err := db.Export(ctx, db.NewMakeTx(database), channels)
	if err != nil {
		return err
	}
	slog.Info("exported releases", "db", dsn, "rows", written)
	return nil
}
