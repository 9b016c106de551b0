// Package collector runs the scrapers of every requested channel and gathers their
// records into one channel map. Each channel is its own failure domain.
package collector

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"blender-scraper/internal/components/assert"
	"blender-scraper/internal/components/telemetry"
	"blender-scraper/internal/release"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"
)

const (
	report_collect_channel = "collect.channel"
)

var tracer = otel.Tracer("blender-scraper.collector")

var meter = otel.Meter("blender-scraper.collector")
var channelFailures, _ = meter.Int64Counter(
	"collector.channel_failures",
)

const DefaultConcurrency = 4

type ScrapeFunc func(ctx context.Context) (release.Collection, error)

// Source is a channel name and the scraper producing its records.
type Source struct {
	Channel string
	Scrape  ScrapeFunc
}

type ChannelError struct {
	Channel string
	Err     error
}

func (e ChannelError) Error() string {
	return fmt.Sprintf("channel %s: %s", e.Channel, e.Err)
}

func (e ChannelError) Unwrap() error {
	return e.Err
}

type Result struct {
	// Channels only holds the channels that were scraped successfully.
	Channels release.ChannelMap
	// Failures is sorted by channel name.
	Failures []ChannelError
}

// AllFailed is true when at least one channel was requested and none succeeded.
func (r Result) AllFailed() bool {
	return len(r.Channels) == 0 && len(r.Failures) > 0
}

func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

type Collector struct {
	tel         telemetry.API
	concurrency int
}

// NewCollector creates a collector running at most `concurrency` scrapers at once,
// DefaultConcurrency if it is not positive.
func NewCollector(tel telemetry.API, concurrency int) Collector {
	assert.NotNil(tel)
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return Collector{
		tel:         telemetry.NewScopedAPI("collector", tel),
		concurrency: concurrency,
	}
}

// Collect scrapes every source. A failing source does not cancel the others, its
// channel is left out of the map and reported in Result.Failures.
func (c Collector) Collect(ctx context.Context, sources []Source) Result {
	ctx, span := tracer.Start(ctx, "Collector.Collect")
	defer span.End()
	span.SetAttributes(attribute.Int("sources", len(sources)))

	result := Result{Channels: release.ChannelMap{}}
	lock := sync.Mutex{}

	var group errgroup.Group
	group.SetLimit(c.concurrency)

	for _, source := range sources {
		assert.NotEmptyStr(source.Channel)

		group.Go(func() error {
			records, err := source.Scrape(ctx)

			lock.Lock()
			defer lock.Unlock()

			if err != nil {
				channelFailures.Add(ctx, 1, metric.WithAttributes(
					attribute.String("channel", source.Channel),
				))
				c.tel.ReportBroken(report_collect_channel, err, source.Channel)
				result.Failures = append(result.Failures, ChannelError{
					Channel: source.Channel,
					Err:     err,
				})
				return nil
			}
			if records == nil {
				records = release.Collection{}
			}
			c.tel.ReportDebug(report_collect_channel, source.Channel, len(records))
			result.Channels[source.Channel] = records
			return nil
		})
	}

	// scrapers never fail the group
	_ = group.Wait()

	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].Channel < result.Failures[j].Channel
	})
	return result
}
