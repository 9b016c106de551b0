package blender

import (
	"context"
	"fmt"

	"blender-scraper/internal/components/assert"
	"blender-scraper/internal/components/chrono"
	"blender-scraper/internal/components/telemetry"
	"blender-scraper/internal/release"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_stable_scrape = "stable.scrape"
)

const DefaultStableURL = "https://www.blender.org/download/"

// Stable scrapes the stable download page. The platform list on that page has no
// dates or checksums, those are read from a per-platform info panel elsewhere in the
// same document.
type Stable struct {
	client Client
	tel    telemetry.API
	time   chrono.TimeAPI
	url    string
}

func NewStable(client Client, time chrono.TimeAPI, tel telemetry.API, url string) Stable {
	assert.NotNil(time)
	assert.NotNil(tel)

	if url == "" {
		url = DefaultStableURL
	}

	return Stable{
		client: client,
		tel:    telemetry.NewScopedAPI("blender_scraper", tel),
		time:   time,
		url:    url,
	}
}

func (s Stable) URL() string {
	return s.url
}

func (s Stable) Scrape(ctx context.Context) (release.Collection, error) {
	ctx, span := tracer.Start(ctx, "Stable.Scrape")
	defer span.End()

	s.tel.ReportDebug(report_stable_scrape, s.url)

	doc, err := s.client.Document(ctx, s.url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch stable page")
		s.tel.ReportBroken(report_stable_scrape, err)
		return nil, fmt.Errorf("stable: %w", err)
	}

	return s.Parse(ctx, doc), nil
}

func (s Stable) Parse(ctx context.Context, doc *goquery.Document) release.Collection {
	result := release.Collection{}
	now := s.time.Now()
	channelAttr := attribute.String("channel", release.ChannelStable)

	doc.Find("#menu-other-platforms li.os").Each(func(i int, item *goquery.Selection) {
		record, reason, ok := assembleStable(doc.Selection, item, now)
		if !ok {
			skippedCounter.Add(ctx, 1, metric.WithAttributes(
				channelAttr,
				attribute.String("reason", "missing_field"),
				attribute.String("field", reason.field),
			))
			s.tel.ReportDebug("skip platform item", i, reason.String())
			return
		}
		if record.ReleaseDate.Equal(now) {
			s.tel.ReportWarning(
				report_stable_scrape,
				fmt.Errorf("no release date for %s/%s, using current time", record.OS, record.Arch),
			)
		}
		result = append(result, record)
	})

	recordsCounter.Add(ctx, int64(len(result)), metric.WithAttributes(channelAttr))
	return result
}
