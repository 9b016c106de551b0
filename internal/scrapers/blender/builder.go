package blender

import (
	"context"
	"fmt"
	"strings"

	"blender-scraper/internal/components/assert"
	"blender-scraper/internal/components/telemetry"
	"blender-scraper/internal/release"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_builder_scrape = "builder.scrape"
)

const DefaultBuilderURL = "https://builder.blender.org/download/%s/"

type BuilderOptions struct {
	// URLTemplate is formatted with the channel name, defaults to DefaultBuilderURL.
	URLTemplate string
	Layout      Layout
}

// Builder scrapes the build archive, one channel per call.
type Builder struct {
	client      Client
	tel         telemetry.API
	urlTemplate string
	assembler   builderAssembler
}

func NewBuilder(client Client, tel telemetry.API, opts BuilderOptions) Builder {
	assert.NotNil(tel)

	if opts.URLTemplate == "" {
		opts.URLTemplate = DefaultBuilderURL
	}
	if opts.Layout == "" {
		opts.Layout = LayoutCurrent
	}
	if strings.Count(opts.URLTemplate, "%s") != 1 {
		panic(fmt.Sprintf("builder url template %q must contain exactly one %%s", opts.URLTemplate))
	}

	return Builder{
		client:      client,
		tel:         telemetry.NewScopedAPI("blender_scraper", tel),
		urlTemplate: opts.URLTemplate,
		assembler:   newBuilderAssembler(opts.Layout),
	}
}

func (b Builder) URL(channel string) string {
	return fmt.Sprintf(b.urlTemplate, channel)
}

// Scrape fetches the archive page of `channel` and returns its builds in document order.
func (b Builder) Scrape(ctx context.Context, channel string) (release.Collection, error) {
	assert.NotEmptyStr(channel)

	ctx, span := tracer.Start(ctx, "Builder.Scrape")
	defer span.End()
	span.SetAttributes(attribute.String("channel", channel))

	link := b.URL(channel)
	b.tel.ReportDebug(report_builder_scrape, channel, link)

	doc, err := b.client.Document(ctx, link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch builder page")
		b.tel.ReportBroken(report_builder_scrape, err, channel)
		return nil, fmt.Errorf("builder %s: %w", channel, err)
	}

	return b.Parse(ctx, doc, channel), nil
}

// Parse assembles a record out of every item of the builds list, skipping the
// malformed ones.
func (b Builder) Parse(ctx context.Context, doc *goquery.Document, channel string) release.Collection {
	result := release.Collection{}
	channelAttr := attribute.String("channel", channel)

	doc.Find(".builds-list > li").Each(func(i int, item *goquery.Selection) {
		record, reason, ok := b.assembler.assemble(item)
		if !ok {
			kind := "missing_field"
			if reason.decoy() {
				kind = "decoy"
			}
			skippedCounter.Add(ctx, 1, metric.WithAttributes(
				channelAttr,
				attribute.String("reason", kind),
				attribute.String("field", reason.field),
			))
			b.tel.ReportDebug("skip build item", channel, i, reason.String())
			return
		}
		result = append(result, record)
	})

	recordsCounter.Add(ctx, int64(len(result)), metric.WithAttributes(channelAttr))
	return result
}
