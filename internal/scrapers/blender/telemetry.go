package blender

import (
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("blender-scraper.scrapers.blender")

var meter = otel.Meter("blender-scraper.scrapers.blender")
var recordsCounter, _ = meter.Int64Counter(
	"blender.records_emitted",
)
var skippedCounter, _ = meter.Int64Counter(
	"blender.items_skipped",
)
