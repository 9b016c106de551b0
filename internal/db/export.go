package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"blender-scraper/internal/release"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("blender-scraper.db")

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: true}
}

func releaseParams(channel string, position int, r release.Record) (InsertReleaseParams, error) {
	params := InsertReleaseParams{
		Channel:       channel,
		Position:      int64(position),
		Major:         int64(r.Version[0]),
		Minor:         int64(r.Version[1]),
		Patch:         int64(r.Version[2]),
		VersionDetail: r.VersionDetail,
		DownloadType:  r.DownloadType,
		DownloadSize:  r.DownloadSize,
		ReleaseDate:   r.ReleaseDate.Format(release.DateLayout),
		Tag:           r.Tag,
		Os:            string(r.OS),
		Arch:          string(r.Arch),
		Sha256:        r.Sha256,
		GaLabel:       r.GaLabel,
	}

	switch d := r.Download.(type) {
	case release.SingleDownload:
		params.DownloadLink = nullString(d.Link)
	case release.PairedDownload:
		params.DownloadLinkInstaller = nullString(d.Installer)
		params.DownloadLinkArchive = nullString(d.Archive)
	default:
		return InsertReleaseParams{}, fmt.Errorf("release %s in %s: no download variant set", r.Version, channel)
	}
	return params, nil
}

// Export replaces the contents of the releases table with `channels` in a single
// transaction and returns the number of rows written.
func Export(ctx context.Context, makeTx MakeTx, channels release.ChannelMap) (int, error) {
	ctx, span := tracer.Start(ctx, "Export")
	defer span.End()

	txqry, discard, commit, err := makeTx(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("export: %w", err)
	}
	defer discard()

	err = txqry.DeleteReleases(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("export: clear releases: %w", err)
	}

	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Strings(names)

	written := 0
	for _, name := range names {
		for i, record := range channels[name] {
			params, err := releaseParams(name, i, record)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return 0, fmt.Errorf("export: %w", err)
			}
			err = txqry.InsertRelease(ctx, params)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return 0, fmt.Errorf("export: insert release: %w", err)
			}
			written++
		}
	}

	err = commit()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("export: commit: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", written))
	return written, nil
}
