package blender

import (
	"context"
	"testing"
	"time"

	"blender-scraper/internal/components/chrono"
	"blender-scraper/internal/platform"
	"blender-scraper/internal/release"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func stableRecord(link, size string, os platform.OS, arch platform.Arch, date time.Time, sha string) release.Record {
	return release.Record{
		Version:      release.Version{3, 3, 1},
		Download:     release.SingleDownload{Link: link},
		DownloadType: linkType(link),
		DownloadSize: size,
		ReleaseDate:  date,
		Tag:          release.TagCurrentStable,
		OS:           os,
		Arch:         arch,
		Sha256:       sha,
	}
}

func TestStableParse(t *testing.T) {
	now := time.Date(2022, 11, 20, 12, 0, 0, 0, time.UTC)
	tel := &recordingTel{}
	stable := NewStable(testClient(tel), chrono.FixedTime{At: now}, tel, "")
	require.Equal(t, DefaultStableURL, stable.URL())

	got := stable.Parse(context.Background(), fixtureDocument(t, "stable.html"))

	const base = "https://www.blender.org/download/release/Blender3.3/"
	windowsSum := "https://download.blender.org/release/Blender3.3/blender-3.3.1.sha256"
	windowsDate := time.Date(2022, 9, 21, 0, 0, 0, 0, time.UTC)

	want := release.Collection{
		stableRecord(base+"blender-3.3.1-windows-x64.msi/", "229MB", platform.Windows, platform.X86_64, windowsDate, windowsSum),
		stableRecord(base+"blender-3.3.1-windows-x64.zip/", "310MB", platform.Windows, platform.X86_64, windowsDate, windowsSum),
		stableRecord(base+"blender-3.3.1-macos-x64.dmg/", "224MB", platform.Mac, platform.X86_64, now, ""),
		stableRecord(
			base+"blender-3.3.1-macos-arm64.dmg/", "208MB", platform.Mac, platform.ARM64,
			time.Date(2022, 9, 22, 0, 0, 0, 0, time.UTC),
			"https://download.blender.org/release/Blender3.3/blender-3.3.1-macos-arm64.sha256",
		),
		stableRecord(
			base+"blender-3.3.1-linux-x64.tar.xz/", "211MB", platform.Linux, platform.X86_64,
			time.Date(2022, 10, 5, 0, 0, 0, 0, time.UTC),
			"",
		),
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected records (-want +got):\n%s", diff)
	}
	require.Equal(t, "xz", got[4].DownloadType)
	// the intel mac panel is missing from the page
	require.Len(t, tel.warnings, 1)
}

func TestStableScrape(t *testing.T) {
	srv := servePages(t, map[string]string{
		"/download/": "stable.html",
	})

	tel := &recordingTel{}
	stable := NewStable(testClient(tel), chrono.NewStandardTime(), tel, srv.URL+"/download/")

	got, err := stable.Scrape(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 5)
	for _, record := range got {
		require.Equal(t, release.TagCurrentStable, record.Tag)
		require.Equal(t, release.Version{3, 3, 1}, record.Version)
	}
}

func TestStableScrapeFailure(t *testing.T) {
	srv := servePages(t, map[string]string{})

	tel := &recordingTel{}
	stable := NewStable(testClient(tel), chrono.NewStandardTime(), tel, srv.URL+"/download/")

	_, err := stable.Scrape(context.Background())
	require.ErrorIs(t, err, ErrUnexpectedStatus)
	require.ErrorContains(t, err, "stable:")
}
