package blender

import (
	"errors"
	"fmt"
	"time"

	"blender-scraper/internal/platform"
	"blender-scraper/internal/release"

	"github.com/PuerkitoBio/goquery"
)

type requirement int

const (
	// a required field that cannot be read skips the whole item
	required requirement = iota
	// an optional field that cannot be read takes its fallback value
	optional
)

// step extracts one field of a draft record.
type step[D any] struct {
	field    string
	req      requirement
	run      func(d *D) error
	fallback func(d *D)
}

// skipReason says why an item did not produce a record.
type skipReason struct {
	field string
	err   error
}

func (s skipReason) decoy() bool {
	return errors.Is(s.err, errDecoy)
}

func (s skipReason) String() string {
	return fmt.Sprintf("%s: %s", s.field, s.err)
}

// runSteps runs steps in order and stops at the first required field that fails.
// Decoys always stop the run, whatever the requirement of the step that found them.
func runSteps[D any](d *D, steps []step[D]) (skipReason, bool) {
	for _, s := range steps {
		err := s.run(d)
		if err == nil {
			continue
		}
		if s.req == required || errors.Is(err, errDecoy) {
			return skipReason{field: s.field, err: err}, false
		}
		if s.fallback != nil {
			s.fallback(d)
		}
	}
	return skipReason{}, true
}

type Layout string

const (
	// LayoutCurrent is one download link per build, architecture from the
	// "Architecture" label.
	LayoutCurrent Layout = "current"
	// LayoutPaired is an installer link plus an archive link in the build meta
	// block, architecture from the analytics label bitness.
	LayoutPaired Layout = "paired"
)

func ParseLayout(s string) (Layout, error) {
	switch Layout(s) {
	case "", LayoutCurrent:
		return LayoutCurrent, nil
	case LayoutPaired:
		return LayoutPaired, nil
	}
	return "", fmt.Errorf("unknown builder layout %q", s)
}

type builderDraft struct {
	item    *goquery.Selection
	details *goquery.Selection
	link    string
	archive string
	record  release.Record
}

func builderSteps(layout Layout) []step[builderDraft] {
	steps := []step[builderDraft]{
		{
			field: "build_details",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.details, err = buildDetails(d.item)
				return err
			},
		},
		{
			field: "download_link",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.link, err = primaryLink(d.item)
				return err
			},
		},
	}

	if layout == LayoutPaired {
		steps = append(steps, step[builderDraft]{
			field: "download_link_archive",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.archive, err = archiveLink(d.item)
				return err
			},
		})
	}

	steps = append(steps,
		step[builderDraft]{
			field: "download_type",
			req:   required,
			run: func(d *builderDraft) error {
				text, err := titledText(d.item, "File extension")
				d.record.DownloadType = normalizeType(text)
				return err
			},
		},
		step[builderDraft]{
			field: "download_size",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.record.DownloadSize, err = titledText(d.item, "File size")
				return err
			},
		},
		step[builderDraft]{
			field: "version",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.record.Version, d.record.VersionDetail, err = parseFilename(filename(d.link))
				return err
			},
		},
		step[builderDraft]{
			field: "release_date",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.record.ReleaseDate, err = buildDate(d.details)
				return err
			},
		},
		step[builderDraft]{
			field: "tag",
			req:   optional,
			run: func(d *builderDraft) (err error) {
				d.record.Tag, err = buildTag(d.item)
				return err
			},
			fallback: func(d *builderDraft) { d.record.Tag = release.TagUnknown },
		},
		step[builderDraft]{
			field: "sha256",
			req:   optional,
			run: func(d *builderDraft) (err error) {
				d.record.Sha256, err = checksumLink(d.item)
				return err
			},
			fallback: func(d *builderDraft) { d.record.Sha256 = "" },
		},
		step[builderDraft]{
			field: "ga_label",
			req:   required,
			run: func(d *builderDraft) (err error) {
				d.record.GaLabel, err = analyticsLabel(d.item)
				return err
			},
		},
	)

	return steps
}

type builderAssembler struct {
	layout Layout
	steps  []step[builderDraft]
}

func newBuilderAssembler(layout Layout) builderAssembler {
	return builderAssembler{layout: layout, steps: builderSteps(layout)}
}

func (a builderAssembler) assemble(item *goquery.Selection) (release.Record, skipReason, bool) {
	d := builderDraft{item: item}
	reason, ok := runSteps(&d, a.steps)
	if !ok {
		return release.Record{}, reason, false
	}

	d.record.OS = platform.OSFromLabel(d.record.GaLabel)
	switch a.layout {
	case LayoutPaired:
		d.record.Download = release.PairedDownload{Installer: d.link, Archive: d.archive}
		d.record.Arch = platform.ArchFromBitness(d.record.GaLabel)
	default:
		d.record.Download = release.SingleDownload{Link: d.link}
		d.record.Arch = platform.ArchFromPlatformLabel(architectureLabel(item))
	}

	return d.record, skipReason{}, true
}

type stableDraft struct {
	doc    *goquery.Selection
	item   *goquery.Selection
	now    time.Time
	link   string
	panel  *goquery.Selection
	record release.Record
}

var stableSteps = []step[stableDraft]{
	{
		field: "download_size",
		req:   required,
		run: func(d *stableDraft) (err error) {
			d.record.DownloadSize, err = stableSize(d.item)
			return err
		},
	},
	{
		field: "download_link",
		req:   required,
		run: func(d *stableDraft) (err error) {
			d.link, err = href(d.item, "a")
			return err
		},
	},
	{
		field: "version",
		req:   required,
		run: func(d *stableDraft) (err error) {
			d.record.Version, err = parseFilenameVersion(filename(d.link))
			return err
		},
	},
	{
		field: "os",
		req:   required,
		run: func(d *stableDraft) error {
			class, _ := d.item.Attr("class")
			d.record.OS = platform.OSFromClass(class)
			d.record.Arch = platform.StableArch(stableBuild(d.item))
			return nil
		},
	},
	{
		field: "info_panel",
		req:   optional,
		run: func(d *stableDraft) error {
			id := infoPanelID(d.record.OS, d.record.Arch)
			d.panel = d.doc.Find("#" + id).First()
			if d.panel.Length() == 0 {
				return notFound("#" + id)
			}
			return nil
		},
	},
	{
		field: "sha256",
		req:   optional,
		run: func(d *stableDraft) (err error) {
			d.record.Sha256, err = panelChecksum(d.panel)
			return err
		},
		fallback: func(d *stableDraft) { d.record.Sha256 = "" },
	},
	{
		field: "release_date",
		req:   optional,
		run: func(d *stableDraft) (err error) {
			d.record.ReleaseDate, err = panelDate(d.panel)
			return err
		},
		fallback: func(d *stableDraft) { d.record.ReleaseDate = d.now },
	},
}

// infoPanelID is the id of the stable page panel holding the date and checksums of a
// platform.
func infoPanelID(os platform.OS, arch platform.Arch) string {
	switch {
	case arch == platform.ARM64:
		return "menu-info-macos-apple-silicon"
	case os == platform.Linux:
		return "menu-info-linux"
	case os == platform.Mac:
		return "menu-info-macos"
	}
	return "menu-info-windows"
}

func assembleStable(doc *goquery.Selection, item *goquery.Selection, now time.Time) (release.Record, skipReason, bool) {
	d := stableDraft{
		doc:   doc,
		item:  item,
		now:   now,
		panel: &goquery.Selection{},
	}
	reason, ok := runSteps(&d, stableSteps)
	if !ok {
		return release.Record{}, reason, false
	}

	d.record.Download = release.SingleDownload{Link: d.link}
	d.record.DownloadType = linkType(d.link)
	d.record.Tag = release.TagCurrentStable
	return d.record, skipReason{}, true
}
