// Package release holds the records produced by the scrapers and their JSON form.
package release

import (
	"encoding/json"
	"fmt"
	"time"

	"blender-scraper/internal/platform"
)

// DateLayout is how release dates are serialized: ISO-8601 without an offset, the wall
// clock as published by the download page.
const DateLayout = "2006-01-02T15:04:05"

const (
	// TagUnknown is the tag of a build whose variant marker could not be read.
	TagUnknown = "Unknown"
	// TagCurrentStable is the tag of every record from the stable download page.
	TagCurrentStable = "current-stable"
)

// Version is a (major, minor, patch) triple.
type Version [3]int8

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v[0], v[1], v[2])
}

// Download is where a build can be downloaded from. It is one of SingleDownload or
// PairedDownload.
type Download interface {
	isDownload()
}

// SingleDownload is a build published as one file.
type SingleDownload struct {
	Link string
}

// PairedDownload is a build published both as an installer and as a plain archive.
type PairedDownload struct {
	Installer string
	Archive   string
}

func (SingleDownload) isDownload() {}
func (PairedDownload) isDownload() {}

// Record is one downloadable build artifact.
type Record struct {
	Version       Version
	VersionDetail string
	Download      Download
	DownloadType  string
	DownloadSize  string
	ReleaseDate   time.Time
	Tag           string
	OS            platform.OS
	Arch          platform.Arch
	Sha256        string
	GaLabel       string
}

// PrimaryLink is the link the version was read from.
func (r Record) PrimaryLink() string {
	switch d := r.Download.(type) {
	case SingleDownload:
		return d.Link
	case PairedDownload:
		return d.Installer
	}
	return ""
}

type recordJSON struct {
	Version               Version       `json:"version"`
	VersionDetail         string        `json:"version_detail"`
	DownloadLink          *string       `json:"download_link,omitempty"`
	DownloadLinkInstaller *string       `json:"download_link_installer,omitempty"`
	DownloadLinkArchive   *string       `json:"download_link_archive,omitempty"`
	DownloadType          string        `json:"download_type"`
	DownloadSize          string        `json:"download_size"`
	ReleaseDate           string        `json:"release_date"`
	Tag                   string        `json:"tag"`
	OS                    platform.OS   `json:"os"`
	Arch                  platform.Arch `json:"arch"`
	Sha256                string        `json:"sha256"`
	GaLabel               string        `json:"ga_label"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	out := recordJSON{
		Version:       r.Version,
		VersionDetail: r.VersionDetail,
		DownloadType:  r.DownloadType,
		DownloadSize:  r.DownloadSize,
		ReleaseDate:   r.ReleaseDate.Format(DateLayout),
		Tag:           r.Tag,
		OS:            r.OS,
		Arch:          r.Arch,
		Sha256:        r.Sha256,
		GaLabel:       r.GaLabel,
	}

	switch d := r.Download.(type) {
	case SingleDownload:
		out.DownloadLink = &d.Link
	case PairedDownload:
		out.DownloadLinkInstaller = &d.Installer
		out.DownloadLinkArchive = &d.Archive
	default:
		return nil, fmt.Errorf("release %s: no download variant set", r.Version)
	}

	return json.Marshal(out)
}

// Collection is the records of one channel in document order.
type Collection []Record

func (c Collection) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Record(c))
}

// ChannelMap is keyed by channel name ("stable", "daily", ...).
type ChannelMap map[string]Collection

const ChannelStable = "stable"

// BuilderChannels are the channels published on the build archive.
var BuilderChannels = []string{"daily", "experimental", "patch"}
