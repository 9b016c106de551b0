// Package render writes a channel map to an output stream.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"blender-scraper/internal/release"

	"github.com/jedib0t/go-pretty/v6/table"
)

type Format string

const (
	FormatJSON  Format = "json"
	FormatTable Format = "table"
)

func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatJSON:
		return FormatJSON, nil
	case FormatTable:
		return FormatTable, nil
	}
	return "", fmt.Errorf("unknown output format %q", s)
}

// JSON writes the channel map as one json document followed by a newline. A nil map
// is written as {}.
func JSON(w io.Writer, channels release.ChannelMap, pretty bool) error {
	if channels == nil {
		channels = release.ChannelMap{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(channels); err != nil {
		return fmt.Errorf("encode channels: %w", err)
	}
	return nil
}

// channelOrder puts the stable channel first, the rest sorted by name.
func channelOrder(channels release.ChannelMap) []string {
	names := make([]string, 0, len(channels))
	for name := range channels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i] == release.ChannelStable || names[j] == release.ChannelStable {
			return names[i] == release.ChannelStable && names[j] != release.ChannelStable
		}
		return names[i] < names[j]
	})
	return names
}

func Table(w io.Writer, channels release.ChannelMap) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Channel", "Version", "Detail", "OS", "Arch", "Type", "Size", "Released", "Tag"})

	for i, name := range channelOrder(channels) {
		if i > 0 {
			t.AppendSeparator()
		}
		for _, r := range channels[name] {
			t.AppendRow(table.Row{
				name,
				r.Version.String(),
				r.VersionDetail,
				r.OS,
				r.Arch,
				r.DownloadType,
				r.DownloadSize,
				r.ReleaseDate.Format(release.DateLayout),
				r.Tag,
			})
		}
	}

	t.Render()
}

// Write renders channels in the given format.
func Write(w io.Writer, format Format, channels release.ChannelMap, pretty bool) error {
	switch format {
	case FormatTable:
		Table(w, channels)
		return nil
	case FormatJSON, "":
		return JSON(w, channels, pretty)
	}
	return fmt.Errorf("unknown output format %q", format)
}
