package blender

import (
	"errors"
	"fmt"
	"math"
	"path"
	"regexp"
	"strings"
	"time"

	"blender-scraper/internal/release"
	"blender-scraper/pkg/htmlutil"

	"github.com/Masterminds/semver/v3"
	"github.com/PuerkitoBio/goquery"
)

var (
	errNotFound = errors.New("not found")
	// errDecoy marks the hidden checksum-only entries of the build list.
	errDecoy = errors.New("checksum-only entry")
)

func notFound(selector string) error {
	return fmt.Errorf("%w: %s", errNotFound, selector)
}

func buildDetails(item *goquery.Selection) (*goquery.Selection, error) {
	details := item.Find("ul.build-details").First()
	if details.Length() == 0 {
		return nil, notFound("ul.build-details")
	}
	return details, nil
}

func href(sel *goquery.Selection, selector string) (string, error) {
	link, ok := htmlutil.Attr(sel.Find(selector).First(), "href")
	if !ok || link == "" {
		return "", notFound(selector + "[href]")
	}
	return link, nil
}

func primaryLink(item *goquery.Selection) (string, error) {
	return href(item, "a:first-child")
}

func archiveLink(item *goquery.Selection) (string, error) {
	return href(item, ".build-meta a")
}

func titledText(item *goquery.Selection, title string) (string, error) {
	selector := fmt.Sprintf("li[title='%s']", title)
	sel := item.Find(selector).First()
	if sel.Length() == 0 {
		return "", notFound(selector)
	}
	text := htmlutil.Text(sel)
	if text == "" {
		return "", notFound(selector)
	}
	return text, nil
}

func normalizeType(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimSuffix(s, "/")
	return strings.TrimPrefix(s, ".")
}

// linkType is the text after the last "." of the link's trailing path segment.
func linkType(link string) string {
	name := filename(link)
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return normalizeType(name[idx+1:])
}

// filename is the last path segment of a download link, trailing slashes ignored.
func filename(link string) string {
	return path.Base(strings.TrimRight(link, "/"))
}

var archiveExts = []string{
	".tar.xz",
	".tar.gz",
	".tar.bz2",
	".zip",
	".dmg",
	".msi",
	".msix",
	".exe",
	".7z",
	".sha256",
}

func trimArchiveExt(name string) string {
	lower := strings.ToLower(name)
	for _, ext := range archiveExts {
		if strings.HasSuffix(lower, ext) {
			return name[:len(name)-len(ext)]
		}
	}
	return name
}

// canonicalTriple checks that token is three dot separated runs of digits and strips
// their leading zeros, ex. "4.02.0" -> "4.2.0".
func canonicalTriple(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("parse version %q: expected 3 components", token)
	}
	for i, part := range parts {
		if part == "" || strings.Trim(part, "0123456789") != "" {
			return "", fmt.Errorf("parse version %q: component %q is not a number", token, part)
		}
		part = strings.TrimLeft(part, "0")
		if part == "" {
			part = "0"
		}
		parts[i] = part
	}
	return strings.Join(parts, "."), nil
}

func parseVersion(token string) (release.Version, error) {
	canonical, err := canonicalTriple(token)
	if err != nil {
		return release.Version{}, err
	}
	v, err := semver.StrictNewVersion(canonical)
	if err != nil {
		return release.Version{}, fmt.Errorf("parse version %q: %w", token, err)
	}

	var out release.Version
	for i, part := range []uint64{v.Major(), v.Minor(), v.Patch()} {
		if part > math.MaxInt8 {
			return release.Version{}, fmt.Errorf("parse version %q: component %d out of range", token, part)
		}
		out[i] = int8(part)
	}
	return out, nil
}

// parseFilename reads the version triple (2nd dash-delimited token) and the version
// detail (3rd token) out of a build filename, ex. "product-1.2.3-abcdef.zip".
func parseFilename(name string) (release.Version, string, error) {
	tokens := strings.Split(trimArchiveExt(name), "-")
	if len(tokens) < 3 {
		return release.Version{}, "", fmt.Errorf("%w: version detail in %q", errNotFound, name)
	}
	version, err := parseVersion(tokens[1])
	if err != nil {
		return release.Version{}, "", err
	}
	return version, tokens[2], nil
}

// parseFilenameVersion is parseFilename for filenames that carry no detail token.
func parseFilenameVersion(name string) (release.Version, error) {
	tokens := strings.Split(trimArchiveExt(name), "-")
	if len(tokens) < 2 {
		return release.Version{}, fmt.Errorf("%w: version in %q", errNotFound, name)
	}
	return parseVersion(tokens[1])
}

var buildDateLayouts = []string{
	"2006-01-02T15:04:05-0700",
	time.RFC3339,
}

func parseBuildDate(s string) (time.Time, error) {
	var firstErr error
	for _, layout := range buildDateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, fmt.Errorf("parse build date: %w", firstErr)
}

func buildDate(details *goquery.Selection) (time.Time, error) {
	title, ok := htmlutil.Attr(details.Find("li:first-child").First(), "title")
	if !ok {
		return time.Time{}, notFound("li:first-child[title]")
	}
	return parseBuildDate(title)
}

func buildTag(item *goquery.Selection) (string, error) {
	tag := htmlutil.Text(item.Find(".build-var").First())
	if tag == "" {
		return "", notFound(".build-var")
	}
	return tag, nil
}

func checksumLink(item *goquery.Selection) (string, error) {
	return href(item, "a.sha")
}

// analyticsLabel returns the lowercased ga_label of the build title, or errDecoy for
// the hidden entries that only link to a checksum.
func analyticsLabel(item *goquery.Selection) (string, error) {
	label, ok := htmlutil.Attr(item.Find("a.build-title").First(), "ga_label")
	if !ok {
		return "", notFound("a.build-title[ga_label]")
	}
	label = strings.ToLower(label)
	if strings.Contains(label, "sha256") {
		return "", errDecoy
	}
	return label, nil
}

func architectureLabel(item *goquery.Selection) string {
	return htmlutil.Text(item.Find(".build-meta span.build-architecture[title='Architecture']").First())
}

func stableSize(item *goquery.Selection) (string, error) {
	sel := item.Find("span.size").First()
	if sel.Length() == 0 {
		return "", notFound("span.size")
	}
	return htmlutil.Text(sel), nil
}

func stableBuild(item *goquery.Selection) string {
	return htmlutil.Text(item.Find("span.build").First())
}

var releasedOnRegex = regexp.MustCompile(`Released on ([A-Za-z]+ \d{1,2}, \d{4})`)

func parseReleasedOn(text string) (time.Time, error) {
	groups := releasedOnRegex.FindStringSubmatch(text)
	if len(groups) < 2 {
		return time.Time{}, fmt.Errorf("%w: release sentence in %q", errNotFound, text)
	}
	return time.Parse("January 2, 2006", groups[1])
}

// panelDate reads the release date of an info panel.
func panelDate(panel *goquery.Selection) (time.Time, error) {
	smalls := panel.ChildrenFiltered("small")
	if smalls.Length() == 0 {
		return time.Time{}, notFound("small")
	}
	var lastErr error
	for i := range smalls.Length() {
		date, err := parseReleasedOn(htmlutil.Text(smalls.Eq(i)))
		if err == nil {
			return date, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// panelChecksum is the second checksum link of an info panel, the first one being the
// md5 sum.
func panelChecksum(panel *goquery.Selection) (string, error) {
	links := panel.ChildrenFiltered("small.checksum").Find("a")
	if links.Length() < 2 {
		return "", notFound("small.checksum a:nth(2)")
	}
	link, ok := htmlutil.Attr(links.Eq(1), "href")
	if !ok || link == "" {
		return "", notFound("small.checksum a:nth(2)[href]")
	}
	return link, nil
}
