package blender

import (
	"errors"
	"testing"

	"blender-scraper/internal/platform"
	"blender-scraper/internal/release"

	"github.com/stretchr/testify/require"
)

type countDraft struct {
	a, b, c int
}

func TestRunSteps(t *testing.T) {
	boom := errors.New("boom")

	cases := []struct {
		name    string
		steps   []step[countDraft]
		ok      bool
		field   string
		want    countDraft
		isDecoy bool
	}{
		{
			name: "all succeed",
			steps: []step[countDraft]{
				{field: "a", req: required, run: func(d *countDraft) error { d.a = 1; return nil }},
				{field: "b", req: optional, run: func(d *countDraft) error { d.b = 2; return nil }},
			},
			ok:   true,
			want: countDraft{a: 1, b: 2},
		},
		{
			name: "optional failure takes fallback",
			steps: []step[countDraft]{
				{
					field:    "a",
					req:      optional,
					run:      func(d *countDraft) error { return boom },
					fallback: func(d *countDraft) { d.a = -1 },
				},
				{field: "b", req: required, run: func(d *countDraft) error { d.b = 2; return nil }},
			},
			ok:   true,
			want: countDraft{a: -1, b: 2},
		},
		{
			name: "required failure stops the run",
			steps: []step[countDraft]{
				{field: "a", req: required, run: func(d *countDraft) error { d.a = 1; return nil }},
				{field: "b", req: required, run: func(d *countDraft) error { return boom }},
				{field: "c", req: required, run: func(d *countDraft) error { d.c = 3; return nil }},
			},
			field: "b",
			want:  countDraft{a: 1},
		},
		{
			name: "decoy on optional step stops the run",
			steps: []step[countDraft]{
				{
					field:    "a",
					req:      optional,
					run:      func(d *countDraft) error { return errDecoy },
					fallback: func(d *countDraft) { d.a = -1 },
				},
				{field: "b", req: required, run: func(d *countDraft) error { d.b = 2; return nil }},
			},
			field:   "a",
			isDecoy: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var d countDraft
			reason, ok := runSteps(&d, tc.steps)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, d)
			require.Equal(t, tc.field, reason.field)
			require.Equal(t, tc.isDecoy, reason.decoy())
		})
	}
}

func TestParseLayout(t *testing.T) {
	layout, err := ParseLayout("")
	require.NoError(t, err)
	require.Equal(t, LayoutCurrent, layout)

	layout, err = ParseLayout("paired")
	require.NoError(t, err)
	require.Equal(t, LayoutPaired, layout)

	_, err = ParseLayout("legacy")
	require.Error(t, err)
}

const completeItem = `<li>
	<a class="build-title" href="https://builder.blender.org/download/daily/blender-3.5.0-alpha+master.77a3f4e2b2d6-linux.x86_64-release.tar.xz" ga_label="blender-3.5.0-alpha+master.77a3f4e2b2d6-linux.x86_64-release.tar.xz">Blender 3.5.0</a>
	<span class="build-var">Alpha</span>
	<ul class="build-details">
		<li title="2022-11-18T06:05:21+0000">November 18, 06:05</li>
		<li title="File size">286.42 MB</li>
		<li title="File extension">xz</li>
	</ul>
	<div class="build-meta">
		<span class="build-architecture" title="Architecture">Linux x64</span>
	</div>
</li>`

func TestBuilderAssembler(t *testing.T) {
	assembler := newBuilderAssembler(LayoutCurrent)

	record, _, ok := assembler.assemble(fragment(t, completeItem))
	require.True(t, ok)
	require.Equal(t, release.Version{3, 5, 0}, record.Version)
	require.Equal(t, platform.Linux, record.OS)
	require.Equal(t, platform.X86_64, record.Arch)
	require.Equal(t, "", record.Sha256)
	require.Equal(t, "Alpha", record.Tag)

	_, reason, ok := assembler.assemble(fragment(t, `<li>
		<a class="build-title" href="https://builder.blender.org/download/daily/blender-3.5.0-x-linux.tar.xz" ga_label="blender-3.5.0-x-linux.tar.xz">Blender</a>
	</li>`))
	require.False(t, ok)
	require.Equal(t, "build_details", reason.field)
	require.False(t, reason.decoy())
}

func TestBuilderAssemblerUnknownArchitecture(t *testing.T) {
	assembler := newBuilderAssembler(LayoutCurrent)
	record, _, ok := assembler.assemble(fragment(t, `<li>
		<a class="build-title" href="https://builder.blender.org/download/daily/blender-3.5.0-alpha-freebsd.tar.xz" ga_label="blender-3.5.0-alpha-freebsd.tar.xz">Blender</a>
		<ul class="build-details">
			<li title="2022-11-18T06:05:21+0000">November 18, 06:05</li>
			<li title="File size">1 MB</li>
			<li title="File extension">xz</li>
		</ul>
	</li>`))
	require.True(t, ok)
	require.Equal(t, platform.UnknownOS, record.OS)
	require.Equal(t, platform.UnknownArch, record.Arch)
	require.Equal(t, release.TagUnknown, record.Tag)
}

func TestBuilderAssemblerDecoy(t *testing.T) {
	assembler := newBuilderAssembler(LayoutCurrent)
	doc := fixtureDocument(t, "builder_daily.html")

	_, reason, ok := assembler.assemble(doc.Find(".builds-list > li").Eq(1))
	require.False(t, ok)
	require.True(t, reason.decoy())
	require.Equal(t, "ga_label", reason.field)
}

func TestInfoPanelID(t *testing.T) {
	cases := []struct {
		os   platform.OS
		arch platform.Arch
		want string
	}{
		{os: platform.Windows, arch: platform.X86_64, want: "menu-info-windows"},
		{os: platform.Mac, arch: platform.X86_64, want: "menu-info-macos"},
		{os: platform.Mac, arch: platform.ARM64, want: "menu-info-macos-apple-silicon"},
		{os: platform.Linux, arch: platform.X86_64, want: "menu-info-linux"},
		{os: platform.UnknownOS, arch: platform.X86_64, want: "menu-info-windows"},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, infoPanelID(tc.os, tc.arch), "%s/%s", tc.os, tc.arch)
	}
}
