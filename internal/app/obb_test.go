package app

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/woozymasta/obb"
	"github.com/woozymasta/obb/internal/config"
)

func newTestApp(t *testing.T, cli config.Cli) (*Obb, *bytes.Buffer) {
	t.Helper()

	o, err := New(config.Meta{ID: "obb", Version: "test"}, cli)
	require.NoError(t, err)
	t.Cleanup(o.Close)

	var out bytes.Buffer
	o.out = &out
	return o, &out
}

func writeSource(t *testing.T) string {
	t.Helper()

	src := filepath.Join(t.TempDir(), "assets")
	files := map[string]string{
		"readme.txt":         strings.Repeat("read me ", 200),
		"textures/a.png":     strings.Repeat("pixels ", 1000),
		"docs/readme.txt":    strings.Repeat("docs ", 500),
		"sounds/music.ogg":   strings.Repeat("ogg ", 800),
		"textures/.DS_Store": "junk",
	}
	for rel, data := range files {
		p := filepath.Join(src, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte(data), 0o600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(src, "empty"), 0o750))

	return src
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := writeSource(t)

	listPath := filepath.Join(t.TempDir(), "compress.txt")
	require.NoError(t, os.WriteFile(listPath, []byte("textures/\nreadme.txt\n*.ogg\n"), 0o600))

	cli := config.Cli{
		Pack: config.PackCmd{
			Source:       src,
			CompressList: listPath,
			Checksum:     true,
		},
	}
	o, _ := newTestApp(t, cli)
	require.NoError(t, o.Start("pack <source>"))

	archive := DefaultPackOutput(src)
	require.FileExists(t, archive)

	entries, err := obb.ListEntries(archive)
	require.NoError(t, err)

	byPath := make(map[string]obb.TocEntry, len(entries))
	for _, e := range entries {
		byPath[e.Path] = e
	}
	texture := byPath["textures/a.png"]
	rootReadme := byPath["readme.txt"]
	docsReadme := byPath["docs/readme.txt"]
	music := byPath["sounds/music.ogg"]
	empty := byPath["empty"]
	assert.True(t, texture.IsContainer(), "listed directory must be compressed")
	assert.True(t, rootReadme.IsContainer(), "listed root file must be compressed")
	assert.False(t, docsReadme.IsContainer(), "file rule is anchored to archive root")
	assert.False(t, music.IsContainer(), "wildcard line must be ignored")
	assert.NotContains(t, byPath, "textures/.DS_Store")
	assert.True(t, empty.IsDir())

	require.NoError(t, obb.VerifyChecksums(archive))

	o.cli.Unpack = config.UnpackCmd{Archive: archive}
	require.NoError(t, o.Start("unpack <archive>"))

	outDir := DefaultUnpackOutput(archive)
	got, err := os.ReadFile(filepath.Join(outDir, "textures", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("pixels ", 1000), string(got))
	assert.DirExists(t, filepath.Join(outDir, "empty"))
}

func TestChecksumAndVerify(t *testing.T) {
	src := writeSource(t)
	archive := filepath.Join(t.TempDir(), "plain.obb")

	o, _ := newTestApp(t, config.Cli{
		Pack:     config.PackCmd{Source: src, Output: archive},
		Verify:   config.VerifyCmd{Archive: archive},
		Checksum: config.ChecksumCmd{Archive: archive},
	})
	require.NoError(t, o.Start("pack <source> <output>"))

	err := o.Start("verify <archive>")
	require.Error(t, err)
	assert.ErrorIs(t, err, obb.ErrChecksumMissing)

	require.NoError(t, o.Start("checksum <archive>"))
	require.NoError(t, o.Start("verify <archive>"))
}

func TestList(t *testing.T) {
	src := writeSource(t)
	archive := filepath.Join(t.TempDir(), "list.obb")

	o, out := newTestApp(t, config.Cli{
		Pack: config.PackCmd{Source: src, Output: archive, Compress: true},
		List: config.ListCmd{Archive: archive, Prefix: "textures"},
	})
	require.NoError(t, o.Start("pack <source> <output>"))
	require.NoError(t, o.Start("list <archive>"))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "dir "), lines[0])
	assert.True(t, strings.HasSuffix(lines[1], "textures/a.png"), lines[1])

	out.Reset()
	o.cli.List.JSON = true
	o.cli.List.Prefix = ""
	require.NoError(t, o.Start("list <archive>"))

	dec := json.NewDecoder(out)
	count := 0
	for dec.More() {
		var entry obb.TocEntry
		require.NoError(t, dec.Decode(&entry))
		count++
	}
	assert.Equal(t, 8, count)
}

func TestPackMissingCompressList(t *testing.T) {
	src := writeSource(t)

	o, _ := newTestApp(t, config.Cli{
		Pack: config.PackCmd{
			Source:       src,
			Output:       filepath.Join(t.TempDir(), "x.obb"),
			CompressList: filepath.Join(t.TempDir(), "missing.txt"),
		},
	})

	err := o.Start("pack <source> <output>")
	require.Error(t, err)
	assert.ErrorIs(t, err, obb.ErrMissingInput)
}

func TestStartUnknownCommand(t *testing.T) {
	o, _ := newTestApp(t, config.Cli{})
	assert.Error(t, o.Start(""))
	assert.Error(t, o.Start("bogus <arg>"))
}
