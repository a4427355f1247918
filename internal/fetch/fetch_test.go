//nolint:testpackage // White-box tests require access to unexported identifiers in this package.
package fetch

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSortByHeight_DescendingDisplayOrder(t *testing.T) {
	formats := []Format{
		{ID: "a", Height: 144},
		{ID: "b", Height: 1080},
		{ID: "c", Height: 720},
	}
	SortByHeight(formats)

	require.Equal(t, []int{1080, 720, 144}, []int{formats[0].Height, formats[1].Height, formats[2].Height})
}

func TestSortByHeight_StableAmongEqualHeights(t *testing.T) {
	formats := []Format{
		{ID: "first", Height: 720},
		{ID: "second", Height: 720},
		{ID: "tall", Height: 1080},
	}
	SortByHeight(formats)

	require.Equal(t, "tall", formats[0].ID)
	require.Equal(t, "first", formats[1].ID)
	require.Equal(t, "second", formats[2].ID)
}

func TestFormat_Label(t *testing.T) {
	require.Equal(t, "1080p", Format{ID: "137", Height: 1080}.Label())
	require.Equal(t, "sb0", Format{ID: "sb0"}.Label())
}

func TestFormat_Describe(t *testing.T) {
	f := Format{Ext: "mp4", SizeBytes: 10 * 1024 * 1024, FPS: 30}
	desc := f.Describe()
	require.Contains(t, desc, "mp4")
	require.Contains(t, desc, "10 MiB")
	require.Contains(t, desc, "30 fps")

	require.Contains(t, Format{Ext: "webm"}.Describe(), "unknown size")
}

func TestMediaPayload_CombinedFilter(t *testing.T) {
	raw := `{
		"title": "Sample",
		"formats": [
			{"format_id": "sb0", "ext": "mhtml", "vcodec": "none", "acodec": "none"},
			{"format_id": "140", "ext": "m4a", "vcodec": "none", "acodec": "mp4a"},
			{"format_id": "137", "ext": "mp4", "height": 1080, "vcodec": "avc1", "acodec": "none"},
			{"format_id": "22", "ext": "mp4", "height": 720, "fps": 30, "vcodec": "avc1", "acodec": "mp4a", "filesize": 1048576}
		]
	}`
	var payload mediaPayload
	require.NoError(t, json.Unmarshal([]byte(raw), &payload))

	var combined []formatPayload
	for _, f := range payload.Formats {
		if f.combined() {
			combined = append(combined, f)
		}
	}
	require.Len(t, combined, 1)
	require.Equal(t, "22", combined[0].FormatID)
	require.Equal(t, int64(1048576), combined[0].sizeBytes())
}

func TestFormatPayload_SizeFallsBackToApprox(t *testing.T) {
	f := formatPayload{FilesizeApprox: 2048}
	require.Equal(t, int64(2048), f.sizeBytes())
}

func TestPercentOf(t *testing.T) {
	require.Equal(t, "50.0%", percentOf(512, 1024))
	require.Equal(t, "?", percentOf(512, 0))
}

func TestSpeedOf(t *testing.T) {
	require.Equal(t, "?", speedOf(0, time.Now()))
	require.Equal(t, "?", speedOf(1024, time.Time{}))
	require.Contains(t, speedOf(10*1024*1024, time.Now().Add(-time.Second)), "/s")
}
