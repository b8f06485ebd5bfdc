// SPDX-License-Identifier: MIT
package playlist

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteMasterMultiAudio(t *testing.T) {
	var sb strings.Builder
	err := WriteMaster(&sb, Master{
		Audios: []AudioRendition{
			{Name: "English", Language: "eng", URI: "audio_0.m3u8", Default: true},
			{Name: "Japanese", Language: "jpn", URI: "audio_1.m3u8"},
		},
		VideoURI: "video.m3u8",
	})
	require.NoError(t, err)

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:4\n" +
		`#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="English",LANGUAGE="eng",DEFAULT=YES,AUTOSELECT=YES,URI="audio_0.m3u8"` + "\n" +
		`#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="aud",NAME="Japanese",LANGUAGE="jpn",DEFAULT=NO,AUTOSELECT=YES,URI="audio_1.m3u8"` + "\n" +
		`#EXT-X-STREAM-INF:BANDWIDTH=4000000,CODECS="avc1.640029,mp4a.40.2",AUDIO="aud"` + "\n" +
		"video.m3u8\n"
	assert.Equal(t, want, sb.String())
}

func TestWriteMasterVideoOnly(t *testing.T) {
	var sb strings.Builder
	err := WriteMaster(&sb, Master{VideoURI: "video.m3u8"})
	require.NoError(t, err)

	out := sb.String()
	assert.NotContains(t, out, "EXT-X-MEDIA")
	assert.NotContains(t, out, "AUDIO=")
	assert.Contains(t, out, `#EXT-X-STREAM-INF:BANDWIDTH=4000000,CODECS="avc1.640029,mp4a.40.2"`+"\n"+"video.m3u8\n")
}

func TestWriteMasterCustomBandwidth(t *testing.T) {
	var sb strings.Builder
	err := WriteMaster(&sb, Master{VideoURI: "video.m3u8", Bandwidth: 800_000, Codecs: "avc1.42e01e"})
	require.NoError(t, err)
	assert.Contains(t, sb.String(), `BANDWIDTH=800000,CODECS="avc1.42e01e"`)
}

func TestWriteMasterFileIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "master.m3u8")
	m := Master{
		Audios:   []AudioRendition{{Name: "English", Language: "eng", URI: "audio_0.m3u8", Default: true}},
		VideoURI: "video.m3u8",
	}

	require.NoError(t, WriteMasterFile(path, m))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, WriteMasterFile(path, m))
	second, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.True(t, strings.HasPrefix(string(first), "#EXTM3U\n"))
}
