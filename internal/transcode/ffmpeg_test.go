// SPDX-License-Identifier: MIT
package transcode

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vidbridge/vidbridge/internal/probe"
)

func sampleTracks() []probe.Track {
	return []probe.Track{
		{Index: 0, Kind: probe.KindVideo, Name: "Video"},
		{Index: 1, Kind: probe.KindAudio, Language: "eng", Name: "English"},
		{Index: 2, Kind: probe.KindAudio, Language: "jpn", Name: "Japanese"},
		{Index: 3, Kind: probe.KindSubtitle, Language: "eng", Name: "English"},
	}
}

func TestPlanRenditionsLayout(t *testing.T) {
	dir := "/data/streams/abc"
	rends := PlanRenditions("https://example.com/v.mp4", dir, sampleTracks(), 6)

	require.Len(t, rends, 3, "one video plus one per audio track, subtitles skipped")
	assert.Equal(t, "video", rends[0].Name)
	assert.Equal(t, VideoPlaylist, rends[0].Playlist)
	assert.Equal(t, "audio_0", rends[1].Name)
	assert.Equal(t, "audio_0.m3u8", rends[1].Playlist)
	assert.Equal(t, "audio_1", rends[2].Name)
	assert.Equal(t, "audio_1.m3u8", rends[2].Playlist)
}

func TestPlanRenditionsVideoArgs(t *testing.T) {
	dir := "/data/streams/abc"
	rends := PlanRenditions("https://example.com/v.mp4", dir, sampleTracks(), 4)

	want := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-rw_timeout", "30000000",
		"-i", "https://example.com/v.mp4",
		"-map", "0:0",
		"-c:v", "copy",
		"-an", "-sn",
		"-f", "hls",
		"-hls_time", "4",
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_flags", "temp_file",
		"-hls_segment_filename", filepath.Join(dir, "video_%05d.ts"),
		filepath.Join(dir, "video.m3u8"),
	}
	if diff := cmp.Diff(want, rends[0].Args); diff != "" {
		t.Errorf("video args mismatch (-want +got):\n%s", diff)
	}
}

func TestPlanRenditionsAudioArgs(t *testing.T) {
	dir := "/data/streams/abc"
	rends := PlanRenditions("https://example.com/v.mp4", dir, sampleTracks(), 6)

	args := rends[1].Args
	assert.Contains(t, args, "-c:a")
	assert.Contains(t, args, "aac")
	assert.Contains(t, args, "-b:a")
	assert.Contains(t, args, "128k")
	assert.NotContains(t, args, "-c:v")

	// second audio track maps the right source stream
	found := false
	for i, a := range rends[2].Args {
		if a == "-map" && rends[2].Args[i+1] == "0:2" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPlanRenditionsLocalSourceNoReconnect(t *testing.T) {
	rends := PlanRenditions("/srv/media/v.mp4", "/data/streams/abc", sampleTracks(), 6)
	for _, r := range rends {
		assert.NotContains(t, r.Args, "-reconnect", "reconnect flags are network-input only")
	}
}

func TestPlanRenditionsDefaultSegmentSeconds(t *testing.T) {
	rends := PlanRenditions("https://example.com/v.mp4", "/tmp/x", sampleTracks(), 0)
	assert.Contains(t, rends[0].Args, "-hls_time")
	for i, a := range rends[0].Args {
		if a == "-hls_time" {
			assert.Equal(t, "6", rends[0].Args[i+1])
		}
	}
}

func TestAudioPlaylist(t *testing.T) {
	assert.Equal(t, "audio_0.m3u8", AudioPlaylist(0))
	assert.Equal(t, "audio_7.m3u8", AudioPlaylist(7))
}
