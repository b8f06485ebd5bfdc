// SPDX-License-Identifier: MIT

package transcode

import (
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/vidbridge/vidbridge/internal/probe"
)

// Output file names inside a job directory. All are pure functions of the
// rendition so the layout is deterministic.
const (
	MasterPlaylist = "master.m3u8"
	VideoPlaylist  = "video.m3u8"
)

// AudioPlaylist returns the sub-playlist name for the nth audio rendition.
func AudioPlaylist(n int) string {
	return fmt.Sprintf("audio_%d.m3u8", n)
}

// Rendition is one ffmpeg invocation producing a sub-playlist plus
// sequentially numbered segments.
type Rendition struct {
	Name     string
	Playlist string
	Track    probe.Track
	Args     []string
}

// PlanRenditions builds the ffmpeg argument lists for one job: a single
// stream-copied video rendition and one re-encoded rendition per audio
// track. Subtitle tracks are enumerated by the probe but not transcoded.
func PlanRenditions(src, dir string, tracks []probe.Track, segmentSeconds int) []Rendition {
	if segmentSeconds <= 0 {
		segmentSeconds = 6
	}

	var rends []Rendition
	audioN := 0
	for _, t := range tracks {
		switch t.Kind {
		case probe.KindVideo:
			rends = append(rends, Rendition{
				Name:     "video",
				Playlist: VideoPlaylist,
				Track:    t,
				Args: buildArgs(src, segmentSeconds,
					[]string{
						"-map", fmt.Sprintf("0:%d", t.Index),
						"-c:v", "copy", // stream copy, no re-encode
						"-an", "-sn",
					},
					filepath.Join(dir, "video_%05d.ts"),
					filepath.Join(dir, VideoPlaylist),
				),
			})
		case probe.KindAudio:
			playlist := AudioPlaylist(audioN)
			rends = append(rends, Rendition{
				Name:     fmt.Sprintf("audio_%d", audioN),
				Playlist: playlist,
				Track:    t,
				Args: buildArgs(src, segmentSeconds,
					[]string{
						"-map", fmt.Sprintf("0:%d", t.Index),
						"-vn", "-sn",
						"-c:a", "aac",
						"-ac", "2",
						"-ar", "48000",
						"-b:a", "128k",
					},
					filepath.Join(dir, fmt.Sprintf("audio_%d_%%05d.ts", audioN)),
					filepath.Join(dir, playlist),
				),
			})
			audioN++
		}
	}
	return rends
}

func buildArgs(src string, segmentSeconds int, codecArgs []string, segmentPattern, playlistPath string) []string {
	args := []string{
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
	}
	args = append(args, inputFlags(src)...)
	args = append(args, "-i", src)
	args = append(args, codecArgs...)
	args = append(args,
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", segmentSeconds),
		"-hls_list_size", "0",
		"-hls_playlist_type", "vod",
		"-hls_flags", "temp_file",
		"-hls_segment_filename", segmentPattern,
		playlistPath,
	)
	return args
}

// inputFlags returns robustness flags for network inputs. Reconnects are
// bounded: a capped backoff and no reconnect-at-EOF, so a dead source fails
// the rendition instead of retrying forever.
func inputFlags(src string) []string {
	u, err := url.Parse(src)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	return []string{
		"-reconnect", "1",
		"-reconnect_streamed", "1",
		"-reconnect_delay_max", "5",
		"-rw_timeout", "30000000", // 30s socket timeout
	}
}
