// SPDX-License-Identifier: MIT
package playlist

import (
	"bytes"
	"fmt"
	"io"

	"github.com/google/renameio/v2"
)

// Declared stream attributes for the variant line. The service performs a
// single fixed-quality video rendition, so these are advertised, not measured.
const (
	DefaultBandwidth = 4_000_000
	DefaultCodecs    = "avc1.640029,mp4a.40.2"
	audioGroupID     = "aud"
)

// AudioRendition is one alternate audio entry of the master playlist.
type AudioRendition struct {
	Name     string
	Language string
	URI      string
	Default  bool
}

// Master describes the top-level playlist referencing the per-rendition
// sub-playlists.
type Master struct {
	Audios    []AudioRendition
	VideoURI  string
	Bandwidth int
	Codecs    string
}

// WriteMaster writes the master playlist. Audio entries appear in the given
// order; callers mark exactly the first one as default.
func WriteMaster(w io.Writer, m Master) error {
	bandwidth := m.Bandwidth
	if bandwidth <= 0 {
		bandwidth = DefaultBandwidth
	}
	codecs := m.Codecs
	if codecs == "" {
		codecs = DefaultCodecs
	}

	buf := &bytes.Buffer{}
	buf.WriteString("#EXTM3U\n")
	buf.WriteString("#EXT-X-VERSION:4\n")
	for _, a := range m.Audios {
		def := "NO"
		if a.Default {
			def = "YES"
		}
		buf.WriteString(fmt.Sprintf(
			`#EXT-X-MEDIA:TYPE=AUDIO,GROUP-ID="%s",NAME="%s",LANGUAGE="%s",DEFAULT=%s,AUTOSELECT=YES,URI="%s"`+"\n",
			audioGroupID, a.Name, a.Language, def, a.URI,
		))
	}
	if len(m.Audios) > 0 {
		buf.WriteString(fmt.Sprintf(
			`#EXT-X-STREAM-INF:BANDWIDTH=%d,CODECS="%s",AUDIO="%s"`+"\n",
			bandwidth, codecs, audioGroupID,
		))
	} else {
		buf.WriteString(fmt.Sprintf(
			`#EXT-X-STREAM-INF:BANDWIDTH=%d,CODECS="%s"`+"\n",
			bandwidth, codecs,
		))
	}
	buf.WriteString(m.VideoURI + "\n")

	_, err := io.Copy(w, buf)
	return err
}

// WriteMasterFile atomically writes the master playlist to path. Re-running
// with identical inputs overwrites the file with identical content, so the
// synthesizer is safe to invoke more than once per job.
func WriteMasterFile(path string, m Master) error {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending master playlist: %w", err)
	}
	defer func() {
		_ = pending.Cleanup()
	}()

	if err := WriteMaster(pending, m); err != nil {
		return fmt.Errorf("write master playlist: %w", err)
	}

	if err := pending.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace master playlist: %w", err)
	}
	return nil
}
