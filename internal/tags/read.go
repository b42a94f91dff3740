// Package tags reads display metadata from local media files.
package tags

import (
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// Info is the metadata shown for a source.
type Info struct {
	Title  string
	Artist string
	Album  string
	Year   int
	Format string // "MP3", "FLAC", ...
}

// Read returns metadata for src, a local path or URL. Tags are read only
// from local files; other sources, and files without tags, get a title
// derived from their name.
func Read(src string) Info {
	info := Info{Title: baseName(src)}

	p, ok := localFile(src)
	if !ok {
		return info
	}
	f, err := os.Open(p)
	if err != nil {
		return info
	}
	defer f.Close()

	m, err := tag.ReadFrom(f)
	if err != nil {
		return info
	}
	if m.Title() != "" {
		info.Title = m.Title()
	}
	info.Artist = m.Artist()
	if info.Artist == "" {
		info.Artist = m.AlbumArtist()
	}
	info.Album = m.Album()
	info.Year = m.Year()
	info.Format = string(m.FileType())
	return info
}

func localFile(src string) (string, bool) {
	if !strings.Contains(src, "://") {
		return src, src != ""
	}
	u, err := url.Parse(src)
	if err != nil || u.Scheme != "file" {
		return "", false
	}
	return u.Path, true
}

func baseName(src string) string {
	if u, err := url.Parse(src); err == nil && u.Scheme != "" {
		if name := path.Base(u.Path); name != "." && name != "/" {
			return name
		}
		return u.Host
	}
	return filepath.Base(src)
}
