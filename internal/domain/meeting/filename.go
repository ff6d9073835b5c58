package meeting

import (
	"regexp"
	"strings"
	"time"
)

const (
	// MeetingsDir is the export subdirectory holding per-meeting files.
	MeetingsDir = "meetings"

	slugMaxLength  = 50
	idPrefixLength = 8
	unknownDateTag = "unknown-date"
)

var (
	slugStrip    = regexp.MustCompile(`[^\p{L}\p{N}_\s\v\p{Z}-]`)
	slugCollapse = regexp.MustCompile(`[-\s\v\p{Z}]+`)
	idStrip      = regexp.MustCompile(`[^A-Za-z0-9_-]`)
)

// Filename derives the per-meeting file name from the meeting's date, title
// and id. It is a pure function of its inputs.
func Filename(date, title, id string) string {
	return datePart(date) + "_" + Slugify(title) + "_" + idPrefix(id) + ".json"
}

// RelPath is the path of a meeting file relative to the export dir, as
// stored in the index.
func RelPath(filename string) string {
	return MeetingsDir + "/" + filename
}

// Slugify lowercases text and reduces it to a filename-safe, dash-separated
// slug of at most 50 characters. Names must match files already exported by
// earlier versions, so truncation may leave a trailing dash and a title with
// no usable characters yields an empty slug.
func Slugify(text string) string {
	s := strings.ToLower(text)
	s = slugStrip.ReplaceAllString(s, "")
	s = slugCollapse.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if r := []rune(s); len(r) > slugMaxLength {
		s = string(r[:slugMaxLength])
	}
	return s
}

func datePart(date string) string {
	if date == "" || date == UnknownDate {
		return unknownDateTag
	}
	t, err := parseTimestamp(date)
	if err != nil {
		return unknownDateTag
	}
	return t.Format(time.DateOnly)
}

func idPrefix(id string) string {
	s := idStrip.ReplaceAllString(id, "")
	if len(s) > idPrefixLength {
		s = s[:idPrefixLength]
	}
	return s
}
