package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Phrasings the downloader uses to announce the file it writes to.
// Different phases (download, post-processing, merge) use different wording.
var outputFilePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\[(?:download|ExtractAudio)\] Destination: (?P<output_file>.+)$`),
	regexp.MustCompile(`^\[download\] (?P<output_file>.+?) has already been downloaded$`),
	regexp.MustCompile(`^\[Merger\] Merging formats into "(?P<output_file>.+?)"$`),
}

var percentPattern = regexp.MustCompile(`^\[download\]\s+(?P<percent>[\d.]+?)%`)

var progressPattern = regexp.MustCompile(`^\[download\]\s+(?P<percent>[\d.]+?)% of\s+` +
	`(?P<size>(?:~\s*)?[\d.]+?(?:[KMG]i)?B)` +
	`(?: at\s+(?P<speed>(?:(?:~\s*)?[\d.]+?(?:[KMG]i)?|Unknown )B/s))?` +
	`(?: ETA\s+(?P<eta>[\d:-]+|Unknown))?` +
	`(?: \(frag (?P<frag>\d+)/(?P<frag_total>\d+)\))?`)

// ParseOutputFile extracts the destination path from a downloader output line
func ParseOutputFile(line string) (string, bool) {
	for _, re := range outputFilePatterns {
		m := re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if file := m[re.SubexpIndex("output_file")]; file != "" {
			return file, true
		}
	}
	return "", false
}

// ParsePercent extracts a leading "[download] NN.N%" marker.
// Malformed numbers are reported as absent.
func ParsePercent(line string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return parsePercentText(m[percentPattern.SubexpIndex("percent")])
}

func parsePercentText(s string) (float64, bool) {
	if s == "" || strings.Count(s, ".") > 1 {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ProgressKind tells how much of a line could be understood
type ProgressKind int

const (
	ProgressNone ProgressKind = iota
	ProgressRaw
	ProgressParsed
)

// Span is a byte range into ProgressDetail.Line. A negative Start marks an absent value.
type Span struct {
	Start int
	End   int
}

var noSpan = Span{Start: -1, End: -1}

// Valid reports whether the span points into the line
func (s Span) Valid() bool {
	return s.Start >= 0 && s.End >= s.Start
}

// ProgressDetail is the display-only view of the last output line of a video.
// It is derived at render time and never stored.
type ProgressDetail struct {
	Kind      ProgressKind
	Line      string
	Percent   *float64
	SizeSpan  Span
	SpeedSpan Span
	ETASpan   Span
	Frag      *uint16
	FragTotal *uint16
}

// ParseProgressDetail applies the rich progress pattern to line.
// fallbackPercent is used when the line carries no usable percentage.
func ParseProgressDetail(line string, fallbackPercent *float64) ProgressDetail {
	if line == "" {
		return ProgressDetail{Kind: ProgressNone, SizeSpan: noSpan, SpeedSpan: noSpan, ETASpan: noSpan}
	}

	idx := progressPattern.FindStringSubmatchIndex(line)
	if idx == nil {
		return ProgressDetail{Kind: ProgressRaw, Line: line, SizeSpan: noSpan, SpeedSpan: noSpan, ETASpan: noSpan}
	}

	group := func(name string) Span {
		i := progressPattern.SubexpIndex(name)
		if i < 0 || idx[2*i] < 0 {
			return noSpan
		}
		return Span{Start: idx[2*i], End: idx[2*i+1]}
	}
	text := func(s Span) string {
		if !s.Valid() {
			return ""
		}
		return line[s.Start:s.End]
	}

	detail := ProgressDetail{
		Kind:      ProgressParsed,
		Line:      line,
		SizeSpan:  group("size"),
		SpeedSpan: group("speed"),
		ETASpan:   group("eta"),
	}

	if pct, ok := parsePercentText(text(group("percent"))); ok {
		detail.Percent = &pct
	} else if fallbackPercent != nil {
		pct := *fallbackPercent
		detail.Percent = &pct
	}

	detail.Frag = parseCounter(text(group("frag")))
	detail.FragTotal = parseCounter(text(group("frag_total")))

	return detail
}

func parseCounter(s string) *uint16 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return nil
	}
	n := uint16(v)
	return &n
}

func (d ProgressDetail) slice(s Span) string {
	if !s.Valid() || s.End > len(d.Line) {
		return ""
	}
	return d.Line[s.Start:s.End]
}

// Size returns the total size text, e.g. "10MiB"
func (d ProgressDetail) Size() string { return d.slice(d.SizeSpan) }

// Speed returns the download speed text, e.g. "1MiB/s"
func (d ProgressDetail) Speed() string { return d.slice(d.SpeedSpan) }

// ETA returns the remaining time text, e.g. "00:08"
func (d ProgressDetail) ETA() string { return d.slice(d.ETASpan) }

// Fragments returns "current / total", "current", or "" when unknown
func (d ProgressDetail) Fragments() string {
	if d.Frag == nil {
		return ""
	}
	if d.FragTotal == nil {
		return strconv.Itoa(int(*d.Frag))
	}
	return fmt.Sprintf("%d / %d", *d.Frag, *d.FragTotal)
}

// Cells returns the size, speed, ETA and fragment columns of a parsed line
func (d ProgressDetail) Cells() [4]string {
	if d.Kind != ProgressParsed {
		return [4]string{}
	}
	return [4]string{d.Size(), d.Speed(), d.ETA(), d.Fragments()}
}

func (d ProgressDetail) String() string {
	switch d.Kind {
	case ProgressRaw:
		return d.Line
	case ProgressParsed:
		var b strings.Builder
		if d.Percent != nil {
			fmt.Fprintf(&b, "%.1f %% done. ", *d.Percent)
		}
		if s := d.Size(); s != "" {
			fmt.Fprintf(&b, "file size: %s. ", s)
		}
		if s := d.Speed(); s != "" {
			fmt.Fprintf(&b, "download speed: %s. ", s)
		}
		if s := d.ETA(); s != "" {
			fmt.Fprintf(&b, "ETA: %s. ", s)
		}
		if s := d.Fragments(); s != "" {
			fmt.Fprintf(&b, "fragments: %s. ", s)
		}
		return strings.TrimSpace(b.String())
	default:
		return ""
	}
}
