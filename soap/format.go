package soap

import (
	"regexp"
	"strings"
)

// DebugLevel is a bit set selecting what a call dumps to the logger.
type DebugLevel int

const (
	// DebugBasic logs a one line summary of every call.
	DebugBasic DebugLevel = 1 << iota
	// DebugWSDL logs the WSDL location and the operations it describes.
	DebugWSDL
	// DebugRequest logs the indented request envelope.
	DebugRequest
	// DebugResponse logs the indented response envelope.
	DebugResponse
	// DebugResponseObject logs a dump of the decoded result.
	DebugResponseObject
	// DebugTimings logs the timings of the HTTP exchange.
	DebugTimings

	DebugAll = DebugBasic | DebugWSDL | DebugRequest | DebugResponse | DebugResponseObject | DebugTimings
)

// Has reports whether all bits of flag are set.
func (l DebugLevel) Has(flag DebugLevel) bool {
	return l&flag == flag
}

var (
	tagBoundary  = regexp.MustCompile(`(>)(<)(/*)`)
	inlineElem   = regexp.MustCompile(`.+</\w[^>]*>$`)
	closingTag   = regexp.MustCompile(`^</\w`)
	openingTag   = regexp.MustCompile(`^<\w[^>]*[^/]>.*$`)
	lineSplitter = regexp.MustCompile(`\r?\n`)
)

// FormatXML indents an XML document one space per nesting level, one tag per
// line. It is a line based formatter, not a parser: malformed input yields a
// best effort layout. Formatting its own output returns it unchanged.
func FormatXML(xml string) string {
	xml = tagBoundary.ReplaceAllString(xml, "$1\n$2$3")

	var b strings.Builder
	pad := 0
	for _, line := range lineSplitter.Split(xml, -1) {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			continue
		}

		indent := 0
		switch {
		case inlineElem.MatchString(line):
		case closingTag.MatchString(line):
			if pad > 0 {
				pad--
			}
		case openingTag.MatchString(line):
			indent = 1
		}

		b.WriteString(strings.Repeat(" ", pad))
		b.WriteString(line)
		b.WriteByte('\n')
		pad += indent
	}
	return b.String()
}
