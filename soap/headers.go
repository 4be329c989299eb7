package soap

import (
	"net/http"
	"sort"
	"strings"
)

// HeaderCollector accumulates raw response header lines in arrival order.
// Lines without a ':' separator (status line, blank terminator, garbage) are
// dropped.
type HeaderCollector struct {
	lines []string
}

// Collect records one raw header line.
func (c *HeaderCollector) Collect(line string) {
	if !strings.Contains(line, ":") {
		return
	}
	c.lines = append(c.lines, line)
}

// Lines returns the collected header lines.
func (c *HeaderCollector) Lines() []string {
	return c.lines
}

// collectResponse feeds the collector the header block of res the way it
// appeared on the wire, modulo ordering which net/http does not keep.
func collectResponse(c *HeaderCollector, res *http.Response) {
	c.Collect(res.Proto + " " + res.Status + crlf)

	keys := make([]string, 0, len(res.Header))
	for k := range res.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range res.Header[k] {
			c.Collect(k + ": " + v + crlf)
		}
	}

	c.Collect(crlf)
}
