// Package logtail turns the server's /errors page into displayable log
// lines. The endpoint wraps the tail of the server log file in a small
// HTML shell; Extract recovers the raw text and Tail keeps the last N
// lines of it.
package logtail

import (
	"bufio"
	"html"
	"strings"
)

// Extract pulls the log text out of the /errors HTML wrapper. Content
// that does not look like the wrapper is returned as-is, so a server
// that starts serving plain text keeps working.
func Extract(page string) string {
	start := strings.Index(page, "<pre>")
	if start < 0 {
		return page
	}
	start += len("<pre>")
	end := strings.LastIndex(page, "</pre>")
	if end < start {
		end = len(page)
	}
	return html.UnescapeString(page[start:end])
}

// Tail returns at most maxLines from the end of content.
func Tail(content string, maxLines int) []string {
	if maxLines <= 0 {
		return nil
	}

	ring := make([]string, maxLines)
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	count := 0
	idx := 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % maxLines
		if count < maxLines {
			count++
		}
	}

	lines := make([]string, count)
	if count == maxLines {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%maxLines]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines
}
