package logging

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Filter selects log lines for Tail. The zero value keeps every line.
type Filter struct {
	MinLevel  Level
	Subsystem string
}

func (f Filter) match(line string) bool {
	if f.MinLevel == LevelDebug && f.Subsystem == "" {
		return true
	}
	if f.Subsystem != "" && field(line, "subsystem") != f.Subsystem {
		return false
	}
	lvl, ok := levelOf(field(line, "level"))
	return ok && lvl >= f.MinLevel
}

func levelOf(s string) (Level, bool) {
	for _, l := range []Level{LevelDebug, LevelInfo, LevelWarn, LevelError} {
		if strings.EqualFold(s, l.String()) {
			return l, true
		}
	}
	return LevelInfo, false
}

// field extracts key=value from a text handler line. Quoted values are not
// unescaped; subsystem and level never need quoting.
func field(line, key string) string {
	prefix := key + "="
	for _, tok := range strings.Fields(line) {
		if v, ok := strings.CutPrefix(tok, prefix); ok {
			return strings.Trim(v, `"`)
		}
	}
	return ""
}

// Tail returns at most n matching lines from the end of the log at path. A
// missing file yields no lines.
func Tail(path string, n int, f Filter) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	resolved, err := expandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve log path: %w", err)
	}
	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close()

	ring := make([]string, n)
	count, next := 0, 0
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !f.match(line) {
			continue
		}
		ring[next] = line
		next = (next + 1) % n
		if count < n {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}

	lines := make([]string, count)
	start := 0
	if count == n {
		start = next
	}
	for i := range lines {
		lines[i] = ring[(start+i)%n]
	}
	return lines, nil
}
