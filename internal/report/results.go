package report

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"
)

// WriteURLList writes one URL per line, sorted and deduplicated, with a
// trailing newline. This is the plain-text results file format: UTF-8,
// newline-terminated, no header.
func WriteURLList(path string, urls []string) error {
	unique := make(map[string]bool, len(urls))
	for _, u := range urls {
		if u != "" {
			unique[u] = true
		}
	}

	sorted := make([]string, 0, len(unique))
	for u := range unique {
		sorted = append(sorted, u)
	}
	sort.Strings(sorted)

	var buf bytes.Buffer
	for _, u := range sorted {
		buf.WriteString(u)
		buf.WriteByte('\n')
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to write results file %s: %w", path, err)
	}
	return nil
}

// ReadURLList reads a results file back into a URL list.
// Blank lines are skipped. A missing file yields an empty list so the
// monitor can start before the first scan has run.
func ReadURLList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open results file %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			urls = append(urls, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read results file %s: %w", path, err)
	}
	return urls, nil
}
