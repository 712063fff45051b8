// Copyright 2026 The Lion Authors
// SPDX-License-Identifier: Apache-2.0

package capability

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// readFileString reads a single-line pseudo-file and returns its
// trimmed content. Returns "" on any error.
func readFileString(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// readFileInt64 reads an integer from a sysfs file.
func readFileInt64(path string) (int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
}

// readKeyValue scans a "key : value" or "key value" file and returns
// the value of the first line whose key matches. /proc/cpuinfo uses the
// colon form with tab padding; /proc/stat uses whitespace.
func readKeyValue(path, key string) (string, bool) {
	file, err := os.Open(path)
	if err != nil {
		return "", false
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if name, value, found := strings.Cut(line, ":"); found {
			if strings.TrimSpace(name) == key {
				return strings.TrimSpace(value), true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 2 && fields[0] == key {
			return fields[1], true
		}
	}
	return "", false
}

// readOSRelease parses an os-release(5) file into a map. Values are
// unquoted; malformed lines are skipped.
func readOSRelease(path string) map[string]string {
	file, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		if unquoted, err := strconv.Unquote(value); err == nil {
			value = unquoted
		} else {
			value = strings.Trim(value, `'"`)
		}
		values[key] = value
	}
	return values
}
