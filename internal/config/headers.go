// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

const customHeaderPrefix = "CUSTOM_HEADER_"

// parseCustomHeader parses a single header definition of the form
// "name|value[|user_agent_regex]".
func parseCustomHeader(raw string) (CustomHeader, error) {
	parts := strings.SplitN(raw, "|", 3)
	if len(parts) < 2 {
		return CustomHeader{}, fmt.Errorf("%w: %q", ErrInvalidCustomHeader, raw)
	}

	header := CustomHeader{
		Name:  strings.TrimSpace(parts[0]),
		Value: strings.TrimSpace(parts[1]),
	}
	if header.Name == "" || header.Value == "" {
		return CustomHeader{}, fmt.Errorf("%w: empty name or value in %q", ErrInvalidCustomHeader, raw)
	}

	if len(parts) == 3 {
		pattern := strings.TrimSpace(parts[2])
		if pattern != "" {
			re, err := regexp.Compile(pattern)
			if err != nil {
				return CustomHeader{}, fmt.Errorf("%w: bad user-agent regex %q: %w", ErrInvalidCustomHeader, pattern, err)
			}
			header.UserAgentRegex = re
		}
	}

	return header, nil
}

// parseCustomHeadersFromEnv collects every CUSTOM_HEADER_* environment
// variable. Malformed definitions are dropped rather than failing startup:
// a broken optional header must not take the whole service down.
func parseCustomHeadersFromEnv() []CustomHeader {
	var headers []CustomHeader

	for _, kv := range os.Environ() {
		key, value, found := strings.Cut(kv, "=")
		if !found || !strings.HasPrefix(key, customHeaderPrefix) {
			continue
		}

		header, err := parseCustomHeader(value)
		if err != nil {
			continue
		}

		headers = append(headers, header)
	}

	return headers
}
