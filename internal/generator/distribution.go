package generator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// weightedValue is one entry of a weighted distribution.
type weightedValue struct {
	value  string
	weight int
}

// ParseDistribution parses "KEY:PERCENT,..." into weighted values sorted by
// key. Percentages must be 0-100 and sum to 100.
func ParseDistribution(distStr string) ([]weightedValue, error) {
	if strings.TrimSpace(distStr) == "" {
		return nil, fmt.Errorf("distribution string cannot be empty")
	}

	seen := make(map[string]bool)
	var result []weightedValue
	total := 0
	for _, part := range strings.Split(distStr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		key, percentStr, ok := strings.Cut(part, ":")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid distribution format: %s (expected KEY:PERCENT)", part)
		}
		if seen[key] {
			return nil, fmt.Errorf("duplicate key %s in distribution", key)
		}
		seen[key] = true

		percent, err := strconv.Atoi(strings.TrimSpace(percentStr))
		if err != nil {
			return nil, fmt.Errorf("invalid percentage in %s: %w", part, err)
		}
		if percent < 0 || percent > 100 {
			return nil, fmt.Errorf("percentage must be 0-100, got %d in %s", percent, part)
		}

		result = append(result, weightedValue{value: key, weight: percent})
		total += percent
	}

	if total != 100 {
		return nil, fmt.Errorf("distribution percentages must sum to 100, got %d", total)
	}

	// Map-free and sorted so a seeded generator is reproducible.
	sort.Slice(result, func(i, j int) bool { return result[i].value < result[j].value })
	return result, nil
}
