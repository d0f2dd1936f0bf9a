// Package config loads kipbench settings from flags and JSON or YAML files.
package config

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Values decoded from config files arrive as whatever the JSON or YAML
// decoder produced. Strings are trimmed and an empty string means the zero
// value; other scalars go through cast.

func lookupSetting(settings map[string]any, candidates ...string) (any, bool) {
	for _, key := range candidates {
		if val, ok := settings[strings.ToLower(key)]; ok {
			return val, true
		}
	}
	return nil, false
}

func asString(value any) (string, error) {
	return cast.ToStringE(value)
}

func trimmed(value any) (string, bool) {
	s, ok := value.(string)
	return strings.TrimSpace(s), ok
}

func asInt(value any) (int, error) {
	n, err := asInt64(value)
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt || n < math.MinInt {
		return 0, fmt.Errorf("value %d overflows int", n)
	}
	return int(n), nil
}

// asInt64 accepts Go integer literal syntax in strings, so iteration counts
// can be written as "2_000_000".
func asInt64(value any) (int64, error) {
	if s, ok := trimmed(value); ok {
		if s == "" {
			return 0, nil
		}
		return strconv.ParseInt(s, 0, 64)
	}
	if u, ok := value.(uint64); ok && u > math.MaxInt64 {
		return 0, fmt.Errorf("value %d overflows int64", u)
	}
	return cast.ToInt64E(value)
}

func asFloat64(value any) (float64, error) {
	if s, ok := trimmed(value); ok {
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return cast.ToFloat64E(value)
}

func asBool(value any) (bool, error) {
	if s, ok := trimmed(value); ok {
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	}
	return cast.ToBoolE(value)
}

// asDuration parses duration strings ("150ms"). Bare numbers are seconds.
func asDuration(value any) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		v = strings.TrimSpace(v)
		if v == "" {
			return 0, nil
		}
		return time.ParseDuration(v)
	}
	secs, err := cast.ToFloat64E(value)
	if err != nil {
		return 0, fmt.Errorf("unsupported duration type %T", value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// asStringSlice accepts a list or a single string. A single string is one
// element, even if it contains spaces.
func asStringSlice(value any) ([]string, error) {
	if s, ok := trimmed(value); ok {
		if s == "" {
			return nil, nil
		}
		return []string{value.(string)}, nil
	}
	if value == nil {
		return nil, nil
	}
	return cast.ToStringSliceE(value)
}

// toStringKeyMap returns a nested section with lower-cased keys.
func toStringKeyMap(value any) (map[string]any, error) {
	m, err := cast.ToStringMapE(value)
	if err != nil {
		return nil, fmt.Errorf("expected map, got %T", value)
	}
	result := make(map[string]any, len(m))
	for key, val := range m {
		result[strings.ToLower(strings.TrimSpace(key))] = val
	}
	return result, nil
}
