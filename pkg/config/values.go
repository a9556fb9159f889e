package config

import (
	"fmt"
	"time"
)

// Values decoded from JSON arrive as bool, float64, string or []interface{};
// values set in code may also be int, int64 or time.Duration.

func asBool(key string, value interface{}) (bool, error) {
	if b, ok := value.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("invalid value type for %s: expected bool, got %T", key, value)
}

func asString(key string, value interface{}) (string, error) {
	if s, ok := value.(string); ok {
		return s, nil
	}
	return "", fmt.Errorf("invalid value type for %s: expected string, got %T", key, value)
}

func asInt(key string, value interface{}) (int, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int64:
		return int(v), nil
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("invalid value for %s: %v is not an integer", key, v)
		}
		return int(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected integer, got %T", key, value)
	}
}

// asDuration accepts duration strings ("2s") and raw nanosecond counts.
func asDuration(key string, value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid duration string for %s: %w", key, err)
		}
		return d, nil
	case time.Duration:
		return v, nil
	case float64:
		return time.Duration(v), nil
	case int:
		return time.Duration(v), nil
	case int64:
		return time.Duration(v), nil
	default:
		return 0, fmt.Errorf("invalid value type for %s: expected string or number, got %T", key, value)
	}
}

func asStrings(key string, value interface{}) ([]string, error) {
	switch v := value.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("invalid value type for %s[%d]: expected string, got %T", key, i, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("invalid value type for %s: expected list of strings, got %T", key, value)
	}
}

func stringsToData(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
