package config

import "strings"

// MaskedValue replaces sensitive values in user-facing output.
const MaskedValue = "**********"

var sensitiveMarkers = []string{"TOKEN", "SECRET", "PASSWORD", "KEY"}

// IsSensitive reports whether an environment variable name looks like it
// holds a credential.
func IsSensitive(name string) bool {
	upper := strings.ToUpper(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// MaskEnv returns a copy of env with sensitive non-empty values masked.
func MaskEnv(env map[string]string) map[string]string {
	if len(env) == 0 {
		return nil
	}
	masked := make(map[string]string, len(env))
	for key, value := range env {
		if IsSensitive(key) && strings.TrimSpace(value) != "" {
			masked[key] = MaskedValue
			continue
		}
		masked[key] = value
	}
	return masked
}
