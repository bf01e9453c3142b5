package config

import (
	"os"
	"strconv"
)

// ValidationConfig carries the anti-duplication policy knobs. The IP threshold
// and the fail-open behavior are product decisions, not implementation
// details, so they stay configurable.
type ValidationConfig struct {
	// EmailThreshold entries with the same email are allowed before blocking
	EmailThreshold int `json:"email_threshold"`
	// IPThreshold entries from the same IP are allowed before blocking;
	// above 1 so shared-IP households and offices can still play
	IPThreshold int `json:"ip_threshold"`
	// DeviceThreshold entries with the same fingerprint are allowed before blocking
	DeviceThreshold int `json:"device_threshold"`
	// FailOpen treats a participant as allowed when the data store is
	// unreachable; losing a lead costs more than a duplicate entry
	FailOpen bool `json:"fail_open"`
}

// GetValidationConfig returns the validation policy, with env overrides
func GetValidationConfig() *ValidationConfig {
	cfg := &ValidationConfig{
		EmailThreshold:  1,
		IPThreshold:     3,
		DeviceThreshold: 1,
		FailOpen:        true,
	}

	if v := os.Getenv("VALIDATION_IP_THRESHOLD"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			cfg.IPThreshold = parsed
		}
	}
	if v := os.Getenv("VALIDATION_FAIL_OPEN"); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			cfg.FailOpen = parsed
		}
	}

	return cfg
}
