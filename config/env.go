package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// ApplyEnv overrides cfg with MODALMCP_* variables. Empty values are ignored.
func ApplyEnv(cfg *Config, lookup LookupFunc) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(envPrefix + name)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get("HOST"); ok {
		cfg.Server.Host = v
	}
	if v, ok := get("PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: %sPORT: %w", envPrefix, err)
		}
		cfg.Server.Port = port
	}
	if v, ok := get("CORS_ORIGIN"); ok {
		cfg.Server.CORSOrigin = v
	}
	if v, ok := get("MAX_BODY"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("config: %sMAX_BODY: %w", envPrefix, err)
		}
		cfg.Server.MaxBody = n
	}
	if v, ok := get("MODAL_BIN"); ok {
		cfg.Modal.Binary = v
	}
	if v, ok := get("CATALOG"); ok {
		cfg.Modal.Catalog = v
	}
	if v, ok := get("LAUNCH_WINDOW"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sLAUNCH_WINDOW: %w", envPrefix, err)
		}
		cfg.Modal.LaunchWindow = Duration{d}
	}
	if v, ok := get("DEPLOY_WITH_UV"); ok {
		cfg.Modal.DeployWithUV = parseBool(v)
	}
	if v, ok := get("JOURNAL"); ok {
		cfg.Journal.Enabled = true
		cfg.Journal.Path = v
	}
	if v, ok := get("JOURNAL_RETENTION"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %sJOURNAL_RETENTION: %w", envPrefix, err)
		}
		cfg.Journal.Retention = Duration{d}
	}
	if v, ok := get("OTLP_ENDPOINT"); ok {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v, ok := get("LOG_LEVEL"); ok {
		cfg.Log.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		cfg.Log.Format = v
	}
	return nil
}

func parseBool(v string) bool {
	return v == "1" || strings.EqualFold(v, "true") || strings.EqualFold(v, "yes")
}
