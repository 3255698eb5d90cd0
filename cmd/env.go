package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"sort"

	"github.com/joho/godotenv"

	"github.com/santacall/internal/config"
)

// ConfigCheckResult holds the result of configuration validation
type ConfigCheckResult struct {
	Missing  []string          // Credentials that are missing
	Present  map[string]string // Settings that are set (secrets masked)
	Warnings []string          // Non-fatal warnings
}

// CheckRequiredConfig reports which provider credentials are set. Missing
// credentials do not stop the server; start-call answers 503 until they are
// provided.
func CheckRequiredConfig(cfg *config.Config) *ConfigCheckResult {
	result := &ConfigCheckResult{
		Missing:  []string{},
		Present:  make(map[string]string),
		Warnings: []string{},
	}

	if cfg.Provider.APIKey == "" {
		result.Missing = append(result.Missing, config.EnvAPIKey)
	} else {
		result.Present[config.EnvAPIKey] = maskSecret(cfg.Provider.APIKey)
	}
	if cfg.Provider.PersonaID == "" {
		result.Missing = append(result.Missing, config.EnvPersonaID)
	} else {
		result.Present[config.EnvPersonaID] = cfg.Provider.PersonaID
	}

	result.Present["arcs.path"] = cfg.Arcs.Path
	if cfg.File != "" {
		result.Present["config file"] = cfg.File
	}

	if cfg.Provider.EnableRecording {
		result.Warnings = append(result.Warnings, "call recording is enabled")
	}
	if !cfg.Health.ProbeProvider {
		result.Warnings = append(result.Warnings, "provider reachability probe is disabled")
	}
	for _, origin := range cfg.Server.CORSOrigins {
		if origin == "*" {
			result.Warnings = append(result.Warnings, "CORS allows every origin")
			break
		}
	}

	return result
}

// PrintConfigCheck prints the configuration check results
func PrintConfigCheck(w io.Writer, result *ConfigCheckResult) {
	fmt.Fprintln(w, "=== Configuration Check ===")

	if len(result.Missing) > 0 {
		fmt.Fprintln(w, "❌ Missing credentials (start-call disabled):")
		for _, v := range result.Missing {
			fmt.Fprintf(w, "   - %s\n", v)
		}
		fmt.Fprintln(w, "")
	}

	if len(result.Present) > 0 {
		keys := make([]string, 0, len(result.Present))
		for k := range result.Present {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprintln(w, "✓ Configured:")
		for _, k := range keys {
			fmt.Fprintf(w, "   - %s = %s\n", k, result.Present[k])
		}
		fmt.Fprintln(w, "")
	}

	for _, warning := range result.Warnings {
		fmt.Fprintf(w, "⚠ Warning: %s\n", warning)
	}

	if len(result.Missing) == 0 {
		fmt.Fprintln(w, "✓ All required configuration is present")
	}

	fmt.Fprintln(w, "============================")
}

// maskSecret masks a secret value for display, showing only first and last 2 chars
func maskSecret(value string) string {
	if len(value) <= 8 {
		return "****"
	}
	return value[:2] + "****" + value[len(value)-2:]
}

// LoadEnvFile loads environment variables from a file, overwriting existing
// ones. A missing file is ignored unless required is set.
func LoadEnvFile(filename string, required bool) error {
	if filename == "" {
		return nil
	}
	if err := godotenv.Overload(filename); err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", filename, err)
	}
	return nil
}
