// Package config loads a namespace fixture from YAML.
//
// Fields:
//   - Log.Level      — debug|info|warn|error (default: DEBUG=1 selects debug, else info)
//   - Log.Buffer     — ring-buffer capacity of the logger (default 1000)
//   - LegacyJSONKeys — decode keys named "json" or "*-json" as JSON on Get
//   - Seed           — records placed in the namespace before first use
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
