// Package config loads tiacalc configuration from an optional YAML file and
// the environment.
//
// Sections:
//   - server: http_port (8080), metrics_port (9090, 0 disables),
//     worksheet_ttl (30m), cors.allowed_origins (["*"])
//   - log: level (info), format (json | text)
//   - policy: rating_floor, growth_floor, rating_weight, growth_weight, tiers
//
// Load(path) applies defaults, then the file, then TIACALC_* environment
// variables (a .env file in the working directory is read first), then
// validates. Watch re-runs Load whenever the file changes.
package config
