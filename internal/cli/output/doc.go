// Package output provides output formatting for vedis-cli.
//
// This package renders server replies and other values:
//
//   - formatter.go: Formatter interface, factory and reply conversion
//   - raw.go: redis-cli style text
//   - json.go: JSON output formatting
//   - yaml.go: YAML output formatting (go.yaml.in/yaml/v3)
//
// JSON and YAML render a reply as plain data: strings, integers, null,
// lists, and {"error": "..."} for error replies.
package output
