// Package config loads the host daemon configuration from a YAML file.
// Every field has a default matching the device firmware, so an empty or
// missing file yields a working configuration.
package config
