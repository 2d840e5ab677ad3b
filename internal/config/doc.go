// Package config provides configuration management for the lpmarket
// client.
//
// Settings live in a JSON file under the user config dir. Loading a
// missing file is not an error and yields defaults:
//
//	settings, err := config.Load(config.DefaultPath())
//
// The defaults point at a backend on localhost:8000 and keep the
// persisted session next to the settings file.
package config
