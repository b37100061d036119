// Package config defines the settings used by the alert binaries and provides
// helpers to load, validate and save them in YAML format.
//
// Load goes through viper so that ALERT_ environment variables override the file;
// Save writes plain YAML. Validate fills in the alarm cycle defaults.
package config
