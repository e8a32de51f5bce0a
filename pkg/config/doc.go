// Package config loads and validates the caplc toolchain configuration.
//
// Configuration comes from a YAML file, with defaults applied to unset
// fields and optional environment variable overrides in the form
// CAPL_SECTION_FIELD. Validation reports every invalid field at once.
package config
