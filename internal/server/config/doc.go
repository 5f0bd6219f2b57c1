// Package config defines the vftledger configuration.
//
//   - spec.go: Config struct definition
//   - default.go: default values
//   - verify.go: validation
//   - sanitize.go: log sanitization (hides the snapshot passphrase)
//   - convert.go: conversion into service, storage and logger settings
//
// Configuration is loaded via internal/infra/confloader and supports
// files, VFTLEDGER_ environment variables and command-line flags.
package config
