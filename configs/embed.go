// Package configs provides embedded configuration templates for droidgate.
//
// How Configuration Templates Work:
//
// Templates are embedded at build time using Go's //go:embed directive.
// This ensures they are available in ALL distributions:
//   - Source builds (go install)
//   - Binary releases
//   - Homebrew installations
//
// The templates are used by:
//   - cmd/droidgate/cmd/init.go - creates .droidgate.yaml in the project root
//   - cmd/droidgate/cmd/config.go - creates user config at ~/.config/droidgate/config.yaml
//
// Template files:
//   - project-config.example.yaml: Project-specific settings (target API, arch, NDK API)
//   - user-config.example.yaml: Machine-specific settings (NDK install dir, history, logging)
//
// Configuration Hierarchy (see internal/config/config.go Load()):
//   1. Hardcoded defaults (internal/config/config.go NewConfig())
//   2. User config (~/.config/droidgate/config.yaml)
//   3. Project config (.droidgate.yaml)
//   4. Environment variables (ANDROIDNDK, ANDROIDAPI, NDKAPI, DROIDGATE_*)
//
// To modify templates, edit the .yaml files in this directory and rebuild.
// Changes will be embedded in the next build.
package configs

import _ "embed"

// UserConfigTemplate is the template for user/machine-level configuration.
// Created by: `droidgate config init` at ~/.config/droidgate/config.yaml
// Contains: Machine-specific settings like the NDK install directory,
// run history, and logging.
// Use case: Settings that apply to all projects on this machine.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string

// ProjectConfigTemplate is the template for project-level configuration.
// Created by: `droidgate init` at .droidgate.yaml in the project root
// Contains: Project-specific settings like the target Android API, the
// architecture to build for, and the NDK API the sources compile against.
// Use case: Settings that are version-controlled with the project.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
