// Package config loads and validates the appctl configuration and provides
// the file backed Storage used for run history.
//
// Configuration lives in a single directory, ~/.config/appctl by default or
// the directory given with --config-path:
//
//	~/.config/appctl/
//	├── config.yaml   # main configuration
//	├── fixture.yaml  # optional offline domain (backend.type: fixture)
//	└── runs/         # run history, when history.enabled is set
//
// A missing config.yaml is not an error; the defaults of GetDefaultConfig are
// used. A present file is decoded on top of the defaults, so every key is
// optional:
//
//	backend:
//	  type: remote
//	  url: https://dc.example.internal:8470
//	  timeout: 30s
//	  retries: 3
//	pipeline:
//	  skipConfirmation: false
//	  strict: false
//	  advisoryKinds: [mustHaveValidLicense]
//	prompt:
//	  mode: auto
//	history:
//	  enabled: true
//	logging:
//	  level: info
//	  format: text
//
// Validate reports every problem at once as ValidationErrors; kinds that
// always block (broken packages, incompatible versions, reachability) are
// rejected in pipeline.advisoryKinds.
package config
