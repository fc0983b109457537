// Package config provides configuration parsing for rover.
//
// The configuration is stored in rover.yaml. Every key is optional; missing
// keys take the defaults from New.
//
// # Configuration File Structure
//
//	log:
//	  level: info        # debug, info, warn, error
//	  format: text       # text or json
//	runtime:
//	  maxEffectRuns: 10000
//	  debug: false
//	metrics:
//	  enabled: true
//	  namespace: rover
//	devtools:
//	  enabled: false
//	  addr: localhost:7777
//	persist:
//	  path: rover.db
//	  snapshot: default
//	  keep: 10
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	logger, err := cfg.NewLogger(os.Stderr)
package config
