// Package config handles loading and validating Holocron configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// Configuration is loaded once at startup; there is no runtime reload.
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.API.Port)
package config
