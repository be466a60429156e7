// Package config handles loading and validating Acre Intrusion Core configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with ACRE_* environment variables
//   - Validation of required fields
//
// Security Considerations:
//   - Sensitive values (MQTT password, session secret) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The session secret guards the user-management menu and must be at least 32 characters
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Site.Name)
package config
