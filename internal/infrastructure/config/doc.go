// Package config handles loading and validating the XG parameter service
// configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with XGPARAM_* environment variables
//   - Validation of required fields, reporting every problem at once
//   - Default value handling
//
// Security Considerations:
//   - Sensitive values (MQTT password, InfluxDB token) should be set via
//     environment variables
//   - The API binds to loopback by default; it has no authentication
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Device.Name)
package config
