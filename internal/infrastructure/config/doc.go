// Package config handles loading and validating the HAP host settings.
//
// Host settings decide how the engine process runs: its name, where module
// configuration files live, the tick interval and which modules to start.
// Module behaviour itself is configured per section in the engine's INI file
// (see package ini); this package only covers the process around it.
//
// This package manages:
//   - Loading settings from a YAML file
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// It also defines the connection settings structs shared by the
// infrastructure clients (MQTT, InfluxDB), which modules fill from their
// INI sections.
//
// Usage:
//
//	cfg, err := config.LoadOrDefault("configs/hap.yaml")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(cfg.Engine.Name)
package config
