// Package control
// Author: momentics <momentics@gmail.com>
//
// Configuration and runtime telemetry for pollws programs.
//
// Provides:
//   - Config loaded from YAML files and POLLWS_* environment variables
//   - Mapping of Config onto connection options
//   - Prometheus metrics implementing the connection observer contract
package control
