// Package config handles configuration loading for phantom-gateway.
//
// # Overview
//
// Configuration is loaded from an optional YAML file with environment
// variable expansion, overlaid by environment variables; environment wins.
// The file is optional because the common deployment is environment-only:
//
//	PHANTOMBUSTER_API_KEY  required
//	PHANTOMBUSTER_API_URL  optional, defaults to the public v2 API
//	PORT                   optional, defaults to 3000
package config
