// Package config loads settings of the optimizer and the analyzer from YAML.
//
// Some settings can be overridden with environment variables:
//
//	VARTRACE_FORWARDING  forwarding of constants, boolean
//	VARTRACE_MAX_SWEEPS  sweep limit per unit
//	VARTRACE_WORKERS     units optimized concurrently
package config
