// Package config provides centralized configuration management for pricewatch.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in increasing order of
// precedence:
//
//	1. Default values (Default)
//	2. A YAML file (--config, or pricewatch.yaml / config.yaml in the working directory)
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern PRICEWATCH_<SECTION>_<FIELD>:
//
//	PRICEWATCH_PATHS_DATA_DIR=/srv/prices
//	PRICEWATCH_IMPUTATION_MAD_MULTIPLIER=3
//	PRICEWATCH_FORECAST_HORIZON=90
//	PRICEWATCH_MERGE_REFERENCE_YEAR=2025
//	PRICEWATCH_PIPELINE_WORKERS=4
//
// # Paths
//
// Relative entries of PathsConfig are resolved against the data directory by
// PathsConfig.Resolve. Output directories are created by Paths.EnsureDirectories.
package config
