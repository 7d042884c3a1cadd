// Package commands defines the seed-estimator CLI.
//
// Commands
//
//   - serve      Run the web front end (open or secure variant)
//   - estimate   Measure one image and print the area and seed amount
//   - user add   Create an account for the secure front end
//   - version    Print build information
//
// The root command loads the configuration (defaults, then --config, then
// SEED_ESTIMATOR_* variables) and sets up logging before any subcommand runs.
package commands
