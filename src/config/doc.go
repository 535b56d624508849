// Package config defines the configuration of a synapse process.
//
// Regardless of how the effect is started, directly from Go code or as a
// standalone process from the command line, it uses the Config object defined
// in this package. Config carries two kinds of values: process options
// (timings, addresses, storage) and the attributes of the effect itself (color,
// nodes, speed-scale, tracer-scale). Attributes keep the raw string form they
// have in markup and are validated by ParseAttributes, which never fails:
// invalid values are logged as warnings and replaced by defaults.
//
// The data directory, Config.DataDir, may contain:
//
//  synapse.toml // (optional) configuration file, .yaml and .json also work.
//  .env         // (optional) SYNAPSE_* environment variables.
//  badger_db    // (optional) history database when --store is set.
package config
