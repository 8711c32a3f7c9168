// Package runconfig loads a complete analysis run from a YAML file:
// which life-cycle topology to use, where the covariate series lives,
// the fitted coefficient set of every vital rate, and the options for
// the sensitivity engine and projections.
//
// Load parses and validates; Build turns the validated configuration
// into live objects (models, topology, series, engine options) ready to
// hand to the sensitivity or simulate packages. Validation is strict at
// load time: an unknown topology id, an unknown link name, or a rate
// the topology needs but the file does not define all fail before any
// computation starts.
package runconfig
