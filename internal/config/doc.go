// Package config holds the options of an audit run and loads them from
// the optional .a11yaudit YAML file.
//
// Precedence, lowest first: built-in defaults, the config file, flags set
// on the command line.
package config
