// Package config provides configuration loading for the Chatex CLI.
//
// Values are resolved in the following order, later sources winning:
//
//  1. Built-in defaults (LoadDefaults)
//  2. Environment variables, optionally read from a .env file
//  3. A JSON file given with -c or -config
//  4. Command-line flags
package config
