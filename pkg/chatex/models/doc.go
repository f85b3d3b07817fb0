// Package models holds the JSON payloads exchanged with the Chatex REST API
// and the filter/pagination values resource clients turn into query strings.
//
// Monetary amounts and rates are decimal strings exactly as the API sends
// them; the package never converts them to floating point.
package models
