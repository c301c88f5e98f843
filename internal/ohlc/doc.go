// Package ohlc holds the output model: records, per-image results, and the
// helpers used to judge and compare them.
package ohlc
