// Package export writes recognition results to files and databases.
//
// Every sink represents a Result without loss except the TradingView CSV,
// which carries prices only and skips records whose date label is not a
// full date. Floats are written with the shortest representation that
// round-trips, so 166.67 stays 166.67.
//
// Formats:
//   - json: an indented array of results (results.json)
//   - csv: one row per record, one row for an image with none (results.csv)
//   - tradingview: time,open,high,low,close,volume per image (<stem>_tradingview.csv)
//   - sqlite: runs, results and data_points tables (results.db)
package export
