// Package mapping turns pixel-space candles into priced OHLC records.
package mapping
