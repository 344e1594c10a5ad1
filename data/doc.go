/*
Package data contains the value types used throughout Power Mon: raw power
samples, aggregation windows, finalized window summaries, and the readings
that get published for consumers.
*/
package data
