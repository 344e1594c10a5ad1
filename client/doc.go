/*
Package client contains the Power Mon clients and the utilities they use to
talk to NATS.

A client is a Run/Stop pair that owns one select loop. The power average
client maintains the current 15-minute measurement window and publishes a
live average. The completed window client holds the most recently finalized
window summary and republishes it as a stable reading. The remaining clients
(influx, signal generator, metrics) are supporting infrastructure around
those two.
*/
package client
