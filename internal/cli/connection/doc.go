// Package connection provides the RESP client used by vedis-cli.
//
// Client speaks RESP2 over TCP: each call writes one request as an array
// of bulk strings and reads exactly one reply. Error replies from the
// server are returned as replies, not Go errors; a Go error means the
// connection itself failed.
package connection
