// Package tlsroots builds TLS configurations for the RESP listener and
// for vedis-cli.
//
//   - roots.go: CA pool loading and server/client tls.Config builders
//   - watcher.go: KeyPair, a certificate that reloads itself via fsnotify
//
// The server certificate is served through tls.Config.GetCertificate, so a
// renewed certificate is picked up without restarting the listener.
package tlsroots
