// Package localserver opens the Unix domain socket that local clients use
// to reach vedis without going through TCP.
//
// Access is controlled by file system permissions on the socket file, so
// the socket is chmod'ed before the first Accept. A stale socket left by a
// crashed process is removed; a socket another process still listens on
// is left alone and reported as in use.
package localserver
