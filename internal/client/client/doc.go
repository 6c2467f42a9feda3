// Package client talks to the viewer server on behalf of the command-line
// client.
//
// # Overview
//
// GRPCClient calls the catalog service over gRPC for everything structured
// (organizations, devices, sessions, metadata, notes, transcription) and
// downloads media bytes through the server's HTTP relay. It satisfies the
// viewer.Catalog and viewer.MediaSource interfaces so the auto-refreshing
// browser and the session view can run against a live server.
//
// # Error Handling
//
// gRPC status codes are mapped back onto the sentinel errors of package
// common (ErrorNotFound, ErrorValidation, ErrorTransport, ErrorInternal);
// callers match them with errors.Is. Relay responses are mapped the same way
// from their HTTP status.
package client
