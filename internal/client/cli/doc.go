// Package cli is the recviewer command tree.
//
// Commands browse the bucket hierarchy (orgs, devices, sessions, calendar,
// show), edit per-session metadata and notes (meta, notes), run and read
// transcriptions (transcribe, captions) and open a session locally (inspect,
// play, watch). All of them talk to the server through client.GRPCClient;
// media bytes come from the server's HTTP relay. download saves a session's
// files straight from the bucket through presigned URLs.
//
// Output is a table on a terminal and JSON otherwise, unless -o forces one.
package cli
