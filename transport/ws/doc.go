// Package ws exposes turns over a websocket connection.
//
// Each connection carries JSON frames. A "turn" frame with an utterance (or
// base64 audio, when a Transcriber is configured) yields a "response" frame
// with the text, optional base64 audio and the terminal status. A
// "feedback" frame yields an "ack". Frames on one connection are processed
// in order; separate connections run concurrently.
//
// AudioHandler serves the clips a turn synthesized over plain HTTP, keyed
// by session and turn id.
package ws
