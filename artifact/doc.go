// Package artifact stores the audio clips synthesized for each turn so that
// transports can serve them after the turn has returned.
//
// The AudioStore interface lives in the core package; this package provides
// the in-memory implementation.
package artifact
