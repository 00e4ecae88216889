// Package model holds the provider-agnostic pieces of text completion: model
// metadata and a scripted MockModel for tests and offline runs.
//
// Providers (model/openai, model/anthropic) implement core.Completer so the
// turn engine stays decoupled from vendor SDKs.
package model
