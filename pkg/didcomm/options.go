/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didcomm provides the module-level facade: an Engine built from
// functional Options that bundles a crypto.Registry and default algorithm
// choices, so callers don't have to thread a *crypto.Registry through every
// envelope call themselves. This mirrors the teacher's pkg/framework/aries
// Option pattern, scaled down to this module's much smaller surface.
package didcomm

import (
	"github.com/dkuhnert/go-didcomm/pkg/common/log"
	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/envelope"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/message"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

const loggerModule = "go-didcomm/didcomm/envelope"

// Engine bundles the algorithm registry and default algorithm choices an
// application wires once at startup.
type Engine struct {
	registry      *crypto.Registry
	logLevel      log.Level
	defaultEncAlg jose.EncAlg
	defaultSigAlg jose.SigAlg
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithRegistry overrides the default algorithm registry (e.g. to swap in a
// Cypher/Signer backed by an HSM or remote KMS).
func WithRegistry(registry *crypto.Registry) Option {
	return func(e *Engine) { e.registry = registry }
}

// WithLogLevel sets this module's log verbosity.
func WithLogLevel(level log.Level) Option {
	return func(e *Engine) { e.logLevel = level }
}

// WithDefaultEncAlg sets the content-encryption algorithm DefaultEncAlg
// reports. The Engine does not apply it itself: AsJWE always takes the
// algorithm as an argument.
func WithDefaultEncAlg(alg jose.EncAlg) Option {
	return func(e *Engine) { e.defaultEncAlg = alg }
}

// WithDefaultSigAlg sets the default JWS signature algorithm.
func WithDefaultSigAlg(alg jose.SigAlg) Option {
	return func(e *Engine) { e.defaultSigAlg = alg }
}

// New builds an Engine. Without options it uses the default registry
// (every enumerated algorithm in pkg/doc/jose), XC20P, and EdDSA.
func New(opts ...Option) *Engine {
	e := &Engine{
		registry:      crypto.NewDefaultRegistry(),
		logLevel:      log.INFO,
		defaultEncAlg: jose.XC20P,
		defaultSigAlg: jose.EdDSA,
	}

	for _, opt := range opts {
		opt(e)
	}

	log.SetLevel(loggerModule, e.logLevel)

	return e
}

// Registry returns the algorithm registry this Engine was built with.
func (e *Engine) Registry() *crypto.Registry { return e.registry }

// DefaultEncAlg returns the configured default content-encryption algorithm.
func (e *Engine) DefaultEncAlg() jose.EncAlg { return e.defaultEncAlg }

// DefaultSigAlg returns the configured default signature algorithm.
func (e *Engine) DefaultSigAlg() jose.SigAlg { return e.defaultSigAlg }

// Seal delegates to envelope.Seal using this Engine's registry.
func (e *Engine) Seal(msg *message.Message, recipients []envelope.Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	return envelope.Seal(msg, e.registry, recipients, senderStatic)
}

// SealCompact delegates to envelope.SealCompact using this Engine's registry.
func (e *Engine) SealCompact(msg *message.Message, recipient envelope.Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	return envelope.SealCompact(msg, e.registry, recipient, senderStatic)
}

// SealSigned delegates to envelope.SealSigned using this Engine's registry.
func (e *Engine) SealSigned(msg *message.Message, sigAlg jose.SigAlg, signers []envelope.Signer, recipients []envelope.Recipient, senderStatic *keyagreement.PrivateKey) (string, error) {
	return envelope.SealSigned(msg, e.registry, sigAlg, signers, recipients, senderStatic)
}

// RoutedBy delegates to envelope.RoutedBy using this Engine's registry.
func (e *Engine) RoutedBy(msg *message.Message, finalRecipients []envelope.Recipient, finalDID string, senderStatic *keyagreement.PrivateKey, mediators []envelope.Mediator) (*message.Message, error) {
	return envelope.RoutedBy(msg, e.registry, finalRecipients, finalDID, senderStatic, mediators)
}

// Receive delegates to envelope.Receive using this Engine's registry.
func (e *Engine) Receive(data string, opts envelope.ReceiveOptions) (*message.Message, error) {
	return envelope.Receive(data, e.registry, opts)
}
