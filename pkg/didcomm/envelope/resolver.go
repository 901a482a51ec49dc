/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import "github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"

// Resolver looks up key material for a DID or kid when Receive isn't given
// it directly, mirroring spec.md §6's `resolve(did) -> {encryption_key,
// signing_key}` callback. It is consulted only for the fields ReceiveOptions
// leaves unset; an explicit RecipientPriv/SenderPub/Verifiers always wins.
type Resolver interface {
	// ResolveEncryptionKey returns the local recipient private key associated
	// with kid, for decrypting a JWE whose caller didn't pass RecipientPriv.
	ResolveEncryptionKey(kid string) (*keyagreement.PrivateKey, bool)
	// ResolveSenderKey returns the sender's static public key for kid, used
	// for ECDH-1PU when the caller didn't pass SenderPub.
	ResolveSenderKey(kid string) (*keyagreement.PublicKey, bool)
	// ResolveVerifier returns a verification key for kid, used for JWS
	// verification when the caller didn't pass Verifiers.
	ResolveVerifier(kid string) (Verifier, bool)
}
