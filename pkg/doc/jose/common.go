/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package jose defines the JOSE/DIDComm header algebra and the JWE/JWS wire
// types shared by the packing and unpacking pipelines.
package jose

// IANA registered JOSE headers (https://tools.ietf.org/html/rfc7515#section-4.1),
// restricted to the subset this engine reads or writes.
const (
	// HeaderAlgorithm is the JWE key-management / JWS signature algorithm.
	HeaderAlgorithm = "alg"
	// HeaderEncryption is the JWE content-encryption algorithm.
	HeaderEncryption = "enc"
	// HeaderKeyID references the recipient (JWE) or signer (JWS) key.
	HeaderKeyID = "kid"
	// HeaderSenderKeyID references the sender key used in ECDH-1PU key agreement.
	HeaderSenderKeyID = "skid"
	// HeaderType declares the media type of the complete envelope.
	HeaderType = "typ"
	// HeaderContentType declares the media type of the secured content (JWS payload / JWE plaintext).
	HeaderContentType = "cty"
	// HeaderEPK carries the ephemeral public key used for JWE key agreement.
	HeaderEPK = "epk"
	// HeaderAPU carries PartyUInfo (sender) for Concat-KDF.
	HeaderAPU = "apu"
	// HeaderAPV carries PartyVInfo (recipient) for Concat-KDF.
	HeaderAPV = "apv"
)

// ReservedHeaders is the set of JOSE header names application code can never
// write through the DIDComm `other` header map (spec invariant: application
// headers never overwrite JOSE header names).
var ReservedHeaders = map[string]bool{
	HeaderAlgorithm:   true,
	HeaderEncryption:  true,
	HeaderKeyID:       true,
	HeaderSenderKeyID: true,
	HeaderType:        true,
	HeaderContentType: true,
	HeaderEPK:         true,
	HeaderAPU:         true,
	HeaderAPV:         true,
}

// Media types used on the wire, mirroring spec.md §3.
const (
	MediaTypePlaintext = "application/didcomm-plain+json"
	MediaTypeSigned    = "application/didcomm-signed+json"
	MediaTypeEncrypted = "application/didcomm-encrypted+json"
)

// EncAlg identifies a JWE content-encryption algorithm.
type EncAlg string

// Enumerated content-encryption algorithms (spec.md §4.2 / §6).
const (
	XC20P         EncAlg = "XC20P"
	A256GCM       EncAlg = "A256GCM"
	A256CBCHS512  EncAlg = "A256CBC-HS512"
)

// KWAlg identifies a JWE key-management (key-wrap / key-agreement) algorithm.
type KWAlg string

// Enumerated key-management algorithms (spec.md §6).
const (
	ECDHESA256KW  KWAlg = "ECDH-ES+A256KW"
	ECDH1PUA256KW KWAlg = "ECDH-1PU+A256KW"
	// ECDHESDirect is used only for anonymous single-recipient encryption
	// where the CEK is the ECDH-ES output directly (no AES-KW wrap step).
	ECDHESDirect KWAlg = "ECDH-ES"
)

// SigAlg identifies a JWS signature algorithm.
type SigAlg string

// Enumerated signature algorithms (spec.md §4.2 / §6).
const (
	EdDSA  SigAlg = "EdDSA"
	ES256  SigAlg = "ES256"
	ES256K SigAlg = "ES256K"
)

// AlgInfo describes the static properties of a content-encryption algorithm.
type AlgInfo struct {
	KeyLength   int
	NonceLength int
	TagLength   int
	AEAD        bool
	KeyWrap     KWAlg
}

// EncAlgorithms is the algorithm registry for content encryption (spec.md §4.2).
var EncAlgorithms = map[EncAlg]AlgInfo{
	XC20P:        {KeyLength: 32, NonceLength: 24, TagLength: 16, AEAD: true, KeyWrap: ECDHESA256KW},
	A256GCM:      {KeyLength: 32, NonceLength: 12, TagLength: 16, AEAD: true, KeyWrap: ECDHESA256KW},
	A256CBCHS512: {KeyLength: 64, NonceLength: 16, TagLength: 32, AEAD: false, KeyWrap: ECDHESA256KW},
}

// SigAlgorithms is the algorithm registry for signing (spec.md §4.2).
var SigAlgorithms = map[SigAlg]struct{ KeyLength int }{
	EdDSA:  {KeyLength: 32},
	ES256:  {KeyLength: 32},
	ES256K: {KeyLength: 32},
}

// Headers represents a JOSE header map (the "protected" or per-recipient
// header region of a JWE/JWS). It is distinct from the DIDComm header: this
// type statically prevents application code from reaching into JOSE-only
// fields by accident (spec invariant 5 / design note in spec.md §9).
type Headers map[string]interface{}

// Clone returns a shallow copy of h.
func (h Headers) Clone() Headers {
	c := make(Headers, len(h))
	for k, v := range h {
		c[k] = v
	}

	return c
}

func (h Headers) stringValue(key string) (string, bool) {
	raw, ok := h[key]
	if !ok {
		return "", false
	}

	s, ok := raw.(string)

	return s, ok
}

// KeyID returns the "kid" header value.
func (h Headers) KeyID() (string, bool) { return h.stringValue(HeaderKeyID) }

// SenderKeyID returns the "skid" header value.
func (h Headers) SenderKeyID() (string, bool) { return h.stringValue(HeaderSenderKeyID) }

// Algorithm returns the "alg" header value.
func (h Headers) Algorithm() (string, bool) { return h.stringValue(HeaderAlgorithm) }

// Encryption returns the "enc" header value.
func (h Headers) Encryption() (string, bool) { return h.stringValue(HeaderEncryption) }

// Type returns the "typ" header value.
func (h Headers) Type() (string, bool) { return h.stringValue(HeaderType) }

// ContentType returns the "cty" header value.
func (h Headers) ContentType() (string, bool) { return h.stringValue(HeaderContentType) }
