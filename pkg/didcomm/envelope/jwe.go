/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"encoding/base64"
	"encoding/json"

	tinkrandom "github.com/google/tink/go/subtle/random"

	"github.com/dkuhnert/go-didcomm/pkg/crypto"
	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

// PackJWEOptions configures one PackJWE call.
type PackJWEOptions struct {
	EncAlg       jose.EncAlg
	KWAlg        jose.KWAlg
	Recipients   []Recipient
	SenderStatic *keyagreement.PrivateKey // non-nil selects ECDH-1PU (authcrypt)
	SenderKID    string
	Typ          string
	CTY          string
}

// PackJWE encrypts plaintext into a JWE per spec.md §4.4/§4.7: one CEK per
// message, one ECDH+Concat-KDF+AES-KW wrap per recipient (or, for
// single-recipient ECDH-ES direct mode, the ECDH-ES output serves as the CEK
// with no separate wrap step).
func PackJWE(plaintext []byte, registry *crypto.Registry, opts PackJWEOptions) (*jose.JSONWebEncryption, error) {
	if len(opts.Recipients) == 0 {
		return nil, didcommerr.Newf(didcommerr.KindMalformedEnvelope, "envelope.PackJWE", "at least one recipient required")
	}

	isDirect := opts.KWAlg == jose.ECDHESDirect
	if isDirect && len(opts.Recipients) != 1 {
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.PackJWE", "%s requires exactly one recipient", opts.KWAlg)
	}

	if opts.SenderStatic != nil && isDirect {
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.PackJWE", "direct key agreement does not support sender authentication")
	}

	cypher, ok := registry.Cypher(opts.EncAlg)
	if !ok {
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.PackJWE", "no cypher registered for %s", opts.EncAlg)
	}

	algInfo, ok := jose.EncAlgorithms[opts.EncAlg]
	if !ok {
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.PackJWE", "unknown enc alg %s", opts.EncAlg)
	}

	protected := jose.Headers{
		jose.HeaderAlgorithm:  string(opts.KWAlg),
		jose.HeaderEncryption: string(opts.EncAlg),
	}

	if opts.Typ != "" {
		protected[jose.HeaderType] = opts.Typ
	}

	if opts.CTY != "" {
		protected[jose.HeaderContentType] = opts.CTY
	}

	if opts.SenderStatic != nil && opts.SenderKID != "" {
		protected[jose.HeaderSenderKeyID] = opts.SenderKID
	}

	jwe := &jose.JSONWebEncryption{ProtectedHeaders: protected}

	aad, err := jwe.AAD()
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.PackJWE", err)
	}

	var cek []byte

	recipientEntries := make([]jose.Recipient, len(opts.Recipients))

	for i, recipient := range opts.Recipients {
		epk, err := keyagreement.GenerateEphemeral(recipient.PublicKey.Curve)
		if err != nil {
			return nil, didcommerr.New(didcommerr.KindKeyAgreementFailed, "envelope.PackJWE", err)
		}

		apu := []byte(opts.SenderKID)
		apv := []byte(recipient.KID)

		entry, recipientCEK, err := wrapForRecipient(opts, algInfo, cypher, epk, recipient, apu, apv, cek)
		if err != nil {
			return nil, err
		}

		if i == 0 {
			cek = recipientCEK
		}

		recipientEntries[i] = entry
	}

	iv := tinkrandom.GetRandomBytes(uint32(algInfo.NonceLength))

	ciphertext, tag, err := cypher.Encrypt(plaintext, cek, iv, aad)
	if err != nil {
		return nil, didcommerr.New(didcommerr.KindInternal, "envelope.PackJWE", err)
	}

	jwe.Recipients = recipientEntries
	jwe.IV = string(iv)
	jwe.Ciphertext = string(ciphertext)
	jwe.Tag = string(tag)

	return jwe, nil
}

func wrapForRecipient(
	opts PackJWEOptions,
	algInfo jose.AlgInfo,
	cypher crypto.Cypher,
	epk *keyagreement.PrivateKey,
	recipient Recipient,
	apu, apv []byte,
	existingCEK []byte,
) (jose.Recipient, []byte, error) {
	epkJSON, err := epkJSON(epk.Public)
	if err != nil {
		return jose.Recipient{}, nil, didcommerr.New(didcommerr.KindInternal, "envelope.PackJWE", err)
	}

	header := &jose.RecipientHeaders{
		Alg: string(opts.KWAlg),
		KID: recipient.KID,
		EPK: epkJSON,
		APU: base64.RawURLEncoding.EncodeToString(apu),
		APV: base64.RawURLEncoding.EncodeToString(apv),
	}

	if opts.KWAlg == jose.ECDHESDirect {
		cek, err := keyagreement.DeriveDirectSender(string(opts.EncAlg), algInfo.KeyLength, apu, apv, epk, recipient.PublicKey)
		if err != nil {
			return jose.Recipient{}, nil, didcommerr.New(didcommerr.KindKeyAgreementFailed, "envelope.PackJWE", err)
		}

		return jose.Recipient{Header: header}, cek, nil
	}

	cek := existingCEK
	if cek == nil {
		cek, err = cypher.KeyGen()
		if err != nil {
			return jose.Recipient{}, nil, didcommerr.New(didcommerr.KindInternal, "envelope.PackJWE", err)
		}
	}

	var wrapped *keyagreement.RecipientWrappedKey

	if opts.SenderStatic != nil {
		wrapped, err = keyagreement.WrapKey1PU(cek, apu, apv, epk, opts.SenderStatic, recipient.PublicKey)
	} else {
		wrapped, err = keyagreement.WrapKeyES(cek, apu, apv, epk, recipient.PublicKey)
	}

	if err != nil {
		return jose.Recipient{}, nil, didcommerr.New(didcommerr.KindKeyAgreementFailed, "envelope.PackJWE", err)
	}

	return jose.Recipient{EncryptedKey: string(wrapped.EncryptedCEK), Header: header}, cek, nil
}

// UnpackJWEOptions configures one UnpackJWE call.
type UnpackJWEOptions struct {
	RecipientPriv *keyagreement.PrivateKey
	RecipientKID  string             // if empty, every recipient entry is tried
	SenderPub     *keyagreement.PublicKey // required for ECDH-1PU
}

// UnpackJWE decrypts jwe per spec.md §4.7/§4.9: resolve the matching
// recipient (by kid, or by trying each in turn), derive the CEK, and
// AEAD-decrypt. Returns the plaintext and the protected header.
func UnpackJWE(jwe *jose.JSONWebEncryption, registry *crypto.Registry, opts UnpackJWEOptions) ([]byte, jose.Headers, error) {
	encAlgName, ok := jwe.ProtectedHeaders.Encryption()
	if !ok {
		return nil, nil, didcommerr.Newf(didcommerr.KindMalformedEnvelope, "envelope.UnpackJWE", "missing enc header")
	}

	encAlg := jose.EncAlg(encAlgName)

	cypher, ok := registry.Cypher(encAlg)
	if !ok {
		return nil, nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.UnpackJWE", "no cypher registered for %s", encAlg)
	}

	algInfo, ok := jose.EncAlgorithms[encAlg]
	if !ok {
		return nil, nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.UnpackJWE", "unknown enc alg %s", encAlg)
	}

	algName, _ := jwe.ProtectedHeaders.Algorithm()
	kwAlg := jose.KWAlg(algName)

	candidates, err := resolveRecipientHeaders(jwe)
	if err != nil {
		return nil, nil, err
	}

	aad, err := jwe.AAD()
	if err != nil {
		return nil, nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.UnpackJWE", err)
	}

	iv := []byte(jwe.IV)
	ciphertext := []byte(jwe.Ciphertext)
	tag := []byte(jwe.Tag)

	var unwrapMatched bool

	for _, c := range candidates {
		if opts.RecipientKID != "" && c.header.KID != opts.RecipientKID {
			continue
		}

		cek, err := unwrapRecipient(kwAlg, algInfo, encAlg, c, opts)
		if err != nil {
			if kind, ok := didcommerr.Of(err); ok && kind == didcommerr.KindMissingEncryptionMetadata {
				return nil, nil, err
			}

			continue
		}

		// Direct key agreement derives a key from any private key on the
		// right curve, so there a derived key only counts as this
		// recipient's when the candidate's kid names the caller's key.
		if kwAlg != jose.ECDHESDirect ||
			(c.header.KID != "" && (opts.RecipientKID != "" || c.header.KID == opts.RecipientPriv.Public.KID)) {
			unwrapMatched = true
		}

		plaintext, err := cypher.Decrypt(ciphertext, cek, iv, aad, tag)
		if err != nil {
			continue
		}

		return plaintext, jwe.ProtectedHeaders, nil
	}

	// The CEK was recovered for a candidate identified as this recipient's
	// (AES-KW unwrap succeeded, or in direct mode the kid matched) but the
	// AEAD tag did not authenticate, meaning the ciphertext or tag was
	// tampered with — distinct from no candidate matching this recipient.
	if unwrapMatched {
		return nil, nil, didcommerr.Newf(didcommerr.KindDecryptionFailed, "envelope.UnpackJWE", "AEAD authentication failed")
	}

	return nil, nil, didcommerr.Newf(didcommerr.KindNoMatchingRecipient, "envelope.UnpackJWE", "no recipient matched the supplied key")
}

type resolvedRecipientHeader struct {
	header       jose.RecipientHeaders
	encryptedKey []byte
}

func resolveRecipientHeaders(jwe *jose.JSONWebEncryption) ([]resolvedRecipientHeader, error) {
	if len(jwe.Recipients) == 0 {
		return nil, didcommerr.Newf(didcommerr.KindMalformedEnvelope, "envelope.UnpackJWE", "no recipients")
	}

	out := make([]resolvedRecipientHeader, 0, len(jwe.Recipients))

	for _, r := range jwe.Recipients {
		header := r.Header
		if header == nil {
			// Compact serialization merges the sole recipient's fields into
			// the protected header (spec.md §4.1).
			merged := &jose.RecipientHeaders{}

			if v, ok := jwe.ProtectedHeaders.KeyID(); ok {
				merged.KID = v
			}

			if v, ok := jwe.ProtectedHeaders[jose.HeaderEPK]; ok {
				epkBytes, err := json.Marshal(v)
				if err != nil {
					return nil, didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.UnpackJWE", err)
				}

				merged.EPK = epkBytes
			}

			if v, ok := jwe.ProtectedHeaders[jose.HeaderAPU].(string); ok {
				merged.APU = v
			}

			if v, ok := jwe.ProtectedHeaders[jose.HeaderAPV].(string); ok {
				merged.APV = v
			}

			header = merged
		}

		out = append(out, resolvedRecipientHeader{header: *header, encryptedKey: []byte(r.EncryptedKey)})
	}

	return out, nil
}

func unwrapRecipient(kwAlg jose.KWAlg, algInfo jose.AlgInfo, encAlg jose.EncAlg, c resolvedRecipientHeader, opts UnpackJWEOptions) ([]byte, error) {
	if len(c.header.EPK) == 0 {
		return nil, didcommerr.Newf(didcommerr.KindMissingEncryptionMetadata, "envelope.UnpackJWE", "recipient header missing epk")
	}

	epk, err := parseEPK(c.header.EPK)
	if err != nil {
		return nil, err
	}

	apu, err := base64.RawURLEncoding.DecodeString(c.header.APU)
	if err != nil {
		apu = nil
	}

	apv, err := base64.RawURLEncoding.DecodeString(c.header.APV)
	if err != nil {
		apv = nil
	}

	if kwAlg == jose.ECDHESDirect {
		return keyagreement.DeriveDirectRecipient(string(encAlg), algInfo.KeyLength, apu, apv, opts.RecipientPriv, epk)
	}

	recWK := &keyagreement.RecipientWrappedKey{
		KID:          c.header.KID,
		EncryptedCEK: c.encryptedKey,
		EPK:          epk,
		Alg:          kwAlg,
		APU:          apu,
		APV:          apv,
	}

	if kwAlg == jose.ECDH1PUA256KW {
		if opts.SenderPub == nil {
			return nil, didcommerr.Newf(didcommerr.KindMissingEncryptionMetadata, "envelope.UnpackJWE", "ECDH-1PU requires the sender's public key")
		}

		return keyagreement.UnwrapKey1PU(recWK, opts.RecipientPriv, *opts.SenderPub)
	}

	return keyagreement.UnwrapKeyES(recWK, opts.RecipientPriv)
}

// mergeRecipientIntoProtected folds the sole recipient's per-recipient
// header fields into the protected header, as required before compact
// serialization (RFC 7516 §7.1 has only one header region). jwe must have
// exactly one recipient.
func mergeRecipientIntoProtected(jwe *jose.JSONWebEncryption) error {
	if len(jwe.Recipients) != 1 {
		return didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "envelope.mergeRecipientIntoProtected", "compact serialization requires exactly one recipient")
	}

	header := jwe.Recipients[0].Header
	if header == nil {
		return nil
	}

	if header.KID != "" {
		jwe.ProtectedHeaders[jose.HeaderKeyID] = header.KID
	}

	if len(header.EPK) > 0 {
		var epk interface{}
		if err := json.Unmarshal(header.EPK, &epk); err != nil {
			return didcommerr.New(didcommerr.KindMalformedEnvelope, "envelope.mergeRecipientIntoProtected", err)
		}

		jwe.ProtectedHeaders[jose.HeaderEPK] = epk
	}

	if header.APU != "" {
		jwe.ProtectedHeaders[jose.HeaderAPU] = header.APU
	}

	if header.APV != "" {
		jwe.ProtectedHeaders[jose.HeaderAPV] = header.APV
	}

	jwe.Recipients[0].Header = nil

	return nil
}
