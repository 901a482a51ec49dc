/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package keyagreement

import (
	stdecdh "crypto/ecdh"
	"crypto/rand"

	"github.com/btcsuite/btcd/btcec/v2"
	"golang.org/x/crypto/curve25519"

	"github.com/dkuhnert/go-didcomm/pkg/didcommerr"
)

// GenerateEphemeral generates a fresh ephemeral key pair on curve, for use as
// the JWE `epk` in ECDH-ES/ECDH-1PU key agreement (spec.md §4.4).
func GenerateEphemeral(curve Curve) (*PrivateKey, error) {
	switch curve {
	case X25519:
		return generateX25519()
	case P256:
		return generateP256()
	case SECP256K1:
		return generateSECP256K1()
	default:
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "keyagreement.GenerateEphemeral", "unsupported curve %q", curve)
	}
}

func generateX25519() (*PrivateKey, error) {
	priv, err := stdecdh.X25519().GenerateKey(rand.Reader)
	if err != nil {
		return nil, wrapErr("keyagreement.GenerateEphemeral", err)
	}

	return &PrivateKey{
		Public: PublicKey{Curve: X25519, X: priv.PublicKey().Bytes()},
		D:      priv.Bytes(),
	}, nil
}

func generateP256() (*PrivateKey, error) {
	priv, err := stdecdh.P256().GenerateKey(rand.Reader)
	if err != nil {
		return nil, wrapErr("keyagreement.GenerateEphemeral", err)
	}

	pub := priv.PublicKey().Bytes() // uncompressed: 0x04 || X || Y, 65 bytes

	return &PrivateKey{
		Public: PublicKey{Curve: P256, X: pub[1:33], Y: pub[33:65]},
		D:      priv.Bytes(),
	}, nil
}

func generateSECP256K1() (*PrivateKey, error) {
	priv, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, wrapErr("keyagreement.GenerateEphemeral", err)
	}

	pub := priv.PubKey()

	return &PrivateKey{
		Public: PublicKey{Curve: SECP256K1, X: pub.X().Bytes()[:], Y: pub.Y().Bytes()[:]},
		D:      priv.Serialize(),
	}, nil
}

// ecdh computes the raw ECDH shared secret Z between priv (this party's
// private scalar on curve) and pub (the other party's public key on the same
// curve).
func ecdh(curve Curve, priv []byte, pub PublicKey) ([]byte, error) {
	switch curve {
	case X25519:
		return ecdhX25519(priv, pub)
	case P256:
		return ecdhP256(priv, pub)
	case SECP256K1:
		return ecdhSECP256K1(priv, pub)
	default:
		return nil, didcommerr.Newf(didcommerr.KindUnsupportedAlgorithm, "keyagreement.ecdh", "unsupported curve %q", curve)
	}
}

func ecdhX25519(priv []byte, pub PublicKey) ([]byte, error) {
	z, err := curve25519.X25519(priv, pub.X)
	if err != nil {
		return nil, wrapErr("keyagreement.ecdh", err)
	}

	return z, nil
}

func ecdhP256(priv []byte, pub PublicKey) ([]byte, error) {
	privKey, err := stdecdh.P256().NewPrivateKey(priv)
	if err != nil {
		return nil, wrapErr("keyagreement.ecdh", err)
	}

	pubBytes := append([]byte{0x04}, append(append([]byte{}, pub.X...), pub.Y...)...)

	pubKey, err := stdecdh.P256().NewPublicKey(pubBytes)
	if err != nil {
		return nil, wrapErr("keyagreement.ecdh", err)
	}

	z, err := privKey.ECDH(pubKey)
	if err != nil {
		return nil, wrapErr("keyagreement.ecdh", err)
	}

	return z, nil
}

func ecdhSECP256K1(priv []byte, pub PublicKey) ([]byte, error) {
	privScalar, _ := btcec.PrivKeyFromBytes(priv)

	pubKey, err := btcec.ParsePubKey(append([]byte{0x04}, append(append([]byte{}, pub.X...), pub.Y...)...))
	if err != nil {
		return nil, wrapErr("keyagreement.ecdh", err)
	}

	var result btcec.JacobianPoint

	pubJacobian := new(btcec.JacobianPoint)
	pubKey.AsJacobian(pubJacobian)

	btcec.ScalarMultNonConst(&privScalar.Key, pubJacobian, &result)
	result.ToAffine()

	return result.X.Bytes()[:], nil
}
