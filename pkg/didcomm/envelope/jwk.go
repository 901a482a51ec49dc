/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

package envelope

import (
	"encoding/json"

	"github.com/dkuhnert/go-didcomm/pkg/didcomm/keyagreement"
	"github.com/dkuhnert/go-didcomm/pkg/doc/jose"
)

func ktyForCurve(curve keyagreement.Curve) string {
	if curve == keyagreement.X25519 {
		return "OKP"
	}

	return "EC"
}

// epkJSON renders pub as the `epk` JWK JSON embedded in a recipient header.
func epkJSON(pub keyagreement.PublicKey) (json.RawMessage, error) {
	jwk := &jose.JWK{
		Kty: ktyForCurve(pub.Curve),
		Crv: string(pub.Curve),
		X:   pub.X,
		Y:   pub.Y,
		KID: pub.KID,
	}

	raw, err := jwk.MarshalJSON()
	if err != nil {
		return nil, err
	}

	return json.RawMessage(raw), nil
}

// parseEPK reconstructs the ephemeral public key from a recipient's `epk` JWK JSON.
func parseEPK(raw json.RawMessage) (keyagreement.PublicKey, error) {
	jwk := &jose.JWK{}
	if err := jwk.UnmarshalJSON(raw); err != nil {
		return keyagreement.PublicKey{}, err
	}

	return keyagreement.PublicKey{
		KID:   jwk.KID,
		Curve: keyagreement.Curve(jwk.Crv),
		X:     jwk.X,
		Y:     jwk.Y,
	}, nil
}
