package test

import (
	"crypto/rand"
	"fmt"

	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

// GenerateShares creates t-out-of-n shares of a random secret x, as a trusted dealer would,
// using the Paillier fixtures. It returns the shares and x.
// The shares are indistinguishable from the output of a key generation, without the cost of running it.
func GenerateShares(group curve.Curve, threshold, n int) (map[party.ID]*config.LocalKeyShare, curve.Scalar) {
	if n > PaillierKeyCount {
		panic(fmt.Sprintf("test: at most %d parties are supported", PaillierKeyCount))
	}
	partyIDs := party.Indices(n)

	secret := sample.ScalarUnit(rand.Reader, group)
	f := polynomial.NewPolynomial(group, threshold, secret)
	vss := polynomial.NewPolynomialExponent(f)

	public := make(map[party.ID]*config.Public, n)
	paillierSecrets := make(map[party.ID]*paillier.SecretKey, n)
	pedersenSecrets := make(map[party.ID]*pedersen.Secret, n)
	for i, j := range partyIDs {
		sk := PaillierSecretKey(i)
		ped, pedSecret := sk.GeneratePedersen(rand.Reader)
		public[j] = &config.Public{
			ECDSA:    vss.Evaluate(j.Scalar(group)),
			Paillier: sk.PublicKey,
			Pedersen: ped,
		}
		paillierSecrets[j] = sk
		pedersenSecrets[j] = pedSecret
	}

	shares := make(map[party.ID]*config.LocalKeyShare, n)
	for _, j := range partyIDs {
		share := &config.LocalKeyShare{
			Group:     group,
			ID:        j,
			Threshold: threshold,
			Paillier:  paillierSecrets[j],
			Pedersen:  pedersenSecrets[j],
			ECDSA:     f.Evaluate(j.Scalar(group)),
			VSS:       vss.Copy(),
			Public:    make(map[party.ID]*config.Public, n),
			PublicKey: secret.ActOnBase(),
		}
		for k, publicK := range public {
			share.Public[k] = publicK.Clone(group)
		}
		shares[j] = share
	}
	return shares, secret
}

// Reconstruct interpolates the secret from the shares of the given parties.
func Reconstruct(group curve.Curve, shares map[party.ID]*config.LocalKeyShare, quorum []party.ID) curve.Scalar {
	l := polynomial.Lagrange(group, quorum)
	secret := group.NewScalar()
	for _, j := range quorum {
		secret.Add(group.NewScalar().Set(l[j]).Mul(shares[j].ECDSA))
	}
	return secret
}
