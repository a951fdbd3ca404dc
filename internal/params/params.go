// Package params fixes the sizes and security parameters shared by every package.
package params

const (
	SecParam  = 256
	SecBytes  = SecParam / 8
	StatParam = 80

	// ZKModIterations is the number of challenges answered in a Paillier-Blum modulus proof.
	// Challenges are bound to the session hash, which lets us go below StatParam.
	ZKModIterations = 12

	// L, Epsilon bound the no small factor proof: an accepted modulus has no factor below 2ᴸ.
	L            = SecParam
	Epsilon      = 2 * SecParam
	LPlusEpsilon = L + Epsilon

	BitsIntModN  = 8 * SecParam
	BytesIntModN = BitsIntModN / 8

	// BitsBlumPrime is the size of each factor of a Paillier modulus.
	BitsBlumPrime = 4 * SecParam
	BitsPaillier  = 2 * BitsBlumPrime

	BytesPaillier   = BitsPaillier / 8
	BytesCiphertext = 2 * BytesPaillier

	BytesScalar = 32
	// BytesPoint is the size of a compressed secp256k1 point.
	BytesPoint = 33

	// ChainCodeBytes is the length of a BIP32 chain code.
	ChainCodeBytes = 32
)
