package wallet

import (
	"crypto/ed25519"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ChainSafe/go-schnorrkel"
	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gagliardetto/solana-go"
)

// Derivation paths
const (
	EthDerivationPath        = "m/44'/60'/0'/0/0"
	BtcDerivationPath        = "m/84'/0'/0'/0/0"
	BtcTestnetDerivationPath = "m/84'/1'/0'/0/0"
	SolDerivationPath        = "m/44'/501'/0'/0'"
	DotDerivationPath        = "//polkadot"
)

// secp256k1 curve order
var curveOrder, _ = new(big.Int).SetString("FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFEBAAEDCE6AF48A03BBFD25E8CD0364141", 16)

// hdKey is a BIP-32 extended private key
type hdKey struct {
	privateKey []byte
	publicKey  []byte
	chainCode  []byte
	depth      uint8
}

// deriveSecp256k1 derives a BIP-32 private key for path
func deriveSecp256k1(seed []byte, path string) (*btcec.PrivateKey, error) {
	parsed, err := accounts.ParseDerivationPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse derivation path: %w", err)
	}

	key, err := newMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create master key: %w", err)
	}
	for _, childNum := range parsed {
		key, err = deriveChild(key, childNum)
		if err != nil {
			return nil, fmt.Errorf("failed to derive child: %w", err)
		}
	}

	priv, _ := btcec.PrivKeyFromBytes(key.privateKey)
	return priv, nil
}

// deriveEthereumKey derives the EVM account key
func deriveEthereumKey(seed []byte) (*btcec.PrivateKey, error) {
	return deriveSecp256k1(seed, EthDerivationPath)
}

// deriveSolanaKey derives an ed25519 key. Ed25519 has no public parent
// derivation, the path is mixed into the seed instead.
func deriveSolanaKey(seed []byte, path string) solana.PrivateKey {
	combined := append(append([]byte(nil), seed...), []byte(path)...)
	seedHash := hmacSHA512([]byte("ed25519 seed"), combined)
	return solana.PrivateKey(ed25519.NewKeyFromSeed(seedHash[:32]))
}

// derivePolkadotKey derives an sr25519 key from a mini secret
func derivePolkadotKey(seed []byte, path string) (*schnorrkel.SecretKey, *schnorrkel.PublicKey, error) {
	combined := append(append([]byte(nil), seed...), []byte(path)...)
	seedHash := hmacSHA512([]byte("sr25519 seed"), combined)

	var raw [schnorrkel.MiniSecretKeySize]byte
	copy(raw[:], seedHash[:32])
	mini, err := schnorrkel.NewMiniSecretKeyFromRaw(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create sr25519 key: %w", err)
	}
	secret := mini.ExpandEd25519()
	public, err := secret.Public()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to derive sr25519 public key: %w", err)
	}
	return secret, public, nil
}

// newMasterKey creates a master key from seed
func newMasterKey(seed []byte) (*hdKey, error) {
	hash := hmacSHA512([]byte("Bitcoin seed"), seed)

	privateKey := hash[:32]
	if !isValidPrivateKey(privateKey) {
		return nil, fmt.Errorf("invalid private key")
	}

	return &hdKey{
		privateKey: privateKey,
		publicKey:  compressedPublicKey(privateKey),
		chainCode:  hash[32:],
	}, nil
}

// deriveChild derives a child key from parent
func deriveChild(parent *hdKey, childNum uint32) (*hdKey, error) {
	var data []byte
	if isHardened(childNum) {
		data = append([]byte{0x00}, parent.privateKey...)
	} else {
		data = append([]byte(nil), parent.publicKey...)
	}
	childNumBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(childNumBytes, childNum)
	data = append(data, childNumBytes...)

	hash := hmacSHA512(parent.chainCode, data)
	il, ir := hash[:32], hash[32:]

	ilInt := new(big.Int).SetBytes(il)
	if ilInt.Cmp(curveOrder) >= 0 {
		return nil, fmt.Errorf("invalid child key")
	}
	childInt := new(big.Int).Add(new(big.Int).SetBytes(parent.privateKey), ilInt)
	childInt.Mod(childInt, curveOrder)
	if childInt.Sign() == 0 {
		return nil, fmt.Errorf("invalid private key")
	}

	childKey := make([]byte, 32)
	childInt.FillBytes(childKey)

	return &hdKey{
		privateKey: childKey,
		publicKey:  compressedPublicKey(childKey),
		chainCode:  ir,
		depth:      parent.depth + 1,
	}, nil
}

func compressedPublicKey(privateKey []byte) []byte {
	_, pub := btcec.PrivKeyFromBytes(privateKey)
	return pub.SerializeCompressed()
}

func hmacSHA512(key, data []byte) []byte {
	h := hmac.New(sha512.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func isValidPrivateKey(privateKey []byte) bool {
	if len(privateKey) != 32 {
		return false
	}
	keyInt := new(big.Int).SetBytes(privateKey)
	return keyInt.Sign() != 0 && keyInt.Cmp(curveOrder) < 0
}

func isHardened(childNum uint32) bool {
	return childNum >= 0x80000000
}

// ethereumAddress returns the checksummed address of key
func ethereumAddress(key *btcec.PrivateKey) string {
	return crypto.PubkeyToAddress(key.ToECDSA().PublicKey).Hex()
}
