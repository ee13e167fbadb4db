// Package wallet is the signing provider: it holds the player's secp256k1 key
// in a password-encrypted file and signs outgoing transactions.
package wallet

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/xsphere-io/cardlegends-client/internal/constants"
	"github.com/xsphere-io/cardlegends-client/internal/securefile"
)

var ErrWalletNotFound = errors.New("wallet not found")

// Signer supplies the account address and signs transactions for it.
// Key material never leaves the implementation.
type Signer interface {
	Address() common.Address
	SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

// Wallet is the decrypted content of the wallet file.
type Wallet struct {
	Version    int    `json:"version"`
	AddressHex string `json:"address"`
	PrivKeyHex string `json:"priv_key_hex"`
	CreatedAt  string `json:"created_at,omitempty"` // RFC3339
}

var _ Signer = (*Wallet)(nil)

func (w *Wallet) Address() common.Address {
	return common.HexToAddress(w.AddressHex)
}

func (w *Wallet) privateKey() (*ecdsa.PrivateKey, error) {
	b, err := hexutil.Decode(w.PrivKeyHex)
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	k, err := crypto.ToECDSA(b)
	if err != nil {
		return nil, fmt.Errorf("to ecdsa: %w", err)
	}
	return k, nil
}

func (w *Wallet) SignTx(ctx context.Context, tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if tx == nil || chainID == nil {
		return nil, errors.New("sign tx: missing tx or chain id")
	}

	key, err := w.privateKey()
	if err != nil {
		return nil, err
	}
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(chainID), key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	return signed, nil
}

// SignHash signs a 32-byte digest (R || S || V with V in {0,1}).
func (w *Wallet) SignHash(digest32 []byte) ([]byte, error) {
	if len(digest32) != 32 {
		return nil, fmt.Errorf("digest must be 32 bytes, got %d", len(digest32))
	}
	key, err := w.privateKey()
	if err != nil {
		return nil, err
	}
	return crypto.Sign(digest32, key)
}

func NewRandomWallet() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &Wallet{
		Version:    constants.SchemaV1,
		AddressHex: crypto.PubkeyToAddress(key.PublicKey).Hex(),
		PrivKeyHex: hexutil.Encode(crypto.FromECDSA(key)),
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}, nil
}

type Store struct {
	Path string
	Opt  securefile.Options
}

// NewStore keeps the wallet file under dataDir. An empty dataDir selects the
// user config directory.
func NewStore(dataDir string) (*Store, error) {
	path := filepath.Join(dataDir, constants.WalletFile)
	if dataDir == "" {
		paths, err := securefile.ConfigPathCandidates(constants.AppName, constants.WalletFile)
		if err != nil {
			return nil, err
		}
		path = paths[0]
	}

	return &Store{
		Path: path,
		Opt:  securefile.Options{AAD: []byte(constants.WalletAAD)},
	}, nil
}

func (s *Store) Exists() bool {
	_, err := os.Stat(s.Path)
	return err == nil
}

// Load decrypts the existing wallet. ErrWalletNotFound when there is none.
func (s *Store) Load(password []byte) (*Wallet, error) {
	w, err := securefile.ReadEncryptedJSON[Wallet](s.Path, password, s.Opt)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrWalletNotFound
		}
		return nil, fmt.Errorf("load wallet %s: %w", s.Path, err)
	}
	if _, err := w.privateKey(); err != nil {
		return nil, fmt.Errorf("load wallet %s: %w", s.Path, err)
	}
	return &w, nil
}

// Ensure loads the wallet or creates and persists a new one if missing.
func (s *Store) Ensure(password []byte) (w *Wallet, created bool, err error) {
	w, err = s.Load(password)
	if err == nil {
		return w, false, nil
	}
	if !errors.Is(err, ErrWalletNotFound) {
		return nil, false, err
	}

	w, err = NewRandomWallet()
	if err != nil {
		return nil, false, err
	}
	if err := securefile.WriteEncryptedJSON(s.Path, *w, password, s.Opt); err != nil {
		return nil, false, err
	}
	return w, true, nil
}

// ErrWatchOnly is returned when a watch-only account is asked to sign.
var ErrWatchOnly = errors.New("watch-only account cannot sign")

// WatchOnly is a Signer for read-only sessions: it carries an address and refuses to sign.
type WatchOnly common.Address

var _ Signer = WatchOnly{}

func (w WatchOnly) Address() common.Address { return common.Address(w) }

func (w WatchOnly) SignTx(context.Context, *types.Transaction, *big.Int) (*types.Transaction, error) {
	return nil, ErrWatchOnly
}
