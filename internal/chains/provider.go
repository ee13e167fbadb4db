package chains

import (
	"context"
	"math/big"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/quantumauth-io/quantum-go-utils/log"

	"github.com/xsphere-io/cardlegends-client/internal/assetclient"
	"github.com/xsphere-io/cardlegends-client/internal/contracts/cardlegends"
	"github.com/xsphere-io/cardlegends-client/internal/wallet"
)

// Provider is the EVM implementation of assetclient.Network.
type Provider struct {
	eth      EVMClient
	chainID  *big.Int
	contract common.Address
	signer   wallet.Signer
	codec    *cardlegends.Codec

	// one submission at a time so pending nonces do not collide
	nonceMu sync.Mutex
}

var _ assetclient.Network = (*Provider)(nil)

func NewProvider(eth EVMClient, chainID uint64, contract string, signer wallet.Signer, codec *cardlegends.Codec) (*Provider, error) {
	if eth == nil {
		return nil, errors.New("provider: nil eth client")
	}
	if signer == nil {
		return nil, errors.New("provider: nil signer")
	}
	if codec == nil {
		return nil, errors.New("provider: nil codec")
	}
	if chainID == 0 {
		return nil, errors.New("provider: chain id is 0")
	}
	if !common.IsHexAddress(contract) {
		return nil, errors.Newf("provider: invalid contract address %q", contract)
	}
	return &Provider{
		eth:      eth,
		chainID:  new(big.Int).SetUint64(chainID),
		contract: common.HexToAddress(contract),
		signer:   signer,
		codec:    codec,
	}, nil
}

// Account is the address transactions are signed with.
func (p *Provider) Account() string {
	return p.signer.Address().Hex()
}

// Verify checks that the endpoint serves the configured chain and that the
// contract is deployed there.
func (p *Provider) Verify(ctx context.Context) error {
	got, err := p.eth.ChainID(ctx)
	if err != nil {
		return errors.Wrap(err, "read chain id")
	}
	if got.Cmp(p.chainID) != 0 {
		return errors.Newf("endpoint chain id %s does not match configured %s", got, p.chainID)
	}
	code, err := p.eth.CodeAt(ctx, p.contract, nil)
	if err != nil {
		return errors.Wrap(err, "read contract code")
	}
	if len(code) == 0 {
		return errors.Newf("no contract deployed at %s", p.contract.Hex())
	}
	return nil
}

// SubmitTransaction signs payload with the provider's key and broadcasts it.
func (p *Provider) SubmitTransaction(ctx context.Context, payload assetclient.Payload) (string, error) {
	if payload.ChainID != p.chainID.Uint64() {
		return "", errors.Newf("payload chain id %d does not match provider chain id %s", payload.ChainID, p.chainID)
	}
	if !common.IsHexAddress(payload.To) {
		return "", errors.Newf("invalid destination %q", payload.To)
	}
	if len(payload.Data) == 0 {
		return "", errors.New("empty call data")
	}
	to := common.HexToAddress(payload.To)
	from := p.signer.Address()

	p.nonceMu.Lock()
	defer p.nonceMu.Unlock()

	nonce, err := p.eth.PendingNonceAt(ctx, from)
	if err != nil {
		return "", errors.Wrap(err, "pending nonce")
	}

	unsigned, err := p.buildTx(ctx, nonce, to, payload.GasLimit, payload.Data)
	if err != nil {
		return "", err
	}

	signed, err := p.signer.SignTx(ctx, unsigned, p.chainID)
	if err != nil {
		return "", errors.Wrap(err, "sign transaction")
	}
	txID := signed.Hash().Hex()

	if err := p.eth.SendTransaction(ctx, signed); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// the node may still have received it
			log.Warn("transaction delivery interrupted", "tx", txID, "function", payload.Function)
			return txID, errors.Wrap(ctxErr, "send transaction")
		}
		return "", errors.Wrap(err, "send transaction")
	}

	log.Info("transaction submitted", "tx", txID, "function", payload.Function, "nonce", nonce)
	return txID, nil
}

func (p *Provider) buildTx(ctx context.Context, nonce uint64, to common.Address, gasLimit uint64, data []byte) (*types.Transaction, error) {
	tip, tipErr := p.eth.SuggestGasTipCap(ctx)
	hdr, hdrErr := p.eth.HeaderByNumber(ctx, nil)

	if tipErr == nil && hdrErr == nil && hdr.BaseFee != nil {
		feeCap := new(big.Int).Mul(hdr.BaseFee, big.NewInt(2))
		feeCap.Add(feeCap, tip)
		return types.NewTx(&types.DynamicFeeTx{
			ChainID:   p.chainID,
			Nonce:     nonce,
			GasTipCap: tip,
			GasFeeCap: feeCap,
			Gas:       gasLimit,
			To:        &to,
			Data:      data,
		}), nil
	}

	gp, err := p.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "suggest gas price")
	}
	return types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		GasPrice: gp,
		Gas:      gasLimit,
		To:       &to,
		Data:     data,
	}), nil
}

// QueryContract runs a read-only contract call against the latest block.
func (p *Provider) QueryContract(ctx context.Context, function string, args ...interface{}) ([]byte, error) {
	if !p.codec.IsViewMethod(function) {
		return nil, errors.Newf("%q is not a read-only contract function", function)
	}
	data, err := p.codec.Pack(function, args...)
	if err != nil {
		return nil, err
	}
	out, err := p.eth.CallContract(ctx, ethereum.CallMsg{
		From: p.signer.Address(),
		To:   &p.contract,
		Data: data,
	}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s", function)
	}
	return out, nil
}

// TransactionStatus maps the receipt of txID. No receipt yet means pending.
func (p *Provider) TransactionStatus(ctx context.Context, txID string) (assetclient.TxStatus, error) {
	hash, err := parseTxHash(txID)
	if err != nil {
		return assetclient.TxStatus{}, err
	}

	receipt, err := p.eth.TransactionReceipt(ctx, hash)
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return assetclient.TxStatus{State: assetclient.TxPending}, nil
		}
		return assetclient.TxStatus{}, errors.Wrapf(err, "receipt %s", txID)
	}
	if receipt == nil {
		return assetclient.TxStatus{State: assetclient.TxPending}, nil
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return assetclient.TxStatus{State: assetclient.TxFailed}, nil
	}

	status := assetclient.TxStatus{State: assetclient.TxConfirmed}
	if id, ok := p.codec.MintedIDFromLogs(p.contract, receipt.Logs); ok {
		status.AssetID = id
	}
	return status, nil
}

func parseTxHash(txID string) (common.Hash, error) {
	b, err := hexutil.Decode(strings.TrimSpace(txID))
	if err != nil || len(b) != common.HashLength {
		return common.Hash{}, errors.Newf("invalid transaction id %q", txID)
	}
	return common.BytesToHash(b), nil
}
