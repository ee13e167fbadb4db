package chains

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

type fakeEVM struct {
	mu sync.Mutex

	chainID  *big.Int
	baseFee  *big.Int
	tip      *big.Int
	gasPrice *big.Int
	code     []byte
	nonce    uint64

	sendErr     error
	sendBlocks  bool
	callResult  []byte
	receipts    map[common.Hash]*types.Receipt
	receiptErr  error
	headerCalls int
	closed      bool

	sent  []*types.Transaction
	calls []ethereum.CallMsg
}

func newFakeEVM() *fakeEVM {
	return &fakeEVM{
		chainID:  big.NewInt(31337),
		baseFee:  big.NewInt(1_000),
		tip:      big.NewInt(10),
		gasPrice: big.NewInt(500),
		code:     []byte{0x60, 0x80},
		receipts: make(map[common.Hash]*types.Receipt),
	}
}

func (f *fakeEVM) ChainID(context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeEVM) HeaderByNumber(context.Context, *big.Int) (*types.Header, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.headerCalls++
	return &types.Header{Number: big.NewInt(int64(f.headerCalls)), BaseFee: f.baseFee}, nil
}

func (f *fakeEVM) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nonce, nil
}

func (f *fakeEVM) SuggestGasTipCap(context.Context) (*big.Int, error) {
	return f.tip, nil
}

func (f *fakeEVM) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeEVM) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.sendBlocks {
		<-ctx.Done()
		return ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	f.nonce++
	return nil
}

func (f *fakeEVM) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return f.callResult, nil
}

func (f *fakeEVM) CodeAt(context.Context, common.Address, *big.Int) ([]byte, error) {
	return f.code, nil
}

func (f *fakeEVM) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	r, ok := f.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return r, nil
}

func (f *fakeEVM) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeEVM) headerCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.headerCalls
}
