// Package cardlegends holds the Card Legends contract ABI and the codec that
// turns contract call payloads and return data into cards.Asset values.
package cardlegends

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	MethodMintCard       = "mintCard"
	MethodGetCard        = "getCard"
	MethodGetPlayerCards = "getPlayerCards"
	MethodCardCount      = "cardCount"

	EventCardMinted = "CardMinted"
)

// ContractABI is the JSON ABI of the Card Legends contract.
const ContractABI = `[
  {"type":"function","name":"mintCard","stateMutability":"nonpayable",
   "inputs":[{"name":"to","type":"address"},{"name":"name","type":"string"},{"name":"rarity","type":"uint8"},{"name":"power","type":"uint32"}],
   "outputs":[{"name":"id","type":"uint64"}]},
  {"type":"function","name":"getCard","stateMutability":"view",
   "inputs":[{"name":"id","type":"uint64"}],
   "outputs":[{"name":"exists","type":"bool"},{"name":"name","type":"string"},{"name":"rarity","type":"uint8"},{"name":"power","type":"uint32"},{"name":"owner","type":"address"}]},
  {"type":"function","name":"getPlayerCards","stateMutability":"view",
   "inputs":[{"name":"player","type":"address"}],
   "outputs":[{"name":"","type":"uint64[]"}]},
  {"type":"function","name":"cardCount","stateMutability":"view",
   "inputs":[],
   "outputs":[{"name":"","type":"uint64"}]},
  {"type":"event","name":"CardMinted","anonymous":false,
   "inputs":[{"name":"id","type":"uint64","indexed":true},{"name":"owner","type":"address","indexed":true},{"name":"name","type":"string","indexed":false},{"name":"rarity","type":"uint8","indexed":false},{"name":"power","type":"uint32","indexed":false}]}
]`

var (
	parsedOnce sync.Once
	parsedABI  abi.ABI
	parseErr   error
)

// ABI returns the parsed contract ABI.
func ABI() (abi.ABI, error) {
	parsedOnce.Do(func() {
		parsedABI, parseErr = abi.JSON(strings.NewReader(ContractABI))
	})
	return parsedABI, parseErr
}
