package ethrpc

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/rpc"

	"github.com/nando-os/ghost-rpc/pkg/primitives"
	"github.com/nando-os/ghost-rpc/pkg/transaction"
)

// BlockTag selects a block by name or number, in its wire form.
type BlockTag string

const (
	Latest    BlockTag = "latest"
	Pending   BlockTag = "pending"
	Earliest  BlockTag = "earliest"
	Safe      BlockTag = "safe"
	Finalized BlockTag = "finalized"
)

// BlockNumber returns the tag for block n.
func BlockNumber(n uint64) BlockTag {
	return BlockTag(primitives.NewQuantity(n).Hex())
}

// ParseBlockTag accepts a block name or a 0x-prefixed block number.
func ParseBlockTag(s string) (BlockTag, error) {
	var bn rpc.BlockNumber
	if err := bn.UnmarshalJSON([]byte(strconv.Quote(s))); err != nil {
		return "", fmt.Errorf("invalid block tag %q: %w", s, err)
	}
	return BlockTag(bn.String()), nil
}

func (b BlockTag) String() string { return string(b) }

func (b BlockTag) orLatest() BlockTag {
	if b == "" {
		return Latest
	}
	return b
}

// CallRequest is the transaction object taken by eth_call and
// eth_estimateGas. Unset fields are omitted from the request.
type CallRequest struct {
	From                 *primitives.Address    `json:"from,omitempty"`
	To                   *primitives.Address    `json:"to,omitempty"`
	Gas                  *primitives.Quantity   `json:"gas,omitempty"`
	GasPrice             *primitives.Quantity   `json:"gasPrice,omitempty"`
	MaxFeePerGas         *primitives.Quantity   `json:"maxFeePerGas,omitempty"`
	MaxPriorityFeePerGas *primitives.Quantity   `json:"maxPriorityFeePerGas,omitempty"`
	Value                *primitives.Quantity   `json:"value,omitempty"`
	Data                 primitives.Bytes       `json:"data,omitempty"`
	AccessList           transaction.AccessList `json:"accessList,omitempty"`
}

// FilterQuery selects logs for eth_getLogs. BlockHash and the block range
// are mutually exclusive. A nil entry in Topics matches any topic at that
// position.
type FilterQuery struct {
	BlockHash *primitives.Hash     `json:"blockHash,omitempty"`
	FromBlock BlockTag             `json:"fromBlock,omitempty"`
	ToBlock   BlockTag             `json:"toBlock,omitempty"`
	Addresses []primitives.Address `json:"address,omitempty"`
	Topics    [][]primitives.Hash  `json:"topics,omitempty"`
}

// Log is an event emitted during execution. The position fields are nil
// for logs of pending transactions.
type Log struct {
	Address          primitives.Address   `json:"address"`
	Topics           []primitives.Hash    `json:"topics"`
	Data             primitives.Bytes     `json:"data"`
	BlockNumber      *primitives.Quantity `json:"blockNumber"`
	BlockHash        *primitives.Hash     `json:"blockHash"`
	TransactionHash  *primitives.Hash     `json:"transactionHash"`
	TransactionIndex *primitives.Quantity `json:"transactionIndex"`
	LogIndex         *primitives.Quantity `json:"logIndex"`
	Removed          bool                 `json:"removed"`
}

// Receipt is the result of eth_getTransactionReceipt.
type Receipt struct {
	TransactionHash   primitives.Hash      `json:"transactionHash"`
	TransactionIndex  primitives.Quantity  `json:"transactionIndex"`
	BlockHash         primitives.Hash      `json:"blockHash"`
	BlockNumber       primitives.Quantity  `json:"blockNumber"`
	From              primitives.Address   `json:"from"`
	To                *primitives.Address  `json:"to"`
	Type              primitives.Quantity  `json:"type"`
	Status            *primitives.Quantity `json:"status"`
	CumulativeGasUsed primitives.Quantity  `json:"cumulativeGasUsed"`
	GasUsed           primitives.Quantity  `json:"gasUsed"`
	EffectiveGasPrice *primitives.Quantity `json:"effectiveGasPrice"`
	ContractAddress   *primitives.Address  `json:"contractAddress"`
	Logs              []Log                `json:"logs"`
	LogsBloom         primitives.Bytes     `json:"logsBloom"`
}

// Succeeded reports whether the receipt carries status 1. Receipts without
// a status field (pre-Byzantium) report false.
func (r *Receipt) Succeeded() bool {
	return r.Status != nil && r.Status.Cmp(primitives.NewQuantity(1)) == 0
}

// Header is the header part of eth_getBlockByNumber. Number and Hash are
// nil for the pending block.
type Header struct {
	Number        *primitives.Quantity `json:"number"`
	Hash          *primitives.Hash     `json:"hash"`
	ParentHash    primitives.Hash      `json:"parentHash"`
	StateRoot     primitives.Hash      `json:"stateRoot"`
	Timestamp     primitives.Quantity  `json:"timestamp"`
	GasLimit      primitives.Quantity  `json:"gasLimit"`
	GasUsed       primitives.Quantity  `json:"gasUsed"`
	BaseFeePerGas *primitives.Quantity `json:"baseFeePerGas"`
	ExtraData     primitives.Bytes     `json:"extraData"`
}

// RPCTransaction is the result of eth_getTransactionByHash. Block position
// fields are nil while the transaction is pending.
type RPCTransaction struct {
	Hash                 primitives.Hash        `json:"hash"`
	Type                 primitives.Quantity    `json:"type"`
	ChainID              *primitives.Quantity   `json:"chainId"`
	Nonce                primitives.Quantity    `json:"nonce"`
	BlockHash            *primitives.Hash       `json:"blockHash"`
	BlockNumber          *primitives.Quantity   `json:"blockNumber"`
	TransactionIndex     *primitives.Quantity   `json:"transactionIndex"`
	From                 primitives.Address     `json:"from"`
	To                   *primitives.Address    `json:"to"`
	Value                primitives.Quantity    `json:"value"`
	Gas                  primitives.Quantity    `json:"gas"`
	GasPrice             *primitives.Quantity   `json:"gasPrice"`
	MaxFeePerGas         *primitives.Quantity   `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *primitives.Quantity   `json:"maxPriorityFeePerGas"`
	Input                primitives.Bytes       `json:"input"`
	AccessList           transaction.AccessList `json:"accessList"`
	V                    primitives.Quantity    `json:"v"`
	R                    primitives.Quantity    `json:"r"`
	S                    primitives.Quantity    `json:"s"`
}

// FeeHistory is the result of eth_feeHistory.
type FeeHistory struct {
	OldestBlock   primitives.Quantity     `json:"oldestBlock"`
	BaseFeePerGas []primitives.Quantity   `json:"baseFeePerGas"`
	GasUsedRatio  []float64               `json:"gasUsedRatio"`
	Reward        [][]primitives.Quantity `json:"reward,omitempty"`
}
