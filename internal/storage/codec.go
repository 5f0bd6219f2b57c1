package storage

import (
	"encoding/hex"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/spaolacci/murmur3"

	"github.com/yndnr/vftledger-go/internal/core/domain"
	"github.com/yndnr/vftledger-go/internal/core/ledger"
	"github.com/yndnr/vftledger-go/pkg/num"
	"github.com/yndnr/vftledger-go/pkg/shardmap"
)

// StateVersion is the current state document format. Version 2 added
// token metadata.
const StateVersion = 2

// Deployed ledger types.
type (
	BalancesLedger   = ledger.Balances[domain.BalanceWidth]
	AllowancesLedger = ledger.Allowances[domain.AllowanceWidth]
	BalancesState    = ledger.BalancesState[domain.BalanceWidth]
	AllowancesState  = ledger.AllowancesState[domain.AllowanceWidth]
)

// LedgerState is everything needed to rebuild a running ledger.
type LedgerState struct {
	Paused     bool
	Metadata   domain.Metadata
	Balances   BalancesState
	Allowances AllowancesState
}

type stateDoc struct {
	_          struct{} `cbor:",toarray"`
	Version    uint16
	Paused     bool
	Metadata   metadataDoc
	Balances   balancesDoc
	Allowances allowancesDoc
}

type metadataDoc struct {
	_        struct{} `cbor:",toarray"`
	Name     string
	Symbol   string
	Decimals uint8
}

type balancesDoc struct {
	_       struct{} `cbor:",toarray"`
	Minimum domain.Balance
	Total   num.Uint[num.W256]
	Unused  num.Uint[num.W256]
	Shards  []shardDoc[domain.Account, num.NonZero[domain.Balance]]
}

type allowancesDoc struct {
	_            struct{} `cbor:",toarray"`
	ExpiryPeriod uint32
	Shards       []shardDoc[allowanceKeyDoc, allowanceEntryDoc]
}

type shardDoc[K, V any] struct {
	_         struct{} `cbor:",toarray"`
	Capacity  uint64
	Allocated bool
	Entries   []entryDoc[K, V]
}

type entryDoc[K, V any] struct {
	_     struct{} `cbor:",toarray"`
	Key   K
	Value V
}

type allowanceKeyDoc struct {
	_       struct{} `cbor:",toarray"`
	Owner   domain.Account
	Spender domain.Account
}

type allowanceEntryDoc struct {
	_      struct{} `cbor:",toarray"`
	Amount num.NonZero[domain.Allowance]
	Expiry uint32
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{MaxArrayElements: 1 << 27}).DecMode(); err != nil {
		panic(err)
	}
}

// EncodeState serializes s. Shard entries are expected in Export order,
// which makes the encoding deterministic for a given ledger.
func EncodeState(s LedgerState) ([]byte, error) {
	total, err := num.FromUint256[num.W256](&s.Balances.Total)
	if err != nil {
		return nil, err
	}
	unused, err := num.FromUint256[num.W256](&s.Balances.Unused)
	if err != nil {
		return nil, err
	}

	doc := stateDoc{
		Version: StateVersion,
		Paused:  s.Paused,
		Metadata: metadataDoc{
			Name:     s.Metadata.Name,
			Symbol:   s.Metadata.Symbol,
			Decimals: s.Metadata.Decimals,
		},
		Balances: balancesDoc{
			Minimum: s.Balances.Minimum,
			Total:   total,
			Unused:  unused,
			Shards:  toShardDocs(s.Balances.Shards, identity[domain.Account], identity[num.NonZero[domain.Balance]]),
		},
		Allowances: allowancesDoc{
			ExpiryPeriod: s.Allowances.ExpiryPeriod,
			Shards: toShardDocs(s.Allowances.Shards,
				func(k ledger.AllowanceKey) allowanceKeyDoc {
					return allowanceKeyDoc{Owner: k.Owner, Spender: k.Spender}
				},
				func(e ledger.AllowanceEntry[domain.AllowanceWidth]) allowanceEntryDoc {
					return allowanceEntryDoc{Amount: e.Amount, Expiry: e.Expiry}
				}),
		},
	}

	data, err := encMode.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("storage: encode state: %w", err)
	}
	return data, nil
}

// DecodeState parses a document produced by EncodeState. It checks the
// format only; ledger invariants are checked when the state is restored.
func DecodeState(data []byte) (LedgerState, error) {
	var doc stateDoc
	if err := decMode.Unmarshal(data, &doc); err != nil {
		return LedgerState{}, fmt.Errorf("storage: decode state: %w", err)
	}
	if doc.Version != StateVersion {
		return LedgerState{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	s := LedgerState{
		Paused: doc.Paused,
		Metadata: domain.Metadata{
			Name:     doc.Metadata.Name,
			Symbol:   doc.Metadata.Symbol,
			Decimals: doc.Metadata.Decimals,
		},
		Balances: BalancesState{
			Minimum: doc.Balances.Minimum,
			Total:   *doc.Balances.Total.Uint256(),
			Unused:  *doc.Balances.Unused.Uint256(),
			Shards:  fromShardDocs(doc.Balances.Shards, identity[domain.Account], identity[num.NonZero[domain.Balance]]),
		},
		Allowances: AllowancesState{
			ExpiryPeriod: doc.Allowances.ExpiryPeriod,
			Shards: fromShardDocs(doc.Allowances.Shards,
				func(k allowanceKeyDoc) ledger.AllowanceKey {
					return ledger.AllowanceKey{Owner: k.Owner, Spender: k.Spender}
				},
				func(e allowanceEntryDoc) ledger.AllowanceEntry[domain.AllowanceWidth] {
					return ledger.AllowanceEntry[domain.AllowanceWidth]{Amount: e.Amount, Expiry: e.Expiry}
				}),
		},
	}
	return s, nil
}

// Fingerprint is the hex murmur3 128-bit hash of an encoded state. Two
// ledgers with the same contents and layout share a fingerprint.
func Fingerprint(data []byte) string {
	h1, h2 := murmur3.Sum128(data)
	var b [16]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(h1 >> (56 - 8*i))
		b[8+i] = byte(h2 >> (56 - 8*i))
	}
	return hex.EncodeToString(b[:])
}

func identity[T any](v T) T { return v }

func toShardDocs[K comparable, V, DK, DV any](defs []shardmap.ShardDef[K, V], key func(K) DK, val func(V) DV) []shardDoc[DK, DV] {
	out := make([]shardDoc[DK, DV], len(defs))
	for i, d := range defs {
		entries := make([]entryDoc[DK, DV], len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = entryDoc[DK, DV]{Key: key(e.Key), Value: val(e.Value)}
		}
		out[i] = shardDoc[DK, DV]{Capacity: uint64(d.Capacity), Allocated: d.Allocated, Entries: entries}
	}
	return out
}

func fromShardDocs[DK, DV any, K comparable, V any](docs []shardDoc[DK, DV], key func(DK) K, val func(DV) V) []shardmap.ShardDef[K, V] {
	out := make([]shardmap.ShardDef[K, V], len(docs))
	for i, d := range docs {
		entries := make([]shardmap.Entry[K, V], len(d.Entries))
		for j, e := range d.Entries {
			entries[j] = shardmap.Entry[K, V]{Key: key(e.Key), Value: val(e.Value)}
		}
		out[i] = shardmap.ShardDef[K, V]{Capacity: int(d.Capacity), Allocated: d.Allocated, Entries: entries}
	}
	return out
}
