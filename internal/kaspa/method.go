package kaspa

// Method is one of the node operations the bridge knows how to forward. The
// set is closed: transports switch over these constants and reject anything
// else.
type Method string

const (
	MethodGetInfo                           Method = "getInfoRequest"
	MethodGetBlock                          Method = "getBlockRequest"
	MethodGetBlockDagInfo                   Method = "getBlockDagInfoRequest"
	MethodGetVirtualSelectedParentBlueScore Method = "getVirtualSelectedParentBlueScoreRequest"
	MethodGetBalanceByAddress               Method = "getBalanceByAddressRequest"
	MethodGetBalancesByAddresses            Method = "getBalancesByAddressesRequest"
	MethodGetUtxosByAddresses               Method = "getUtxosByAddressesRequest"
	MethodGetMempoolEntriesByAddresses      Method = "getMempoolEntriesByAddressesRequest"
	MethodGetMempoolEntries                 Method = "getMempoolEntriesRequest"
	MethodGetMempoolEntry                   Method = "getMempoolEntryRequest"
)

// Methods lists every supported method.
var Methods = []Method{
	MethodGetInfo,
	MethodGetBlock,
	MethodGetBlockDagInfo,
	MethodGetVirtualSelectedParentBlueScore,
	MethodGetBalanceByAddress,
	MethodGetBalancesByAddresses,
	MethodGetUtxosByAddresses,
	MethodGetMempoolEntriesByAddresses,
	MethodGetMempoolEntries,
	MethodGetMempoolEntry,
}

// Valid reports whether m is a member of Methods.
func (m Method) Valid() bool {
	for _, known := range Methods {
		if m == known {
			return true
		}
	}
	return false
}

// Request parameter shapes. Methods without parameters send nil, which the
// JSON-RPC transport encodes as an empty list.

type BlockParams struct {
	Hash                string `json:"hash"`
	IncludeTransactions bool   `json:"includeTransactions"`
}

type AddressParams struct {
	Address string `json:"address"`
}

type AddressesParams struct {
	Addresses []string `json:"addresses"`
}

// MempoolFilter selects which pools a mempool query reads.
type MempoolFilter struct {
	IncludeOrphanPool     bool `json:"includeOrphanPool"`
	FilterTransactionPool bool `json:"filterTransactionPool"`
}

// DefaultMempoolFilter includes the orphan pool and filters the transaction
// pool.
func DefaultMempoolFilter() MempoolFilter {
	return MempoolFilter{IncludeOrphanPool: true, FilterTransactionPool: true}
}

type MempoolByAddressesParams struct {
	Addresses []string `json:"addresses"`
	MempoolFilter
}

type MempoolEntryParams struct {
	TxID string `json:"txId"`
	MempoolFilter
}
