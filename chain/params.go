package chain

// Protocol parameters for the box layer. Values are fixed by the chain and
// are not configurable at runtime.
const (
	NANOERGS_PER_ERG uint64 = 1_000_000_000

	// MIN_BOX_VALUE is the smallest nanoErg value a spendable box may carry.
	MIN_BOX_VALUE uint64 = 1_000_000

	// SAFE_TX_FEE is the conventional miner fee paid by framework-built
	// transactions.
	SAFE_TX_FEE uint64 = 1_000_000

	MAX_BOX_SIZE_BYTES  = 4096
	MAX_TREE_SIZE_BYTES = 3072
	MAX_TOKENS_PER_BOX  = 255

	MIN_REGISTER_ID RegisterID = 4
	MAX_REGISTER_ID RegisterID = 9

	// MAX_CONSTANT_BYTES caps the payload of a byte-collection constant.
	MAX_CONSTANT_BYTES = 2048
)
