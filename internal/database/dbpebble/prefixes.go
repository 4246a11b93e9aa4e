package dbpebble

const SizeTxid = 32

// Prefix Keys "K"
const (
	// txid -> encoded outputs of that transaction
	KTxOuts = 0x01
)

func KeyTxOuts(txid []byte) []byte {
	key := make([]byte, 1+SizeTxid)
	key[0] = KTxOuts
	copy(key[1:], txid)
	return key
}
