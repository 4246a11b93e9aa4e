package types

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/wire"
)

// maxScriptSize bounds a single decoded script, matches consensus MAX_SCRIPT_SIZE
const maxScriptSize = 10000

// EncodeTxOuts writes the outputs of one transaction in the layout bitcoin core uses per
// transaction in its spenttxouts REST response: varint count, then LE int64 value and
// varbytes script per output.
func EncodeTxOuts(outs []*wire.TxOut) ([]byte, error) {
	var buf bytes.Buffer
	pver := wire.ProtocolVersion

	if err := wire.WriteVarInt(&buf, pver, uint64(len(outs))); err != nil {
		return nil, fmt.Errorf("write count: %w", err)
	}
	for i, out := range outs {
		if err := binary.Write(&buf, binary.LittleEndian, out.Value); err != nil {
			return nil, fmt.Errorf("vout %d: write value: %w", i, err)
		}
		if err := wire.WriteVarBytes(&buf, pver, out.PkScript); err != nil {
			return nil, fmt.Errorf("vout %d: write script: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

func DecodeTxOutsFromBytes(b []byte) ([]*wire.TxOut, error) {
	return DecodeTxOuts(bytes.NewReader(b))
}

func DecodeTxOuts(r io.Reader) ([]*wire.TxOut, error) {
	pver := wire.ProtocolVersion

	k, err := wire.ReadVarInt(r, pver)
	if err != nil {
		return nil, fmt.Errorf("read count: %w", err)
	}

	outs := make([]*wire.TxOut, 0, min(k, 1<<12))
	for j := range k {
		var val int64
		if err := binary.Read(r, binary.LittleEndian, &val); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return nil, fmt.Errorf("vout %d: read value: %w", j, err)
		}

		spk, err := wire.ReadVarBytes(r, pver, maxScriptSize, "scriptPubKey")
		if err != nil {
			return nil, fmt.Errorf("vout %d: read script: %w", j, err)
		}

		outs = append(outs, &wire.TxOut{
			Value:    val,
			PkScript: spk,
		})
	}
	return outs, nil
}
