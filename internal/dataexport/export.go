// Package dataexport serialises scan results for the command line.
package dataexport

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

type Format string

const (
	FormatHex  Format = "hex"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatList Format = "list"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatHex, FormatJSON, FormatCSV, FormatList:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q", s)
	}
}

type jsonTweak struct {
	TxIndex int    `json:"tx_index"`
	Txid    string `json:"txid"`
	Tweak   string `json:"tweak"`
}

type jsonResult struct {
	BlockHash string      `json:"block_hash"`
	Height    *int64      `json:"block_height,omitempty"`
	Tweaks    []jsonTweak `json:"tweaks"`
}

// WriteTweaks writes result to w in the given format
func WriteTweaks(w io.Writer, format Format, result *types.ScanResult) error {
	switch format {
	case FormatHex:
		for i := range result.Tweaks {
			if _, err := fmt.Fprintln(w, result.Tweaks[i].TweakHex()); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		return writeJSON(w, result)
	case FormatCSV:
		return writeToCSV(w, convertTweaksToRecords(result))
	case FormatList:
		return writeList(w, result)
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func writeJSON(w io.Writer, result *types.ScanResult) error {
	out := jsonResult{
		BlockHash: result.BlockHash.String(),
		Tweaks:    make([]jsonTweak, len(result.Tweaks)),
	}
	if result.Height != types.HeightUnknown {
		out.Height = &result.Height
	}
	for i := range result.Tweaks {
		out.Tweaks[i] = jsonTweak{
			TxIndex: result.Tweaks[i].TxIndex,
			Txid:    result.Tweaks[i].Txid.String(),
			Tweak:   result.Tweaks[i].TweakHex(),
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// writeList prints the tweaks as a quoted, comma terminated list
func writeList(w io.Writer, result *types.ScanResult) error {
	if len(result.Tweaks) == 0 {
		_, err := fmt.Fprintln(w, "[]")
		return err
	}

	var b strings.Builder
	b.WriteString("[\n")
	for i := range result.Tweaks {
		fmt.Fprintf(&b, "    %q,\n", result.Tweaks[i].TweakHex())
	}
	b.WriteString("]\n")

	_, err := io.WriteString(w, b.String())
	return err
}
