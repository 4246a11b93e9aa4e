package dataexport

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/setavenger/blindbit-lib/logging"
	"github.com/setavenger/blindbit-tweakscan/internal/types"
)

func writeToCSV(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		logging.L.Err(err).Msg("failed writing csv records")
		return err
	}
	return nil
}

// ExportTweaks writes the scan result as csv file to path
func ExportTweaks(path string, result *types.ScanResult) error {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		logging.L.Err(err).Str("path", path).Msg("failed creating export directory")
		return err
	}
	logging.L.Info().Msgf("Writing to %s", path)

	file, err := os.Create(path)
	if err != nil {
		logging.L.Err(err).Msg("failed creating file")
		return err
	}
	defer file.Close()

	return writeToCSV(file, convertTweaksToRecords(result))
}

func convertTweaksToRecords(result *types.ScanResult) [][]string {
	records := make([][]string, 0, len(result.Tweaks)+1)

	records = append(records, []string{
		"txIndex",
		"txid",
		"tweak",
	})
	for i := range result.Tweaks {
		records = append(records, []string{
			strconv.Itoa(result.Tweaks[i].TxIndex),
			result.Tweaks[i].Txid.String(),
			result.Tweaks[i].TweakHex(),
		})
	}
	return records
}
