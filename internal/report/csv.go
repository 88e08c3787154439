package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/sector-rotation/internal/contracts"
)

// utf8BOM lets spreadsheet tools detect UTF-8 (utf-8-sig)
const utf8BOM = "\ufeff"

// CSVHeader is the column order of the analysis file
var CSVHeader = []string{
	"섹터", "종목코드", "순환매점수", "수급증가율", "장기수익률", "단기수익률", "거래량배수",
	"현재RS", "과거RS", "바닥권", "반등중", "거래량급증", "RS개선", "뉴스",
}

// CSVFileName returns sector_rotation_analysis_YYYYMMDD.csv for the evaluation date
func CSVFileName(asOf time.Time) string {
	return fmt.Sprintf("sector_rotation_analysis_%s.csv", asOf.Format("20060102"))
}

// SaveCSV writes the reports into dir and returns the file path
func SaveCSV(dir string, asOf time.Time, reports []contracts.SectorReport) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}

	path := filepath.Join(dir, CSVFileName(asOf))
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, reports); err != nil {
		return "", err
	}
	return path, file.Close()
}

// WriteCSV writes a BOM, the header and one row per report
func WriteCSV(w io.Writer, reports []contracts.SectorReport) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("failed to write BOM: %w", err)
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range reports {
		rot := r.Rotation
		record := []string{
			r.Name,
			r.Code,
			strconv.Itoa(rot.RotationScore),
			formatFloat(r.SupplyIncreasePct, 1),
			formatFloat(rot.LongTermReturnPct, 2),
			formatFloat(rot.ShortTermReturnPct, 2),
			formatFloat(rot.VolumeSurgeRatio, 2),
			formatFloat(rot.CurrentRSPct, 2),
			formatFloat(rot.PastRSPct, 2),
			strconv.FormatBool(rot.IsUndervalued),
			strconv.FormatBool(rot.IsBouncing),
			strconv.FormatBool(rot.HasVolumeSurge),
			strconv.FormatBool(rot.RSImproving),
			strings.Join(r.Headlines, " | "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}
