package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/wonny/sector-rotation/internal/rotationconfig"
)

// configCmd groups run-config commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "실행 설정 (YAML) 관리",
}

// configCheckCmd validates the run config without touching the network
var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "실행 설정 검증",
	Long: `config.yaml을 읽어 필수 제약을 검증하고 권장 위반을 경고로 출력합니다.
KRX_API_KEY 없이 실행할 수 있습니다.

Example:
  go run ./cmd/quant config check
  go run ./cmd/quant config check --rotation-config ./configs/weekly.yaml`,
	RunE: runConfigCheck,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configCheckCmd)
}

// configPath resolves flag > ROTATION_CONFIG > config.yaml
func configPath() string {
	if rotationConfigPath != "" {
		return rotationConfigPath
	}
	if p := os.Getenv("ROTATION_CONFIG"); p != "" {
		return p
	}
	return "config.yaml"
}

func runConfigCheck(cmd *cobra.Command, args []string) error {
	path := configPath()

	cfg, data, err := rotationconfig.Load(path)
	if err != nil {
		var verr rotationconfig.ValidationError
		if errors.As(err, &verr) {
			PrintError(fmt.Sprintf("%s: %s", verr.Field, verr.Message))
		} else {
			PrintError(err.Error())
		}
		return err
	}

	hash, err := rotationconfig.Hash(cfg)
	if err != nil {
		return err
	}

	PrintHeader("Run Config")
	PrintKeyValue("File", path, 14)
	PrintKeyValue("Size", fmt.Sprintf("%d bytes", len(data)), 14)
	PrintKeyValue("Hash", hash[:12], 14)
	PrintKeyValue("Benchmark", cfg.MarketTicker, 14)
	PrintKeyValue("Period", fmt.Sprintf("%d days", cfg.Analysis.PeriodDays), 14)
	PrintKeyValue("Max score", strconv.Itoa(cfg.Params().MaxScore()), 14)
	PrintKeyValue("Min score", strconv.Itoa(cfg.Output.MinRotationScore), 14)
	PrintKeyValue("Top N", strconv.Itoa(cfg.Output.ShowTopN), 14)
	PrintKeyValue("Schedule", cfg.Schedule.Cron, 14)
	PrintSeparator()

	widths := []int{8, 20}
	PrintTableHeader([]string{"Code", "Sector"}, widths)
	for _, s := range cfg.Sectors {
		PrintTableRow([]string{s.Code, s.Name}, widths)
	}
	PrintSeparator()

	warnings := rotationconfig.Warn(cfg)
	for _, w := range warnings {
		PrintWarning(fmt.Sprintf("[%s] %s", w.Code, w.Message))
	}

	PrintSuccess(fmt.Sprintf("Config valid (%d sectors, %d warnings)", len(cfg.Sectors), len(warnings)))
	return nil
}
