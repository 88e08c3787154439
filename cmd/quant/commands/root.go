package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	rotationConfigPath string
	verbose            bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "quant",
	Short: "KRX 섹터 ETF 순환매 스크리너",
	Long: `Sector Rotation Screener CLI

KRX 섹터 ETF의 장기 약세 후 단기 반등, 거래대금 급증, 상대강도 개선을
점수화하여 순환매 초기 신호를 찾습니다.

Usage:
  go run ./cmd/quant [command]

Examples:
  go run ./cmd/quant screen
  go run ./cmd/quant screen --date 2025-06-30 --no-news
  go run ./cmd/quant config check
  go run ./cmd/quant scheduler start
  go run ./cmd/quant api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rotationConfigPath, "rotation-config", "", "run config YAML (default: $ROTATION_CONFIG or config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
