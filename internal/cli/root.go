package cli

import (
	"fmt"
	"os"

	"github.com/buildtall-systems/orderflow/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "orderflow",
	Short: "Order workflow state machine with a reactive store",
	Long: `orderflow drives an order through idle, processing, shipping and completed,
publishing a snapshot after every accepted event and journaling snapshots to SQLite.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ./orderflow.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log every published snapshot")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite journal (default orderflow.db)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName("orderflow")
		viper.SetConfigType("yaml")
	}

	config.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
	}
}
