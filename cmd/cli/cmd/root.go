package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "debtorctl",
	Short: "debtorctl is a command line tool for the debtor batch import service",
	Long: `debtorctl is the command-line interface for the debtor batch import service.

The service accepts debtor spreadsheets (.xlsx or .csv), validates every row
against the tenant's rule profile, and imports the valid records into the
Enterprise Core service in batches. Each upload becomes a background job you
can poll for progress and, once finished, fetch an error report for.

Common workflows:

  Upload a spreadsheet:
    debtorctl upload deudores.xlsx

  Check import progress:
    debtorctl status <job-id>

  Inspect and download the error report:
    debtorctl errors <job-id>
    debtorctl errors <job-id> --download errores.xlsx

Configuration:
  Set the API endpoint and identity via environment variables or a config file:
    DEBTORBATCH_URL        API endpoint (default: http://localhost:8080)
    DEBTORBATCH_TOKEN      Bearer token for authentication
    DEBTORBATCH_TENANT     Tenant ID
    DEBTORBATCH_DEPARTMENT Department ID
    DEBTORBATCH_USER       User ID`,
}

func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search config in home directory with name ".debtorctl"
		viper.AddConfigPath(home)
		viper.SetConfigName(".debtorctl")
		viper.SetConfigType("yaml")
	}

	// Read environment variables that match "DEBTORBATCH_VARNAME"
	viper.SetEnvPrefix("DEBTORBATCH")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.debtorctl.yaml)")

	rootCmd.PersistentFlags().String("url", "http://localhost:8080", "Import API URL")
	viper.BindPFlag("url", rootCmd.PersistentFlags().Lookup("url"))

	rootCmd.PersistentFlags().StringP("token", "t", "", "Bearer token for authentication")
	viper.BindPFlag("token", rootCmd.PersistentFlags().Lookup("token"))

	rootCmd.PersistentFlags().String("tenant", "", "Tenant ID")
	viper.BindPFlag("tenant", rootCmd.PersistentFlags().Lookup("tenant"))

	rootCmd.PersistentFlags().String("department", "", "Department ID")
	viper.BindPFlag("department", rootCmd.PersistentFlags().Lookup("department"))

	rootCmd.PersistentFlags().String("user", "", "User ID")
	viper.BindPFlag("user", rootCmd.PersistentFlags().Lookup("user"))
}
