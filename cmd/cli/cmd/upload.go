package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file]",
	Short: "Upload a debtor spreadsheet for import",
	Long: `Upload a .xlsx or .csv debtor spreadsheet. The service validates every row
against the tenant's rule profile and imports the valid records into the
Enterprise Core service in the background. The command prints the job id to
poll with "debtorctl status".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetString("token") == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the DEBTORBATCH_TOKEN environment variable")
			return
		}

		client := clientFromConfig()
		resp, err := client.Upload(args[0])
		if err != nil {
			cmd.Printf("Upload failed: %v\n", err)
			return
		}

		cmd.Printf("%s✓%s %sImport job accepted%s\n", colorGreen, colorReset, colorBold, colorReset)
		cmd.Printf("%sJob ID:%s  %s\n", colorDim, colorReset, resp.JobID)
		cmd.Printf("%sStatus:%s  %s\n", colorDim, colorReset, colorizeStatus(resp.Status))
		cmd.Printf("\nTrack progress with: debtorctl status %s\n", resp.JobID)
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}
