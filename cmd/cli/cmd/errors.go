package cmd

import (
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var downloadDest string

var errorsCmd = &cobra.Command{
	Use:   "errors [job_id]",
	Short: "Inspect or download the error report of a finished job",
	Long: `Show the error report descriptor for a finished import job. With --download,
fetch the report workbook (Resumen and Detalle sheets) to a local file.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetString("token") == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the DEBTORBATCH_TOKEN environment variable")
			return
		}

		jobID := args[0]
		client := clientFromConfig()

		if downloadDest != "" {
			if err := client.DownloadErrors(jobID, downloadDest); err != nil {
				cmd.Printf("Download failed: %v\n", err)
				return
			}
			cmd.Printf("%s✓%s Error report saved to %s\n", colorGreen, colorReset, downloadDest)
			return
		}

		log, err := client.GetErrors(jobID)
		if err != nil {
			cmd.Printf("Request failed: %v\n", err)
			return
		}
		if log == nil {
			cmd.Printf("%s✓%s Job finished without findings\n", colorGreen, colorReset)
			return
		}

		cmd.Printf("%sError Report%s\n", colorBold, colorReset)
		cmd.Println("──────────────────────────────")
		cmd.Printf("%sRecords:%s   %d\n", colorDim, colorReset, log.RecordCount)
		cmd.Printf("%sDownload:%s  %s\n", colorDim, colorReset, log.DownloadURL)
		cmd.Printf("%sExpires:%s   %s\n", colorDim, colorReset, log.ExpiresAt.Format(time.RFC3339))
	},
}

func init() {
	errorsCmd.Flags().StringVarP(&downloadDest, "download", "d", "", "save the report workbook to this path")
	rootCmd.AddCommand(errorsCmd)
}
