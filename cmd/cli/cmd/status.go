package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"debtorbatch/pkg/api"
)

var statusCmd = &cobra.Command{
	Use:   "status [job_id]",
	Short: "Get status of an import job",
	Long:  `Retrieve progress for an import job, including its current state (QUEUED, VALIDATING, PROCESSING, COMPLETED, FAILED), record counters, and the error report link when one exists.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if viper.GetString("token") == "" {
			cmd.Println("API token not found. Please set it using the --token flag or the DEBTORBATCH_TOKEN environment variable")
			return
		}

		client := clientFromConfig()
		job, err := client.GetStatus(args[0])
		if err != nil {
			cmd.Printf("Status request failed: %v\n", err)
			return
		}

		printStatus(cmd, job)
	},
}

func printStatus(cmd *cobra.Command, job *api.JobStatusResponse) {
	icon := statusIcon(job.Status)
	cmd.Printf("%s %sImport Job%s\n", icon, colorBold, colorReset)
	cmd.Println("──────────────────────────────")

	cmd.Printf("%sID:%s         %s\n", colorDim, colorReset, job.JobID)
	cmd.Printf("%sStatus:%s     %s\n", colorDim, colorReset, colorizeStatus(job.Status))
	cmd.Printf("%sProgress:%s   %s %d%%\n", colorDim, colorReset, progressBar(job.ProgressPercentage), job.ProgressPercentage)
	cmd.Printf("%sRecords:%s    %d total, %s%d imported%s, %s%d failed%s\n",
		colorDim, colorReset, job.TotalRecords,
		colorGreen, job.ProcessedRecords, colorReset,
		colorRed, job.FailedRecords, colorReset)

	if job.FailureReason != nil {
		cmd.Printf("%sReason:%s     %s%s%s\n", colorDim, colorReset, colorRed, *job.FailureReason, colorReset)
	}
	if job.DownloadErrorLogURL != nil {
		cmd.Printf("%sError log:%s  %s\n", colorDim, colorReset, *job.DownloadErrorLogURL)
	}

	cmd.Printf("%sCreated:%s    %s\n", colorDim, colorReset, job.CreatedAt.Format(time.RFC3339))
	cmd.Printf("%sUpdated:%s    %s\n", colorDim, colorReset, job.UpdatedAt.Format(time.RFC3339))
}

func progressBar(percent int) string {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	filled := percent / 10
	return fmt.Sprintf("[%s%s]", strings.Repeat("█", filled), strings.Repeat("░", 10-filled))
}

func statusIcon(status string) string {
	switch status {
	case "COMPLETED":
		return colorGreen + "✓" + colorReset
	case "FAILED":
		return colorRed + "✗" + colorReset
	case "PROCESSING", "VALIDATING":
		return colorYellow + "●" + colorReset
	default:
		return colorCyan + "○" + colorReset
	}
}

func colorizeStatus(status string) string {
	switch status {
	case "COMPLETED":
		return colorGreen + status + colorReset
	case "FAILED":
		return colorRed + status + colorReset
	case "PROCESSING", "VALIDATING":
		return colorYellow + status + colorReset
	default:
		return colorCyan + status + colorReset
	}
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
)

func init() {
	rootCmd.AddCommand(statusCmd)
}
