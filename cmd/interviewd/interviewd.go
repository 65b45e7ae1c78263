// Package interviewdcmder
package interviewdcmder

import (
	"github.com/spf13/cobra"

	ingestcmder "github.com/talentwire/interviewd/cmd/interviewd/ingest"
	servecmder "github.com/talentwire/interviewd/cmd/interviewd/serve"
)

const interviewdLongDesc string = `Interviewd is an AI technical interview assistant.

It streams interviewer replies over an OpenAI-compatible chat API,
grounded in a knowledge base of indexed interview material.

Run services using:
  interviewd serve     Run the interview server
  interviewd ingest    Index a knowledge directory and exit`

const interviewdShortDesc string = "Interviewd - AI Interview Assistant"

func NewInterviewdCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "interviewd",
		Short: interviewdShortDesc,
		Long:  interviewdLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file (default: ./interviewd.yaml)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(ingestcmder.NewIngestCmd())

	return cmd
}
