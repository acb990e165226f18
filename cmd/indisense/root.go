package main

import (
	"github.com/spf13/cobra"

	"indisense/sentiment-gateway/internal/apiclient"
)

func newRootCommand() *cobra.Command {
	ctx := newCommandContext()

	rootCmd := &cobra.Command{
		Use:           "indisense",
		Short:         "Analyze the emotional tone of text, audio and video",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ctx.load(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(keyServer, apiclient.DefaultBaseURL, "Sentiment gateway base URL")
	flags.String(keyGRPC, "", "Analyze over gRPC at this address instead of HTTP")
	flags.String(keyToken, "", "Bearer token for archive requests")
	flags.StringP(keyConfig, "c", "", "Configuration file path")
	flags.BoolP(keyVerbose, "v", false, "Log capture and transport details to stderr")
	flags.Bool(keyNoColor, false, "Disable colored output")

	rootCmd.AddCommand(newTextCommand(ctx))
	rootCmd.AddCommand(newFileCommand(ctx))
	rootCmd.AddCommand(newRecordCommand(ctx))
	rootCmd.AddCommand(newArchiveCommand(ctx))

	return rootCmd
}
