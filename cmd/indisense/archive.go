package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"indisense/sentiment-gateway/internal/capture"
)

var errNoToken = errors.New("archive commands need a bearer token (--token or INDISENSE_TOKEN)")

func newArchiveCommand(ctx *commandContext) *cobra.Command {
	archiveCmd := &cobra.Command{
		Use:   "archive",
		Short: "Upload media to the archive and list past uploads",
	}
	archiveCmd.AddCommand(newArchiveUploadCommand(ctx))
	archiveCmd.AddCommand(newArchiveListCommand(ctx))
	return archiveCmd
}

func newArchiveUploadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <path>",
		Short: "Archive an audio or video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(ctx.v.GetString(keyToken)) == "" {
				return errNoToken
			}
			f, err := capture.LoadFile(args[0])
			if err != nil {
				return err
			}
			if _, err := fileMode("", f.MimeType, nil); err != nil {
				return err
			}

			up, err := ctx.apiClient().Archive(cmd.Context(), f)
			if err != nil {
				return fmt.Errorf("archive %s: %w", f.Name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Accepted %s (%s) as %s\n", f.Name, humanize.Bytes(uint64(len(f.Data))), up.StoragePath)
			return nil
		},
	}
}

func newArchiveListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List archived media, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(ctx.v.GetString(keyToken)) == "" {
				return errNoToken
			}
			uploads, err := ctx.apiClient().ListUploads(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list uploads: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderUploads(uploads, time.Now()))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of uploads to show")
	return cmd
}
