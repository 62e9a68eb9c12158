package main

import (
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wizdraft/internal/api"
	"wizdraft/internal/config"
)

func newBlobsCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blobs",
		Short: "Inspect and clean up stored attachment content",
	}

	cmd.AddCommand(
		newBlobsListCmd(cfg, out),
		newBlobsDumpCmd(cfg),
		newBlobsOrphansCmd(cfg, out),
		newBlobsSweepCmd(cfg, out),
	)
	return cmd
}

func newBlobsListCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored blobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				infos, err := client.ListBlobs(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(infos)
				}
				for _, info := range infos {
					if err := writePlain("%s  %-24s %8s  %s\n", info.ID, info.Metadata.MimeType, humanize.IBytes(info.Metadata.Size), humanize.Time(info.StoredAt)); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newBlobsDumpCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print a debugging table of every stored blob",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				return client.DumpBlobs(cmd.Context(), os.Stdout)
			})
		},
	}
}

func newBlobsOrphansCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "orphans",
		Short: "Compare the draft with the blob store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.Orphans(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(resp)
				}
				if resp.Consistent {
					return writeSuccess("draft and blob store are consistent")
				}
				for _, info := range resp.Unreferenced {
					if err := writeWarning("unreferenced blob %s (%s, %s)", info.ID, info.Metadata.MimeType, humanize.IBytes(info.Metadata.Size)); err != nil {
						return err
					}
				}
				for _, ref := range resp.Dangling {
					if err := writeWarning("%s points at missing blob %s", ref.Selector, ref.BlobID); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
}

func newBlobsSweepCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var maxAge time.Duration
	var force bool

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Delete blobs older than a maximum age",
		Long: `Delete blobs older than a maximum age.

Blobs referenced by the draft are kept unless --force is given; a forced
sweep leaves the affected draft fields reporting their content as missing.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			age := ""
			if cmd.Flags().Changed("max-age") {
				age = maxAge.String()
			}
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.SweepBlobs(cmd.Context(), age, force)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(resp)
				}
				if err := writeSuccess("swept blobs older than %s: removed %d, kept %d, reclaimed %s",
					resp.MaxAge, resp.Removed, resp.Kept, humanize.IBytes(resp.ReclaimedBytes)); err != nil {
					return err
				}
				if resp.Failed > 0 {
					return writeWarning("%d blobs could not be removed", resp.Failed)
				}
				return nil
			})
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "minimum blob age to delete (default from blobs.sweep_max_age)")
	cmd.Flags().BoolVar(&force, "force", false, "also delete blobs still referenced by the draft")
	return cmd
}
