package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wizdraft/internal/api"
	"wizdraft/internal/config"
	"wizdraft/internal/models"
)

func newAttachCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attach",
		Short: "Manage draft attachments",
		Long: `Manage draft attachments.

Selectors are "photo" or "documents/<category>", for example documents/id-card.`,
	}

	cmd.AddCommand(
		newAttachAddCmd(cfg, out),
		newAttachRemoveCmd(cfg),
		newAttachGetCmd(cfg),
	)
	return cmd
}

func newAttachAddCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var mediaType string

	cmd := &cobra.Command{
		Use:   "add <selector> <file>",
		Short: "Store a file for an attachment field",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := models.ParseSelector(args[0])
			if err != nil {
				return err
			}
			path := args[1]

			var content io.Reader
			name := filepath.Base(path)
			if path == "-" {
				raw, err := io.ReadAll(os.Stdin)
				if err != nil {
					return err
				}
				content = bytes.NewReader(raw)
				name = "stdin"
			} else {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()
				content = f
			}

			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.UploadAttachment(cmd.Context(), sel, name, mediaType, content)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(resp)
				}
				return writeSuccess("%s stored as %s (%s, %s)", resp.Selector, resp.BlobID, resp.MimeType, humanize.IBytes(resp.Size))
			})
		},
	}

	cmd.Flags().StringVar(&mediaType, "media-type", "", "declared media type (sniffed from content when empty)")
	return cmd
}

func newAttachRemoveCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <selector>",
		Aliases: []string{"remove"},
		Short:   "Clear an attachment field and delete its stored content",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := models.ParseSelector(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				if err := client.DeleteAttachment(cmd.Context(), sel); err != nil {
					return err
				}
				return writeSuccess("%s cleared", sel)
			})
		},
	}
}

func newAttachGetCmd(cfg *config.Config) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "get <selector>",
		Short: "Write the content of an attachment to a file or stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sel, err := models.ParseSelector(args[0])
			if err != nil {
				return err
			}
			return withClient(cfg, func(client *api.Client) error {
				if outPath == "" {
					_, err := client.AttachmentContent(cmd.Context(), sel, os.Stdout)
					return err
				}

				var buf bytes.Buffer
				mediaType, err := client.AttachmentContent(cmd.Context(), sel, &buf)
				if err != nil {
					return err
				}
				if err := os.WriteFile(outPath, buf.Bytes(), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				return writeSuccess("wrote %s (%s, %s)", outPath, mediaType, humanize.IBytes(uint64(buf.Len())))
			})
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "destination file (stdout when empty)")
	return cmd
}
