package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"wizdraft/internal/api"
	"wizdraft/internal/config"
)

func newInfoCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show engine status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				info, err := client.GetInfo(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(info)
				}
				return writeInfo(info)
			})
		},
	}
}

func writeInfo(info api.InfoResponse) error {
	attachments := successColor.Sprint("enabled")
	if !info.AttachmentsEnabled {
		attachments = warnColor.Sprint("disabled")
		if info.DisabledReason != "" {
			attachments += " (" + info.DisabledReason + ")"
		}
	}

	lines := []string{
		fmt.Sprintf("data dir: %s", info.DataDir),
		fmt.Sprintf("blob backend: %s", info.BlobBackend),
		fmt.Sprintf("attachments: %s", attachments),
		fmt.Sprintf("rehydrated: %t", info.Rehydrated),
		fmt.Sprintf("max attachment size: %s", humanize.IBytes(uint64(info.MaxAttachmentBytes))),
		fmt.Sprintf("allowed media types: %s", strings.Join(info.AllowedMediaTypes, ", ")),
		fmt.Sprintf("schema version: %d", info.SchemaVersion),
		fmt.Sprintf("snapshot size: %s", humanize.IBytes(uint64(info.SnapshotBytes))),
	}
	if info.SnapshotUpdatedAt != nil {
		lines = append(lines, fmt.Sprintf("snapshot saved: %s (%s)", formatTime(*info.SnapshotUpdatedAt), humanize.Time(*info.SnapshotUpdatedAt)))
	}
	return writePlain("%s\n", strings.Join(lines, "\n"))
}
