package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"wizdraft/internal/api"
	"wizdraft/internal/config"
)

func newDraftCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "draft",
		Short: "Show, edit, reset or export the saved draft",
	}

	cmd.AddCommand(
		newDraftShowCmd(cfg, out),
		newDraftSetCmd(cfg, out),
		newDraftResetCmd(cfg, out),
		newDraftExportCmd(cfg, out),
	)
	return cmd
}

func newDraftShowCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the current draft",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				d, err := client.GetDraft(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(d)
				}
				return writeDraftDetail(d)
			})
		},
	}
}

type studentFlags struct {
	firstName string
	lastName  string
	birthDate string
	grade     string
	email     string
	phone     string
	address   string
}

func newDraftSetCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	var (
		step     int
		plan     string
		fromFile string
		student  studentFlags
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update non-binary draft fields",
		Long: `Update non-binary draft fields from flags or from a JSON/YAML patch file.

A patch file holds any of: step, student, tutors, pricing, payments.
Use --file - to read the patch from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var req api.DraftPatchRequest
			if fromFile != "" {
				patch, err := readPatchFile(fromFile)
				if err != nil {
					return err
				}
				req = patch
			}
			flags := cmd.Flags()
			if flags.Changed("step") {
				req.Step = &step
			}

			return withClient(cfg, func(client *api.Client) error {
				ctx := cmd.Context()
				if err := applyFieldFlags(ctx, client, cmd, &req, student, plan); err != nil {
					return err
				}
				d, err := client.PatchDraft(ctx, req)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(d)
				}
				return writeSuccess("draft saved (step %d)", d.Step)
			})
		},
	}

	cmd.Flags().IntVar(&step, "step", 0, "wizard step")
	cmd.Flags().StringVar(&student.firstName, "first-name", "", "student first name")
	cmd.Flags().StringVar(&student.lastName, "last-name", "", "student last name")
	cmd.Flags().StringVar(&student.birthDate, "birth-date", "", "student birth date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&student.grade, "grade", "", "student grade")
	cmd.Flags().StringVar(&student.email, "email", "", "student email")
	cmd.Flags().StringVar(&student.phone, "phone", "", "student phone")
	cmd.Flags().StringVar(&student.address, "address", "", "student address")
	cmd.Flags().StringVar(&plan, "plan", "", "pricing plan id")
	cmd.Flags().StringVarP(&fromFile, "file", "f", "", "patch file (JSON or YAML)")
	return cmd
}

// applyFieldFlags overlays individual student and pricing flags onto the
// stored values so unchanged fields are kept.
func applyFieldFlags(ctx context.Context, client *api.Client, cmd *cobra.Command, req *api.DraftPatchRequest, student studentFlags, plan string) error {
	flags := cmd.Flags()
	studentChanged := false
	for _, name := range []string{"first-name", "last-name", "birth-date", "grade", "email", "phone", "address"} {
		if flags.Changed(name) {
			studentChanged = true
			break
		}
	}
	planChanged := flags.Changed("plan")
	if !studentChanged && !planChanged {
		return nil
	}

	current, err := client.GetDraft(ctx)
	if err != nil {
		return err
	}

	if studentChanged {
		fields := current.Student
		if req.Student != nil {
			fields = *req.Student
		}
		set := func(name string, dst *string, value string) {
			if flags.Changed(name) {
				*dst = value
			}
		}
		set("first-name", &fields.FirstName, student.firstName)
		set("last-name", &fields.LastName, student.lastName)
		set("birth-date", &fields.BirthDate, student.birthDate)
		set("grade", &fields.Grade, student.grade)
		set("email", &fields.Email, student.email)
		set("phone", &fields.Phone, student.phone)
		set("address", &fields.Address, student.address)
		req.Student = &fields
	}
	if planChanged {
		pricing := current.Pricing
		if req.Pricing != nil {
			pricing = *req.Pricing
		}
		pricing.PlanID = plan
		req.Pricing = &pricing
	}
	return nil
}

func readPatchFile(path string) (api.DraftPatchRequest, error) {
	var req api.DraftPatchRequest

	var raw []byte
	var err error
	if path == "-" {
		raw, err = io.ReadAll(os.Stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return req, fmt.Errorf("read patch: %w", err)
	}

	// YAML is a superset of JSON, so one decoder serves both.
	if err := yaml.Unmarshal(raw, &req); err != nil {
		return req, fmt.Errorf("parse patch %s: %w", path, err)
	}
	return req, nil
}

func newDraftResetCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the draft and remove its stored attachments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cfg, func(client *api.Client) error {
				resp, err := client.ResetDraft(cmd.Context())
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(resp)
				}
				if err := writeSuccess("draft reset; removed %d of %d stored attachments", resp.Removed, resp.Referenced); err != nil {
					return err
				}
				if len(resp.Failed) > 0 {
					return writeWarning("%d blobs could not be removed and are left for the next sweep: %s",
						len(resp.Failed), strings.Join(resp.Failed, ", "))
				}
				return nil
			})
		},
	}
}

func newDraftExportCmd(cfg *config.Config, out *outputOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the fully resolved draft and its files to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := args[0]
			return withClient(cfg, func(client *api.Client) error {
				sub, err := client.Submission(cmd.Context())
				if err != nil {
					return err
				}
				written, err := writeSubmission(dir, sub)
				if err != nil {
					return err
				}
				if out.structured() {
					return writeJSON(map[string]any{"dir": dir, "files": written})
				}
				return writeSuccess("exported draft and %d files to %s", len(sub.Files), dir)
			})
		},
	}
}

// writeSubmission writes draft.json plus one file per resolved attachment.
// It returns the written paths relative to dir.
func writeSubmission(dir string, sub api.SubmissionResponse) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	written := make([]string, 0, len(sub.Files)+1)
	for _, f := range sub.Files {
		name := exportFileName(f)
		if err := os.WriteFile(filepath.Join(dir, name), f.Data, 0o644); err != nil {
			return written, err
		}
		written = append(written, name)
	}

	draftFile, err := os.Create(filepath.Join(dir, "draft.json"))
	if err != nil {
		return written, err
	}
	if err := writeIndentedJSON(draftFile, sub.Draft); err != nil {
		_ = draftFile.Close()
		return written, err
	}
	if err := draftFile.Close(); err != nil {
		return written, err
	}
	return append(written, "draft.json"), nil
}

func exportFileName(f api.SubmissionFile) string {
	prefix := strings.ReplaceAll(f.Selector, "/", "-")
	base := filepath.Base(f.Name)
	if base == "." || base == string(filepath.Separator) || base == "" {
		return prefix
	}
	return prefix + "-" + base
}
