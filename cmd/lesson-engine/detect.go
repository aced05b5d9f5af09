package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/lesson-engine/internal/dto"
	"github.com/noah-isme/lesson-engine/internal/models"
	"github.com/noah-isme/lesson-engine/internal/service"
)

// errConflictsFound makes detect exit non-zero under --fail-on-conflict.
var errConflictsFound = fmt.Errorf("conflicts found")

func newDetectCmd() *cobra.Command {
	var (
		file           string
		output         string
		dimensions     []string
		failOnConflict bool
	)
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Detect conflicts in a session snapshot file",
		Long: "Reads a JSON or YAML file holding {sessions: [...]} and prints the conflict report.\n" +
			"Use --file - to read from stdin (YAML, which also accepts JSON).",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := readSnapshot(cmd.InOrStdin(), file)
			if err != nil {
				return err
			}
			for _, d := range dimensions {
				req.Dimensions = append(req.Dimensions, models.ResourceDimension(strings.ToLower(d)))
			}

			svc := service.NewScheduleInsightService(nil, nil, nil, nil, service.WorkdayWindow{}, nil, nil)
			report, err := svc.DetectSnapshot(context.Background(), req)
			if err != nil {
				return err
			}
			if err := writeReport(cmd.OutOrStdout(), output, report); err != nil {
				return err
			}
			if failOnConflict && !report.Empty() {
				return errConflictsFound
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "session snapshot file (.json, .yaml, .yml or - for stdin)")
	cmd.Flags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")
	cmd.Flags().StringSliceVar(&dimensions, "dimension", nil, "restrict detection to teacher, classroom or student (repeatable)")
	cmd.Flags().BoolVar(&failOnConflict, "fail-on-conflict", false, "exit non-zero when any conflict group is found")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func readSnapshot(stdin io.Reader, file string) (dto.DetectConflictsRequest, error) {
	var (
		raw []byte
		err error
	)
	if file == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(file)
	}
	if err != nil {
		return dto.DetectConflictsRequest{}, fmt.Errorf("read snapshot: %w", err)
	}

	var req dto.DetectConflictsRequest
	if strings.EqualFold(filepath.Ext(file), ".json") {
		err = json.Unmarshal(raw, &req)
	} else {
		err = yaml.Unmarshal(raw, &req)
	}
	if err != nil {
		return dto.DetectConflictsRequest{}, fmt.Errorf("decode snapshot %s: %w", file, err)
	}
	return req, nil
}

func writeReport(w io.Writer, format string, report models.ConflictReport) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(report); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}
