package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/warp/financeflow/export"
	"github.com/warp/financeflow/factory"
	"github.com/warp/financeflow/generic"
	"github.com/warp/financeflow/longterm"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func (a *App) projectCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project a scenario file",
		Example: `  financeflow project -f family.yaml
  financeflow project -f family.toml -y csv,pdf -d reports`,
		RunE: a.runProject,
	}
	cmd.Flags().StringP("file", "f", "", "Scenario file (JSON, YAML or TOML)")
	cmd.Flags().StringSliceP("report-type", "y", []string{string(export.FormatTable)}, "Report types: table, csv, json, pdf")
	cmd.Flags().StringP("dir", "d", "", "Directory for report files (default: current directory)")
	cmd.Flags().StringP("report-name", "n", "", "Base name for report files (default: scenario name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *App) validateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scenario file without projecting it",
		RunE:  a.runValidate,
	}
	cmd.Flags().StringP("file", "f", "", "Scenario file (JSON, YAML or TOML)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *App) runValidate(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	sc, err := a.plans.LoadScenario(path)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s %s\n", green("OK"), sc.Name)
	for _, label := range longterm.PeriodLabels(sc.Input) {
		fmt.Fprintf(a.out, "  %s\n", label)
	}
	missing := longterm.MissingTemplates(sc.Plan.Periods, sc.Input.Templates)
	for _, kind := range generic.Kinds {
		if ids := missing[kind]; len(ids) > 0 {
			fmt.Fprintf(a.out, "%s %s templates not defined: %v\n", yellow("WARN"), kind, ids)
		}
	}
	return nil
}

func (a *App) runProject(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString("file")
	types, _ := cmd.Flags().GetStringSlice("report-type")
	dir, _ := cmd.Flags().GetString("dir")
	name, _ := cmd.Flags().GetString("report-name")

	formats, err := parseFormats(types)
	if err != nil {
		return err
	}

	sc, err := a.plans.LoadScenario(path)
	if err != nil {
		return err
	}
	proj, err := longterm.Project(sc.Input)
	if err != nil {
		return fmt.Errorf("projection failed: %w", err)
	}

	report := export.Report{
		Title:       sc.Name,
		Description: sc.Description,
		Periods:     longterm.PeriodLabels(sc.Input),
		Projection:  proj,
		GeneratedAt: time.Now(),
	}
	if name == "" {
		name = scenarioBase(sc, path)
	}

	for _, format := range formats {
		if format == export.FormatTable {
			fmt.Fprint(a.out, export.RenderTable(report))
			continue
		}
		written, err := export.ToFile(dir, name, format, report)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "%s %s report saved to %s\n", green("✓"), strings.ToUpper(string(format)), cyan(written))
	}
	return nil
}

func parseFormats(types []string) ([]export.Format, error) {
	seen := make(map[export.Format]bool, len(types))
	var formats []export.Format
	for _, t := range types {
		f, err := export.ParseFormat(t)
		if err != nil {
			return nil, err
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		formats = []export.Format{export.FormatTable}
	}
	return formats, nil
}

func scenarioBase(sc *factory.Scenario, path string) string {
	if sc.Name != "" {
		return sc.Name
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
