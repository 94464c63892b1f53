package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	charmlog "github.com/charmbracelet/log"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"siteplan/internal/config"
	"siteplan/internal/db"
	"siteplan/internal/export"
	"siteplan/internal/idstore"
	"siteplan/internal/migrate"
	"siteplan/internal/snapshot"
)

var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
	Prefix:          "sp",
})

var rootCmd = &cobra.Command{
	Use:   "sp",
	Short: "Siteplan schedule exporter",
	Long: `Siteplan exports a construction-project schedule snapshot into
third-party scheduling files.

Two formats are supported: msproject (hierarchical outline with a synthetic
root node) and p6 (flat outline, WBS containers for work areas). Exports are
idempotent: entity identifiers are persisted per project and format family
in the workspace database, so re-exporting an unchanged project reproduces
them and incremental changes extend the identifier space instead of
renumbering it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if viper.GetBool("verbose") {
			logger.SetLevel(charmlog.DebugLevel)
		}
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("SITEPLAN")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().String("config", "siteplan.yml", "config file with export defaults")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "debug logging")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(idsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(snapshotCmd())
}

func exportCmd() *cobra.Command {
	var snapshotPath, out, format string
	var taskMode, milestoneMode string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a snapshot to a scheduling file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			opts := optionsFromConfig(cfg)
			if cmd.Flags().Changed("format") {
				opts.Format = export.Format(format)
			}
			if cmd.Flags().Changed("milestones") {
				opts.IncludeMilestones, _ = cmd.Flags().GetBool("milestones")
			}
			if cmd.Flags().Changed("comments") {
				opts.IncludeComments, _ = cmd.Flags().GetBool("comments")
			}
			if cmd.Flags().Changed("task-mode") {
				opts.TaskSchedulingMode = export.SchedulingMode(taskMode)
			}
			if cmd.Flags().Changed("milestone-mode") {
				opts.MilestoneSchedulingMode = export.SchedulingMode(milestoneMode)
			}

			snap, err := snapshot.Load(snapshotPath)
			if err != nil {
				return err
			}
			logger.Debug("snapshot loaded",
				"project", snap.Project.ID,
				"tasks", len(snap.Tasks),
				"work_areas", len(snap.WorkAreas))

			return withStore(cmd.Context(), func(ctx context.Context, store *idstore.Store) error {
				exp := export.NewExporter(store)
				data, err := exp.Export(ctx, snap, opts)
				if err != nil {
					return err
				}
				if out == "" || out == "-" {
					_, err = os.Stdout.Write(data)
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return err
				}
				logger.Info("exported", "format", opts.Format, "bytes", len(data), "file", out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&snapshotPath, "snapshot", "", "snapshot YAML file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&format, "format", "", "target format (msproject, p6)")
	cmd.Flags().Bool("milestones", true, "include milestones")
	cmd.Flags().Bool("comments", true, "include topics/messages in task notes")
	cmd.Flags().StringVar(&taskMode, "task-mode", "", "task scheduling mode (auto, manual)")
	cmd.Flags().StringVar(&milestoneMode, "milestone-mode", "", "milestone scheduling mode (auto, manual)")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

func idsCmd() *cobra.Command {
	ids := &cobra.Command{
		Use:   "ids",
		Short: "Inspect persisted identifier assignments",
	}
	ids.AddCommand(idsListCmd())
	ids.AddCommand(idsResetCmd())
	return ids
}

func idsListCmd() *cobra.Command {
	var projectID, family string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored guid to uniqueId assignments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *idstore.Store) error {
				state, err := store.Load(ctx, projectID, family)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(state)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"Unique ID", "Type", "GUID"})
				for _, a := range state.Assignments {
					tw.AppendRow(table.Row{a.UniqueID, a.ObjectType, a.ObjectGUID})
				}
				tw.Render()
				fmt.Printf("next id: %d\n", state.NextID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&family, "family", "msproject", "format family (msproject, p6)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func idsResetCmd() *cobra.Command {
	var projectID, family string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Drop assignments for a project so the next export starts fresh",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *idstore.Store) error {
				if err := store.Reset(ctx, projectID, family); err != nil {
					return err
				}
				logger.Info("identifier space reset", "project", projectID, "family", family)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id")
	cmd.Flags().StringVar(&family, "family", "msproject", "format family (msproject, p6)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func historyCmd() *cobra.Command {
	var projectID string
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past exports",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), func(ctx context.Context, store *idstore.Store) error {
				records, err := store.History(ctx, projectID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(records)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"When", "Project", "Family", "Bytes", "Nodes"})
				for _, r := range records {
					tw.AppendRow(table.Row{r.ExportedAt.Format("2006-01-02 15:04:05"), r.ProjectID, r.Family, r.ByteCount, r.NodeCount})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&projectID, "project", "", "project id filter")
	return cmd
}

func snapshotCmd() *cobra.Command {
	snap := &cobra.Command{
		Use:   "snapshot",
		Short: "Work with snapshot files",
	}
	snap.AddCommand(snapshotValidateCmd())
	return snap
}

func snapshotValidateCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a snapshot file without exporting",
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := snapshot.Load(path)
			if viper.GetBool("json") {
				out := map[string]any{"ok": err == nil}
				if err != nil {
					out["error"] = err.Error()
				}
				return printJSON(out)
			}
			if err != nil {
				return err
			}
			fmt.Printf("snapshot OK: project %s, %d work areas, %d tasks, %d milestone lists\n",
				snap.Project.ID, len(snap.WorkAreas), len(snap.Tasks), len(snap.MilestoneLists))
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "snapshot", "", "snapshot YAML file")
	_ = cmd.MarkFlagRequired("snapshot")
	return cmd
}

// --- helpers ---

func optionsFromConfig(cfg config.Config) export.Options {
	return export.Options{
		Format:                  export.Format(cfg.Export.Format),
		IncludeMilestones:       cfg.Export.IncludeMilestones,
		IncludeComments:         cfg.Export.IncludeComments,
		TaskSchedulingMode:      export.SchedulingMode(cfg.Export.TaskSchedulingMode),
		MilestoneSchedulingMode: export.SchedulingMode(cfg.Export.MilestoneSchedulingMode),
	}
}

func withStore(ctx context.Context, fn func(context.Context, *idstore.Store) error) error {
	workspace := viper.GetString("workspace")
	conn, err := db.Open(db.Config{Workspace: workspace})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, idstore.New(conn))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
