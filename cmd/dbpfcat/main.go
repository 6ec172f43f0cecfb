// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/dbpf

// Command dbpfcat is a small inspection CLI over a DBPF archive: list its
// entries, describe/decode one as its catalog-inferred resource type, or
// dump its raw (decompressed) payload to a file. It is ambient developer
// tooling built on the archive reader, not the "interactive viewer"
// spec.md's Non-goals exclude.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/woozymasta/pathrules"

	"github.com/woozymasta/dbpf"
	"github.com/woozymasta/dbpf/cmd/dbpfcat/internal/config"
)

var (
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:   "dbpfcat",
	Short: "Inspect DBPF archives: list, decode, and dump entries",
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringP("input", "i", "", "path to the .dat/.sc4/.dbpf archive")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-output-dir", "", "directory to additionally write JSON logs to")
	rootCmd.MarkPersistentFlagRequired("input")

	viper.BindPFlag("input", rootCmd.PersistentFlags().Lookup("input"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.PersistentFlags().Lookup("log-output-dir"))

	listCmd.Flags().StringVar(&cfg.Label, "label", "", "only list entries matching this exact catalog label")
	viper.BindPFlag("label", listCmd.Flags().Lookup("label"))
	listCmd.Flags().String("label-glob", "", "only list entries whose catalog label matches this shell-glob pattern (e.g. \"Exemplar (*Road*)\")")
	viper.BindPFlag("label_glob", listCmd.Flags().Lookup("label-glob"))

	catCmd.Flags().String("type", "", "resource type, as hex (e.g. 6534284a)")
	catCmd.Flags().String("group", "", "resource group, as hex")
	catCmd.Flags().String("instance", "", "resource instance, as hex")
	catCmd.Flags().String("label", "", "catalog label to resolve instead of a type/group/instance triple")

	dumpCmd.Flags().String("type", "", "resource type, as hex")
	dumpCmd.Flags().String("group", "", "resource group, as hex")
	dumpCmd.Flags().String("instance", "", "resource instance, as hex")
	dumpCmd.Flags().String("label", "", "catalog label to resolve instead of a type/group/instance triple")
	dumpCmd.Flags().StringP("output", "o", "", "file to write the decompressed payload to (default: stdout)")

	rootCmd.AddCommand(listCmd, catCmd, dumpCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "dbpfcat"))
		}
		viper.AddConfigPath("/etc/dbpfcat")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("DBPFCAT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List every entry in the archive, with its catalog label",
	RunE:  runList,
}

var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Decode one entry and print it as its catalog-inferred resource type",
	RunE:  runCat,
}

var dumpCmd = &cobra.Command{
	Use:   "dump",
	Short: "Write one entry's raw decompressed payload to a file (or stdout)",
	RunE:  runDump,
}

func openReader() (*dbpf.Reader, error) {
	opts, err := dbpf.LoadReaderOptions(viper.GetViper())
	if err != nil {
		return nil, err
	}
	return dbpf.OpenWithOptions(viper.GetString("input"), opts)
}

func runList(cmd *cobra.Command, args []string) error {
	r, err := openReader()
	if err != nil {
		return err
	}
	defer r.Close()

	label := viper.GetString("label")
	labelGlob := viper.GetString("label_glob")

	var entries []*dbpf.IndexEntry
	switch {
	case labelGlob != "":
		entries, err = r.FindEntriesByLabelGlob([]pathrules.Rule{
			{Action: pathrules.ActionInclude, Pattern: labelGlob},
		}, pathrules.MatcherOptions{
			CaseInsensitive: true,
			DefaultAction:   pathrules.ActionExclude,
		})
		if err != nil {
			return err
		}
	default:
		entries = r.Entries()
	}

	for _, e := range entries {
		desc := r.Describe(e)
		if label != "" && desc != label {
			continue
		}
		fmt.Printf("%08x:%08x:%08x  %-28s  offset=%d size=%d\n",
			e.Key.Type, e.Key.Group, e.Key.Instance, desc, e.Offset, e.Size)
	}
	return nil
}

// resolveRef builds a dbpf entry reference (a Mask or a label string)
// from the cat/dump commands' shared --type/--group/--instance/--label
// flags.
func resolveRef(cmd *cobra.Command) (any, error) {
	label, _ := cmd.Flags().GetString("label")
	if label != "" {
		return label, nil
	}

	typeStr, _ := cmd.Flags().GetString("type")
	groupStr, _ := cmd.Flags().GetString("group")
	instanceStr, _ := cmd.Flags().GetString("instance")
	if typeStr == "" && groupStr == "" && instanceStr == "" {
		return nil, fmt.Errorf("one of --label or --type/--group/--instance is required")
	}

	mask := dbpf.Mask{}
	if typeStr != "" {
		v, err := parseHex32(typeStr)
		if err != nil {
			return nil, fmt.Errorf("--type: %w", err)
		}
		mask.Type = &v
	}
	if groupStr != "" {
		v, err := parseHex32(groupStr)
		if err != nil {
			return nil, fmt.Errorf("--group: %w", err)
		}
		mask.Group = &v
	}
	if instanceStr != "" {
		v, err := parseHex32(instanceStr)
		if err != nil {
			return nil, fmt.Errorf("--instance: %w", err)
		}
		mask.Instance = &v
	}
	return mask, nil
}

func parseHex32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

func runCat(cmd *cobra.Command, args []string) error {
	r, err := openReader()
	if err != nil {
		return err
	}
	defer r.Close()

	ref, err := resolveRef(cmd)
	if err != nil {
		return err
	}

	if mask, ok := ref.(dbpf.Mask); ok {
		matches := r.FindEntries(mask)
		if len(matches) == 0 {
			return fmt.Errorf("no entry matches %+v", mask)
		}
		ref = matches[0]
	}

	entry, err := toEntry(r, ref)
	if err != nil {
		return err
	}

	switch r.Describe(entry) {
	case "LText":
		rec, err := r.LoadLText(entry)
		if err != nil {
			return err
		}
		fmt.Println(rec.ToUTF8())
	case "RUL0 (Intersection Ordering)":
		rec, err := r.LoadRUL0(entry, dbpf.NewINIv1Source())
		if err != nil {
			return err
		}
		fmt.Printf("%d orderings, %d pieces\n", len(rec.Orderings), len(rec.Pieces))
	default:
		rec, err := r.LoadExemplar(entry)
		if err != nil {
			return err
		}
		fmt.Printf("parent=%+v cohort=%v properties=%d\n", rec.Parent, rec.IsCohort, len(rec.Properties))
	}
	return nil
}

func toEntry(r *dbpf.Reader, ref any) (*dbpf.IndexEntry, error) {
	if e, ok := ref.(*dbpf.IndexEntry); ok {
		return e, nil
	}
	if key, ok := ref.(dbpf.Key); ok {
		return r.FindEntry(key)
	}
	if label, ok := ref.(string); ok {
		matches, err := r.FindEntriesByLabel(label)
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no entry matches label %q", label)
		}
		return matches[0], nil
	}
	return nil, fmt.Errorf("unresolved entry reference %v", ref)
}

func runDump(cmd *cobra.Command, args []string) error {
	r, err := openReader()
	if err != nil {
		return err
	}
	defer r.Close()

	ref, err := resolveRef(cmd)
	if err != nil {
		return err
	}
	if mask, ok := ref.(dbpf.Mask); ok {
		matches := r.FindEntries(mask)
		if len(matches) == 0 {
			return fmt.Errorf("no entry matches %+v", mask)
		}
		ref = matches[0]
	}
	entry, err := toEntry(r, ref)
	if err != nil {
		return err
	}

	payload, err := r.ReadEntry(entry)
	if err != nil {
		return err
	}

	outputPath, _ := cmd.Flags().GetString("output")
	if outputPath == "" {
		_, err := os.Stdout.Write(payload)
		return err
	}
	return os.WriteFile(outputPath, payload, 0o644)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
