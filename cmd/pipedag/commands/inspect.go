// Package commands implements CLI command handlers for pipedag.
package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pipedag-dev/pipedag/pkg/runinfo"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

const (
	inspectCmdUse   = "inspect <run-folder>"
	inspectCmdShort = "Inspect a run folder's manifest and output completion"
	inspectArgCount = 1

	inspectYAMLFlag  = "yaml"
	inspectYAMLUsage = "dump the manifest as YAML instead of a table"
)

// NewInspectCommand creates the inspect subcommand.
func NewInspectCommand() *cobra.Command {
	var asYAML bool

	cmd := &cobra.Command{
		Use:   inspectCmdUse,
		Short: inspectCmdShort,
		Args:  cobra.ExactArgs(inspectArgCount),
		RunE: func(_ *cobra.Command, args []string) error {
			return runInspect(args[0], asYAML, os.Stdout)
		},
	}

	cmd.Flags().BoolVar(&asYAML, inspectYAMLFlag, false, inspectYAMLUsage)

	return cmd
}

func runInspect(runFolder string, asYAML bool, w io.Writer) error {
	manifest, err := runinfo.ReadManifest(runFolder)
	if err != nil {
		return fmt.Errorf("inspect %q: %w", runFolder, err)
	}

	if asYAML {
		return dumpManifestYAML(manifest, w)
	}

	printManifestTable(manifest, w)

	return printCompletionTable(manifest, w)
}

func dumpManifestYAML(manifest runinfo.Manifest, w io.Writer) error {
	encoded, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	_, err = w.Write(encoded)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

func printManifestTable(manifest runinfo.Manifest, w io.Writer) {
	heading := color.New(color.FgCyan, color.Bold)
	heading.Fprintf(w, "run folder: %s\n", manifest.RunFolder)
	heading.Fprintf(w, "storage:    %s\n", manifest.StorageID)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"output", "shape", "mask"})

	masks := masksByName(manifest.ShapeMasks)

	for _, entry := range manifest.Shapes {
		tbl.AppendRow(table.Row{entry.Name, fmt.Sprint(entry.Shape), fmt.Sprint(masks[entry.Name])})
	}

	tbl.Render()

	fmt.Fprintln(w)
	fmt.Fprintln(w, "mapspecs:")

	for _, spec := range manifest.Mapspecs {
		fmt.Fprintf(w, "  %s\n", spec)
	}
}

func printCompletionTable(manifest runinfo.Manifest, w io.Writer) error {
	if len(manifest.Shapes) == 0 {
		return nil
	}

	fmt.Fprintln(w)

	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.AppendHeader(table.Row{"output", "cells", "computed", "missing"})

	names := make([]string, 0, len(manifest.Shapes))
	shapes := make(map[string][]int, len(manifest.Shapes))

	for _, entry := range manifest.Shapes {
		names = append(names, entry.Name)
		shapes[entry.Name] = entry.Shape
	}

	sort.Strings(names)

	for _, name := range names {
		path := filepath.Join(manifest.RunFolder, "outputs", name)

		store, err := storage.Open(manifest.StorageID, path, shapes[name], name)
		if err != nil {
			return fmt.Errorf("open store %q: %w", name, err)
		}

		missing := 0

		for _, isMissing := range store.MaskLinear() {
			if isMissing {
				missing++
			}
		}

		total := len(store.MaskLinear())
		row := table.Row{name, total, total - missing, missing}

		if missing > 0 {
			row = table.Row{
				color.YellowString("%s", name), total, total - missing,
				color.RedString("%d", missing),
			}
		}

		tbl.AppendRow(row)
	}

	tbl.Render()

	return nil
}

func masksByName(entries []runinfo.MaskEntry) map[string][]bool {
	masks := make(map[string][]bool, len(entries))
	for _, e := range entries {
		masks[e.Name] = e.Mask
	}

	return masks
}
