package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pipedag-dev/pipedag/pkg/runinfo"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

const (
	loadCmdUse   = "load <run-folder> <output> [output...]"
	loadCmdShort = "Print one or more outputs of a completed run as JSON"
	loadMinArgs  = 2
)

// NewLoadCommand creates the load subcommand.
func NewLoadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   loadCmdUse,
		Short: loadCmdShort,
		Args:  cobra.MinimumNArgs(loadMinArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			return runLoad(args[0], args[1:], os.Stdout)
		},
	}
}

func runLoad(runFolder string, names []string, w io.Writer) error {
	manifest, err := runinfo.ReadManifest(runFolder)
	if err != nil {
		return fmt.Errorf("load %q: %w", runFolder, err)
	}

	shapes := make(map[string][]int, len(manifest.Shapes))
	for _, entry := range manifest.Shapes {
		shapes[entry.Name] = entry.Shape
	}

	values := make(map[string]any, len(names))

	for _, name := range names {
		value, err := loadOne(manifest, shapes, name)
		if err != nil {
			return err
		}

		values[name] = value
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	err = encoder.Encode(values)
	if err != nil {
		return fmt.Errorf("encode outputs: %w", err)
	}

	return nil
}

func loadOne(manifest runinfo.Manifest, shapes map[string][]int, name string) (any, error) {
	shape, mapped := shapes[name]
	if !mapped {
		value, err := runinfo.LoadUnmappedOutput(manifest.RunFolder, name)
		if err != nil {
			return nil, fmt.Errorf("load output %q: %w", name, err)
		}

		return value, nil
	}

	path := filepath.Join(manifest.RunFolder, "outputs", name)

	store, err := storage.Open(manifest.StorageID, path, shape, name)
	if err != nil {
		return nil, fmt.Errorf("open store %q: %w", name, err)
	}

	nested, err := materialize(store)
	if err != nil {
		return nil, fmt.Errorf("materialise output %q: %w", name, err)
	}

	return nested, nil
}

// materialize reads every cell of store into a nested []any of the same
// shape. Mirrors the top-level package's own materialize helper; the CLI
// intentionally does not import the root pipedag package, since that
// package's Run/LoadOutputs both require a live *pipefunc.Pipeline that a
// standalone inspection binary never has.
func materialize(store storage.Storage) (any, error) {
	shape := store.Shape()
	view := store.ToArray()

	return materializeAxis(shape, 0, nil, view)
}

func materializeAxis(shape []int, axis int, prefix []int, view *storage.LazyArray) (any, error) {
	if axis == len(shape) {
		key := make([]int, len(prefix))
		copy(key, prefix)

		return view.At(key)
	}

	extent := shape[axis]
	result := make([]any, extent)

	for idx := range extent {
		value, err := materializeAxis(shape, axis+1, append(prefix, idx), view) //nolint:makezero // append grows along one recursive path only
		if err != nil {
			return nil, err
		}

		result[idx] = value
	}

	return result, nil
}
