// Package runinfo resolves and freezes everything a run of a pipeline
// needs before any function executes: serialized function descriptors,
// serialized root inputs, and the shape/shape-mask of every mapped name,
// all recorded in a JSON manifest the scheduler and a later inspection
// tool can both trust.
package runinfo

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipedag-dev/pipedag/pkg/mapspec"
	"github.com/pipedag-dev/pipedag/pkg/persist"
	"github.com/pipedag-dev/pipedag/pkg/pipefunc"
	"github.com/pipedag-dev/pipedag/pkg/schemavalidate"
	"github.com/pipedag-dev/pipedag/pkg/shape"
	"github.com/pipedag-dev/pipedag/pkg/storage"
)

const (
	functionsDir = "functions"
	inputsDir    = "inputs"
	outputsDir   = "outputs"
	manifestName = "run_info.json"
	dirPerm      = 0o755
	filePerm     = 0o644
)

// RunInfo is the immutable result of resolving a pipeline against a set
// of run inputs: it freezes function descriptors, input locations, and
// the shape of every mapped name for the scheduler to consume.
type RunInfo struct {
	manifest   Manifest
	pipeline   *pipefunc.Pipeline
	resolution *shape.Resolution
}

// Create resolves pipeline against inputs and internalShapes, writing
// function descriptors and root input blobs under runFolder, and
// returns the frozen RunInfo. If cleanup is true, any functions/,
// inputs/, and outputs/ subfolders from a prior run are removed first.
func Create(
	runFolder string,
	pipeline *pipefunc.Pipeline,
	inputs map[string]any,
	internalShapes map[string][]int,
	storageID string,
	cleanup bool,
) (*RunInfo, error) {
	if cleanup {
		err := cleanSubfolders(runFolder)
		if err != nil {
			return nil, err
		}
	}

	err := makeSubfolders(runFolder)
	if err != nil {
		return nil, err
	}

	codec := persist.NewGobCodec()

	functionPaths, err := writeFunctionDescriptors(runFolder, pipeline, codec)
	if err != nil {
		return nil, err
	}

	inputPaths, err := writeInputs(runFolder, inputs, codec)
	if err != nil {
		return nil, err
	}

	resolution, err := shape.Resolve(pipeline, inputs, internalShapes)
	if err != nil {
		return nil, err
	}

	absFolder, err := filepath.Abs(runFolder)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute run folder: %w", err)
	}

	manifest := Manifest{
		Functions:  functionPaths,
		Inputs:     inputPaths,
		Shapes:     shapeEntries(resolution.Shapes),
		ShapeMasks: maskEntries(resolution.Masks),
		Mapspecs:   mapspecStrings(pipeline.Mapspecs()),
		StorageID:  storageID,
		RunFolder:  absFolder,
	}

	return &RunInfo{manifest: manifest, pipeline: pipeline, resolution: resolution}, nil
}

// Load reads and validates a previously written run_info.json under
// runFolder, pairing it with pipeline (the same DAG the run was created
// with — function closures are never persisted, only their descriptors,
// so the caller must supply the live Pipeline to re-open storages or
// resume execution against it).
func Load(runFolder string, pipeline *pipefunc.Pipeline) (*RunInfo, error) {
	manifest, err := ReadManifest(runFolder)
	if err != nil {
		return nil, err
	}

	resolution := &shape.Resolution{
		Shapes: shapesFromEntries(manifest.Shapes),
		Masks:  masksFromEntries(manifest.ShapeMasks),
	}

	return &RunInfo{manifest: manifest, pipeline: pipeline, resolution: resolution}, nil
}

// ReadManifest reads and schema-validates run_info.json under runFolder
// without requiring the originating Pipeline. Callers that only inspect
// or spot-load a run's outputs (the pipedag CLI) use this directly
// instead of Load, since function closures are never persisted and a
// manifest read has no use for a live Pipeline.
func ReadManifest(runFolder string) (Manifest, error) {
	path := filepath.Join(runFolder, manifestName)

	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var manifest Manifest

	err = json.Unmarshal(data, &manifest)
	if err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}

	err = schemavalidate.ValidateRunInfo(manifest)
	if err != nil {
		return Manifest{}, fmt.Errorf("validate manifest: %w", err)
	}

	return manifest, nil
}

// LoadUnmappedOutput reads the persisted value of an unmapped function's
// output from outputs/<name>.gob, the same file runUnmapped's scheduler
// persists to.
func LoadUnmappedOutput(runFolder, name string) (any, error) {
	dir := filepath.Join(runFolder, outputsDir)

	var value any

	err := persist.LoadState(dir, name, persist.NewGobCodec(), &value)
	if err != nil {
		return nil, fmt.Errorf("load output %q: %w", name, err)
	}

	return value, nil
}

func shapesFromEntries(entries []ShapeEntry) map[string][]int {
	shapes := make(map[string][]int, len(entries))
	for _, e := range entries {
		shapes[e.Name] = e.Shape
	}

	return shapes
}

func masksFromEntries(entries []MaskEntry) map[string][]bool {
	masks := make(map[string][]bool, len(entries))
	for _, e := range entries {
		masks[e.Name] = e.Mask
	}

	return masks
}

func cleanSubfolders(runFolder string) error {
	for _, sub := range []string{functionsDir, inputsDir, outputsDir} {
		err := os.RemoveAll(filepath.Join(runFolder, sub))
		if err != nil {
			return fmt.Errorf("clean %s: %w", sub, err)
		}
	}

	return nil
}

func makeSubfolders(runFolder string) error {
	for _, sub := range []string{functionsDir, inputsDir, outputsDir} {
		err := os.MkdirAll(filepath.Join(runFolder, sub), dirPerm)
		if err != nil {
			return fmt.Errorf("create %s: %w", sub, err)
		}
	}

	return nil
}

func writeFunctionDescriptors(runFolder string, pipeline *pipefunc.Pipeline, codec persist.Codec) ([]string, error) {
	dir := filepath.Join(runFolder, functionsDir)
	paths := make([]string, 0, len(pipeline.Funcs()))

	for _, f := range pipeline.Funcs() {
		desc := describeFunc(f)

		err := persist.SaveState(dir, f.Name, codec, desc)
		if err != nil {
			return nil, fmt.Errorf("save descriptor for %q: %w", f.Name, err)
		}

		paths = append(paths, filepath.Join(functionsDir, f.Name+codec.Extension()))
	}

	return paths, nil
}

func writeInputs(runFolder string, inputs map[string]any, codec persist.Codec) (map[string]string, error) {
	dir := filepath.Join(runFolder, inputsDir)
	paths := make(map[string]string, len(inputs))

	for name, value := range inputs {
		err := persist.SaveState(dir, name, codec, value)
		if err != nil {
			return nil, fmt.Errorf("save input %q: %w", name, err)
		}

		paths[name] = filepath.Join(inputsDir, name+codec.Extension())
	}

	return paths, nil
}

func shapeEntries(shapes map[string][]int) []ShapeEntry {
	entries := make([]ShapeEntry, 0, len(shapes))
	for name, s := range shapes {
		entries = append(entries, ShapeEntry{Name: name, Shape: s})
	}

	return entries
}

func maskEntries(masks map[string][]bool) []MaskEntry {
	entries := make([]MaskEntry, 0, len(masks))
	for name, m := range masks {
		entries = append(entries, MaskEntry{Name: name, Mask: m})
	}

	return entries
}

func mapspecStrings(specs []*mapspec.MapSpec) []string {
	texts := make([]string, 0, len(specs))
	for _, s := range specs {
		texts = append(texts, s.String())
	}

	return texts
}

// Dump validates the manifest against the published JSON Schema and
// writes it to runFolder/run_info.json.
func (r *RunInfo) Dump(runFolder string) error {
	err := schemavalidate.ValidateRunInfo(r.manifest)
	if err != nil {
		return fmt.Errorf("validate manifest: %w", err)
	}

	encoded, err := json.MarshalIndent(r.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	path := filepath.Join(runFolder, manifestName)

	err = os.WriteFile(path, encoded, filePerm)
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}

// InitStore opens one Storage per mapspec-produced name, including every
// name inside a tuple output, sharing the resolved shape across all
// names one function produces.
func (r *RunInfo) InitStore() (map[string]storage.Storage, error) {
	stores := make(map[string]storage.Storage)

	for _, f := range r.pipeline.Funcs() {
		if f.MapSpec == nil {
			continue
		}

		for _, name := range f.OutputNames {
			s, ok := r.resolution.Shapes[name]
			if !ok {
				return nil, fmt.Errorf("%w: %q", ErrMissingShape, name)
			}

			path := filepath.Join(r.manifest.RunFolder, outputsDir, name)

			store, err := storage.Open(r.manifest.StorageID, path, s, name)
			if err != nil {
				return nil, fmt.Errorf("open store for %q: %w", name, err)
			}

			stores[name] = store
		}
	}

	return stores, nil
}

// Manifest returns the frozen manifest.
func (r *RunInfo) Manifest() Manifest {
	return r.manifest
}

// Shapes returns the resolved shape of every mapped name.
func (r *RunInfo) Shapes() map[string][]int {
	return r.resolution.Shapes
}

// ShapeMasks returns the resolved shape mask of every mapped name.
func (r *RunInfo) ShapeMasks() map[string][]bool {
	return r.resolution.Masks
}

// Pipeline returns the pipeline this RunInfo was resolved against.
func (r *RunInfo) Pipeline() *pipefunc.Pipeline {
	return r.pipeline
}
