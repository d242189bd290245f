package storage

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pipedag-dev/pipedag/pkg/persist"
)

const (
	shapeManifestName = "shape.json"
	dirPerm           = 0o755
	filePerm          = 0o644
)

// Cell values pass through GetFromIndex as interface{}, and gob requires
// any concrete type ever decoded into an interface{} slot to be
// registered up front. The scalar and slice kinds a mapped function is
// likely to return are registered here; a function returning an
// unregistered struct type must register it itself before the first run.
func init() {
	gob.Register(int(0))
	gob.Register(int64(0))
	gob.Register(float64(0))
	gob.Register(string(""))
	gob.Register(bool(false))
	gob.Register([]int{})
	gob.Register([]float64{})
	gob.Register([]string{})
	gob.Register([]any{})
	gob.Register(map[string]any{})
}

// shapeManifest is the on-disk record written once per FileArrayStore
// directory, letting a reopened store confirm it agrees with the caller
// about dimensionality.
type shapeManifest struct {
	StorageID string `json:"storage_id"`
	Shape     []int  `json:"shape"`
}

// FileArrayStore persists each cell as its own file under root, named by
// its multi-index key joined with "/" plus the codec's extension (e.g.
// "0/1/2.gob.lz4"). Distinct cells are written to distinct paths, so
// concurrent workers may Dump disjoint keys without additional locking.
type FileArrayStore struct {
	root      string
	shape     []int
	storageID string
	codec     persist.Codec
}

// OpenFileArray creates root if absent and writes a shape manifest
// idempotently: a fresh directory gets one written; an existing manifest
// must agree with shape or ErrShapeMismatch is returned.
func OpenFileArray(root string, shape []int, storageID string, codec persist.Codec) (*FileArrayStore, error) {
	err := os.MkdirAll(root, dirPerm)
	if err != nil {
		return nil, fmt.Errorf("create storage directory %q: %w", root, err)
	}

	err = reconcileShapeManifest(root, shape, storageID)
	if err != nil {
		return nil, err
	}

	return &FileArrayStore{root: root, shape: shape, storageID: storageID, codec: codec}, nil
}

func reconcileShapeManifest(root string, shape []int, storageID string) error {
	path := filepath.Join(root, shapeManifestName)

	existing, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("read shape manifest: %w", err)
		}

		return writeShapeManifest(path, shape, storageID)
	}

	var manifest shapeManifest

	err = json.Unmarshal(existing, &manifest)
	if err != nil {
		return fmt.Errorf("parse shape manifest: %w", err)
	}

	if !equalShape(manifest.Shape, shape) {
		return fmt.Errorf("%w: on-disk shape %v, requested %v", ErrShapeMismatch, manifest.Shape, shape)
	}

	return nil
}

func writeShapeManifest(path string, shape []int, storageID string) error {
	manifest := shapeManifest{StorageID: storageID, Shape: shape}

	encoded, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("encode shape manifest: %w", err)
	}

	err = os.WriteFile(path, encoded, filePerm)
	if err != nil {
		return fmt.Errorf("write shape manifest: %w", err)
	}

	return nil
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}

	for idx := range a {
		if a[idx] != b[idx] {
			return false
		}
	}

	return true
}

// Shape implements Storage.
func (s *FileArrayStore) Shape() []int {
	return s.shape
}

func (s *FileArrayStore) cellPath(key []int) string {
	return filepath.Join(s.root, keyString(key)+s.codec.Extension())
}

// Dump implements Storage.
func (s *FileArrayStore) Dump(key []int, value any) error {
	path := s.cellPath(key)

	err := os.MkdirAll(filepath.Dir(path), dirPerm)
	if err != nil {
		return fmt.Errorf("create cell directory for %v: %w", key, err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create cell blob for %v: %w", key, err)
	}
	defer file.Close()

	err = s.codec.Encode(file, &value)
	if err != nil {
		return fmt.Errorf("encode cell %v: %w", key, err)
	}

	return nil
}

// GetFromIndex implements Storage.
func (s *FileArrayStore) GetFromIndex(linearIndex int) (any, error) {
	key := unravel(s.shape, linearIndex)

	path := s.cellPath(key)

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %v", ErrCellMissing, key)
		}

		return nil, fmt.Errorf("open cell blob for %v: %w", key, err)
	}
	defer file.Close()

	var value any

	err = s.codec.Decode(file, &value)
	if err != nil {
		return nil, fmt.Errorf("decode cell %v: %w", key, err)
	}

	return value, nil
}

// MaskLinear implements Storage.
func (s *FileArrayStore) MaskLinear() []bool {
	total := size(s.shape)
	mask := make([]bool, total)

	for idx := range total {
		key := unravel(s.shape, idx)

		_, err := os.Stat(s.cellPath(key))
		mask[idx] = err != nil
	}

	return mask
}

// ToArray implements Storage.
func (s *FileArrayStore) ToArray() *LazyArray {
	return newLazyArray(s)
}

// Parallelizable implements Storage: file-backed stores write to
// distinct, key-disjoint paths and support concurrent workers.
func (s *FileArrayStore) Parallelizable() bool {
	return true
}

// Persist implements Storage. Every Dump already lands on disk, so there
// is nothing to flush.
func (s *FileArrayStore) Persist() error {
	return nil
}
