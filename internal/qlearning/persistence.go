package qlearning

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// PersistenceType represents the type of persistence backend
type PersistenceType string

const (
	// PersistenceTypeNone disables persistence
	PersistenceTypeNone PersistenceType = "none"
	// PersistenceTypeFile stores one file per table
	PersistenceTypeFile PersistenceType = "file"
)

// Codec selects the on-disk encoding of a table file.
type Codec string

const (
	CodecProto Codec = "proto"
	CodecJSON  Codec = "json"
)

// PersistenceConfig contains configuration for value-table persistence
type PersistenceConfig struct {
	Type  PersistenceType
	Codec Codec

	// Dir holds exported tables, one file per table name.
	Dir string
	// ImportDir, when set, seeds tables from a previous run.
	ImportDir string
	// ExportEvery writes a table after this many updates. 1 is write-through;
	// 0 disables export except for the final flush.
	ExportEvery int
}

// DefaultPersistenceConfig returns a configuration with persistence disabled
func DefaultPersistenceConfig() PersistenceConfig {
	return PersistenceConfig{
		Type:        PersistenceTypeNone,
		Codec:       CodecProto,
		Dir:         "qtables",
		ExportEvery: 1,
	}
}

// TableStore loads and saves whole value tables.
type TableStore interface {
	Load(path string) (map[Key][]float64, error)
	Save(path string, table map[Key][]float64) error
	// Path returns the storage location for a named table.
	Path(name string) string
	Stats() StoreStats
}

// StoreStats contains statistics about persistence operations
type StoreStats struct {
	Saves        int64
	Loads        int64
	SaveErrors   int64
	LoadErrors   int64
	BytesWritten int64
	LastSaveTime time.Time
}

// FileStore keeps each table in its own file.
type FileStore struct {
	dir    string
	codec  Codec
	logger zerolog.Logger

	mu    sync.Mutex
	stats StoreStats
}

// NewFileStore creates a file-backed store rooted at dir.
func NewFileStore(dir string, codec Codec, logger zerolog.Logger) (*FileStore, error) {
	if codec == "" {
		codec = CodecProto
	}
	if codec != CodecProto && codec != CodecJSON {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCodec, codec)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create table directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		codec:  codec,
		logger: logger.With().Str("component", "table_store").Logger(),
	}, nil
}

// Path returns the file used for the named table.
func (s *FileStore) Path(name string) string {
	ext := ".pb"
	if s.codec == CodecJSON {
		ext = ".json"
	}
	return filepath.Join(s.dir, name+ext)
}

// Save encodes table and atomically replaces the file at path.
func (s *FileStore) Save(path string, table map[Key][]float64) error {
	data, err := s.encode(table)
	if err != nil {
		s.recordSaveError()
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		s.recordSaveError()
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		s.recordSaveError()
		return fmt.Errorf("failed to write table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		s.recordSaveError()
		return fmt.Errorf("failed to close table file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		s.recordSaveError()
		return fmt.Errorf("failed to replace table file: %w", err)
	}

	s.mu.Lock()
	s.stats.Saves++
	s.stats.BytesWritten += int64(len(data))
	s.stats.LastSaveTime = time.Now()
	s.mu.Unlock()

	s.logger.Debug().
		Str("path", path).
		Int("entries", len(table)).
		Int("bytes", len(data)).
		Msg("Saved value table")
	return nil
}

// Load reads the table stored at path.
func (s *FileStore) Load(path string) (map[Key][]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		s.recordLoadError()
		return nil, err
	}
	table, err := s.decode(data)
	if err != nil {
		s.recordLoadError()
		return nil, err
	}

	s.mu.Lock()
	s.stats.Loads++
	s.mu.Unlock()
	return table, nil
}

// Stats returns persistence statistics
func (s *FileStore) Stats() StoreStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

func (s *FileStore) encode(table map[Key][]float64) ([]byte, error) {
	msg := &structpb.Struct{Fields: make(map[string]*structpb.Value, len(table))}
	for k, q := range table {
		list := &structpb.ListValue{Values: make([]*structpb.Value, len(q))}
		for i, v := range q {
			list.Values[i] = structpb.NewNumberValue(v)
		}
		msg.Fields[string(k)] = structpb.NewListValue(list)
	}

	var (
		data []byte
		err  error
	)
	switch s.codec {
	case CodecJSON:
		data, err = protojson.Marshal(msg)
	default:
		data, err = proto.MarshalOptions{Deterministic: true}.Marshal(msg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal table: %w", err)
	}
	return data, nil
}

func (s *FileStore) decode(data []byte) (map[Key][]float64, error) {
	msg := &structpb.Struct{}
	var err error
	switch s.codec {
	case CodecJSON:
		err = protojson.Unmarshal(data, msg)
	default:
		err = proto.Unmarshal(data, msg)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptTable, err)
	}

	table := make(map[Key][]float64, len(msg.Fields))
	for k, v := range msg.Fields {
		list := v.GetListValue()
		if list == nil || len(list.Values) != NumActions {
			return nil, fmt.Errorf("%w: key %q has no %d-entry vector", ErrCorruptTable, k, NumActions)
		}
		q := make([]float64, NumActions)
		for i, item := range list.Values {
			n, ok := item.GetKind().(*structpb.Value_NumberValue)
			if !ok {
				return nil, fmt.Errorf("%w: key %q entry %d is not a number", ErrCorruptTable, k, i)
			}
			q[i] = n.NumberValue
		}
		table[Key(k)] = q
	}
	return table, nil
}

func (s *FileStore) recordSaveError() {
	s.mu.Lock()
	s.stats.SaveErrors++
	s.mu.Unlock()
}

func (s *FileStore) recordLoadError() {
	s.mu.Lock()
	s.stats.LoadErrors++
	s.mu.Unlock()
}

// NullStore is a no-op store
type NullStore struct{}

func (NullStore) Load(path string) (map[Key][]float64, error) {
	return nil, fs.ErrNotExist
}

func (NullStore) Save(path string, table map[Key][]float64) error {
	return nil
}

func (NullStore) Path(name string) string {
	return name
}

func (NullStore) Stats() StoreStats {
	return StoreStats{}
}

// NewTableStore creates a store based on configuration
func NewTableStore(config PersistenceConfig, logger zerolog.Logger) (TableStore, error) {
	switch config.Type {
	case PersistenceTypeNone, "":
		return NullStore{}, nil
	case PersistenceTypeFile:
		return NewFileStore(config.Dir, config.Codec, logger)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStoreType, config.Type)
	}
}

// LoadSeed reads a previously exported table. A missing or corrupt file is
// not fatal: it is logged and an empty seed is returned.
func LoadSeed(store TableStore, path string, logger zerolog.Logger) map[Key][]float64 {
	seed, err := store.Load(path)
	if err != nil {
		event := logger.Warn().Err(err).Str("path", path)
		if errors.Is(err, fs.ErrNotExist) {
			event.Msg("No value table to import, starting from zero")
		} else {
			event.Msg("Failed to import value table, starting from zero")
		}
		return nil
	}
	logger.Info().Str("path", path).Int("entries", len(seed)).Msg("Imported value table")
	return seed
}
