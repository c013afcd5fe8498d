package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"warrantboard/domain/affix"
	"warrantboard/domain/item"
	"warrantboard/domain/layout"
	"warrantboard/domain/random"
	"warrantboard/pkg/utils"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// CatalogFile is the on-disk shape of an affix catalog.
type CatalogFile struct {
	PercentStats []string         `json:"percentStats,omitempty" yaml:"percentStats,omitempty"`
	Affixes      []affix.Entry    `json:"affixes" yaml:"affixes"`
	Notables     []affix.Notable  `json:"notables" yaml:"notables"`
	Blueprints   []item.Blueprint `json:"blueprints" yaml:"blueprints"`
}

// DefaultCatalog is the built-in catalog used when no file is configured.
func DefaultCatalog() *CatalogFile {
	return &CatalogFile{
		Affixes:    affix.DefaultEntries(),
		Notables:   affix.DefaultNotables(),
		Blueprints: affix.DefaultBlueprints(),
	}
}

// FileLoader decodes one file format.
type FileLoader interface {
	Load(reader io.Reader, target interface{}) error
	Extension() string
}

// Loader reads board definitions and affix catalogs, choosing the decoder
// from the file extension.
type Loader struct {
	fileLoaders map[string]FileLoader
	sources     []string
	logger      *zap.Logger
}

// NewLoader creates a loader with the YAML, JSON and HCL formats registered.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Loader{
		fileLoaders: make(map[string]FileLoader),
		logger:      logger,
	}
	l.RegisterLoader(&YAMLLoader{})
	l.RegisterLoader(&JSONLoader{})
	l.RegisterLoader(&HCLLoader{})
	return l
}

// RegisterLoader registers a loader for its extension, replacing any
// previous one.
func (l *Loader) RegisterLoader(loader FileLoader) {
	l.fileLoaders[loader.Extension()] = loader
}

// Sources lists the files loaded so far.
func (l *Loader) Sources() []string {
	return append([]string(nil), l.sources...)
}

func (l *Loader) loaderFor(path string) (FileLoader, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "yml" {
		ext = "yaml"
	}
	loader, ok := l.fileLoaders[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file format %q", filepath.Ext(path))
	}
	return loader, nil
}

func (l *Loader) loadFile(path string, target interface{}) error {
	loader, err := l.loaderFor(path)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := loader.Load(file, target); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}

	l.sources = append(l.sources, path)
	return nil
}

// LoadDefinition reads an authored board definition.
func (l *Loader) LoadDefinition(path string) (*layout.Definition, error) {
	var def layout.Definition
	if err := l.loadFile(path, &def); err != nil {
		return nil, err
	}
	if def.Name == "" {
		def.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	l.logger.Info("Loaded board definition",
		zap.String("path", path),
		zap.String("name", def.Name),
		zap.Int("nodes", len(def.Nodes)),
		zap.Int("edges", len(def.Edges)),
	)
	return &def, nil
}

// LoadCatalog reads an affix catalog file.
func (l *Loader) LoadCatalog(path string) (*CatalogFile, error) {
	var catalog CatalogFile
	if err := l.loadFile(path, &catalog); err != nil {
		return nil, err
	}
	l.logger.Info("Loaded affix catalog",
		zap.String("path", path),
		zap.Int("affixes", len(catalog.Affixes)),
		zap.Int("notables", len(catalog.Notables)),
		zap.Int("blueprints", len(catalog.Blueprints)),
	)
	return &catalog, nil
}

// BuildDatabase turns a catalog into a rolling database. Invalid blueprints
// are skipped with a warning. A catalog without blueprints gets the defaults.
func BuildDatabase(catalog *CatalogFile, rng random.Source, logger *zap.Logger, opts ...affix.Option) *affix.Database {
	if logger == nil {
		logger = zap.NewNop()
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}

	var allow []string
	if len(catalog.PercentStats) > 0 {
		allow = catalog.PercentStats
	}
	pool := affix.NewPool(catalog.Affixes, allow, logger)
	notables := affix.NewNotableCatalog(catalog.Notables)

	blueprints := make([]item.Blueprint, 0, len(catalog.Blueprints))
	for _, bp := range catalog.Blueprints {
		if err := utils.ValidateStruct(bp); err != nil {
			logger.Warn("Skipping invalid blueprint", zap.String("blueprintId", bp.ID), zap.Error(err))
			continue
		}
		blueprints = append(blueprints, bp)
	}
	if len(blueprints) == 0 {
		blueprints = affix.DefaultBlueprints()
	}

	opts = append([]affix.Option{affix.WithBlueprints(blueprints...)}, opts...)
	return affix.NewDatabase(pool, notables, rng, logger, opts...)
}

// YAMLLoader decodes YAML files.
type YAMLLoader struct{}

func (y *YAMLLoader) Load(reader io.Reader, target interface{}) error {
	decoder := yaml.NewDecoder(reader)
	decoder.KnownFields(true)
	if err := decoder.Decode(target); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (y *YAMLLoader) Extension() string {
	return "yaml"
}

// JSONLoader decodes JSON files.
type JSONLoader struct{}

func (j *JSONLoader) Load(reader io.Reader, target interface{}) error {
	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

func (j *JSONLoader) Extension() string {
	return "json"
}
