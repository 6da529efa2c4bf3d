// Package catalog loads the report collection the table is built from and
// keeps the current snapshot in memory.
package catalog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/starford/reportdesk/internal/models"
)

// Catalog drivers.
const (
	DriverYAML   = "yaml"
	DriverSQLite = "sqlite"
)

// Source produces the full report collection.
type Source interface {
	Load(ctx context.Context) ([]models.Report, error)
}

// YAMLFile is a Source backed by a YAML document with a top-level
// "reports" list.
type YAMLFile struct {
	path string
}

// NewYAMLFile returns a Source reading path on every Load.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Path returns the file the source reads.
func (y *YAMLFile) Path() string { return y.path }

// Load reads and decodes the file.
func (y *YAMLFile) Load(_ context.Context) ([]models.Report, error) {
	data, err := os.ReadFile(y.path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", y.path, err)
	}
	reports, err := DecodeYAML(data)
	if err != nil {
		return nil, fmt.Errorf("catalog: %s: %w", y.path, err)
	}
	return reports, nil
}

type yamlDocument struct {
	Reports []models.Report `yaml:"reports"`
}

// DecodeYAML decodes a catalog document. Unknown keys are rejected and an
// empty document is an empty catalog.
func DecodeYAML(data []byte) ([]models.Report, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var doc yamlDocument
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return doc.Reports, nil
}

// EncodeYAML renders reports as a catalog document.
func EncodeYAML(reports []models.Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Reports: reports}); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Static is a Source over a fixed slice.
type Static []models.Report

// Load returns the slice.
func (s Static) Load(context.Context) ([]models.Report, error) {
	return []models.Report(s), nil
}
