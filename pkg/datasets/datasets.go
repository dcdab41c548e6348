// Package datasets loads the registry of open-data datasets to pull,
// declared in a YAML or JSON file.
package datasets

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tara-sullivan/oda-utils/pkg/soda"
	"gopkg.in/yaml.v3"
)

// QuerySpec mirrors the SoQL query parameters a dataset entry may pin.
type QuerySpec struct {
	Select              string `json:"select" yaml:"select"`
	Where               string `json:"where" yaml:"where"`
	Group               string `json:"group" yaml:"group"`
	Order               string `json:"order" yaml:"order"`
	Limit               int    `json:"limit" yaml:"limit"`
	Offset              int    `json:"offset" yaml:"offset"`
	Search              string `json:"q" yaml:"q"`
	SoQL                string `json:"soql" yaml:"soql"`
	ExcludeSystemFields *bool  `json:"exclude_system_fields" yaml:"exclude_system_fields"`
	TimeoutSeconds      int    `json:"timeout_seconds" yaml:"timeout_seconds"`
}

// Dataset is a single registry entry.
type Dataset struct {
	ID    string    `json:"id" yaml:"id"`
	Name  string    `json:"name" yaml:"name"`
	Host  string    `json:"host" yaml:"host"`
	Query QuerySpec `json:"query" yaml:"query"`
}

// ToQuery materializes the soda query for this dataset.
func (d Dataset) ToQuery() soda.Query {
	return soda.Query{
		Dataset:             d.ID,
		Select:              d.Query.Select,
		Where:               d.Query.Where,
		Group:               d.Query.Group,
		Order:               d.Query.Order,
		Limit:               d.Query.Limit,
		Offset:              d.Query.Offset,
		Search:              d.Query.Search,
		SoQL:                d.Query.SoQL,
		ExcludeSystemFields: d.Query.ExcludeSystemFields,
		Timeout:             time.Duration(d.Query.TimeoutSeconds) * time.Second,
	}
}

type registryFile struct {
	Datasets []Dataset `json:"datasets" yaml:"datasets"`
}

// Registry materializes dataset definitions loaded from a config file.
type Registry struct {
	datasets []Dataset
	idx      map[string]Dataset
}

// LoadRegistry loads the dataset registry from a YAML/JSON file.
func LoadRegistry(path string) (*Registry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("datasets file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open datasets file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read datasets file: %w", err)
	}

	fileReg, err := parseRegistry(raw, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(fileReg.Datasets) == 0 {
		return nil, errors.New("datasets file contains no datasets entries")
	}

	reg := &Registry{
		datasets: make([]Dataset, len(fileReg.Datasets)),
		idx:      make(map[string]Dataset, len(fileReg.Datasets)),
	}
	for i := range fileReg.Datasets {
		d := sanitizeDataset(fileReg.Datasets[i])
		if err := validateDataset(d); err != nil {
			return nil, fmt.Errorf("datasets[%d]: %w", i, err)
		}
		if _, exists := reg.idx[d.ID]; exists {
			return nil, fmt.Errorf("duplicate dataset id %q", d.ID)
		}
		reg.datasets[i] = d
		reg.idx[d.ID] = d
	}

	return reg, nil
}

// All returns a copy of the loaded dataset entries.
func (r *Registry) All() []Dataset {
	if r == nil || len(r.datasets) == 0 {
		return nil
	}
	out := make([]Dataset, len(r.datasets))
	copy(out, r.datasets)
	return out
}

// ByID returns the dataset entry for the given id, if loaded.
func (r *Registry) ByID(id string) (Dataset, bool) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Dataset{}, false
	}
	d, ok := r.idx[id]
	return d, ok
}

type unmarshalFn func([]byte, any) error

func parseRegistry(data []byte, ext string) (registryFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))

	decoders := []struct {
		name string
		ext  string
		fn   unmarshalFn
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	for _, d := range decoders {
		if ext != "" && ext != d.ext {
			continue
		}
		var reg registryFile
		if err := d.fn(data, &reg); err == nil {
			return reg, nil
		}
	}

	return registryFile{}, errors.New("datasets file format not recognized (expected YAML or JSON)")
}

func sanitizeDataset(d Dataset) Dataset {
	d.ID = strings.TrimSpace(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	d.Host = strings.TrimSpace(d.Host)
	d.Query.Select = strings.TrimSpace(d.Query.Select)
	d.Query.Where = strings.TrimSpace(d.Query.Where)
	d.Query.Group = strings.TrimSpace(d.Query.Group)
	d.Query.Order = strings.TrimSpace(d.Query.Order)
	d.Query.Search = strings.TrimSpace(d.Query.Search)
	d.Query.SoQL = strings.TrimSpace(d.Query.SoQL)
	return d
}

func validateDataset(d Dataset) error {
	if d.ID == "" {
		return errors.New("id is required")
	}
	if d.Name == "" {
		return fmt.Errorf("name is required for dataset %q", d.ID)
	}
	if d.Query.Limit < 0 {
		return fmt.Errorf("limit must not be negative for dataset %q", d.ID)
	}
	if d.Query.Offset < 0 {
		return fmt.Errorf("offset must not be negative for dataset %q", d.ID)
	}
	if d.Query.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative for dataset %q", d.ID)
	}
	return nil
}
