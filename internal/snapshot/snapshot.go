// Package snapshot loads pipeline-graph documents and converts them
// into the dataflow model. A snapshot is a JSON or YAML export of one
// or more packages: tasks, components with their pins and columns, and
// the paths wiring pins together.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

// documentDTO is the on-disk document shape. A file either carries a
// "packages" list or is itself a single bare package.
type documentDTO struct {
	Packages []packageDTO `json:"packages" yaml:"packages"`

	// Bare-package form.
	Name      string            `json:"name" yaml:"name"`
	Variables map[string]string `json:"variables" yaml:"variables"`
	Tasks     []taskDTO         `json:"tasks" yaml:"tasks"`
}

type packageDTO struct {
	Name      string            `json:"name" yaml:"name"`
	Variables map[string]string `json:"variables" yaml:"variables"`
	Tasks     []taskDTO         `json:"tasks" yaml:"tasks"`
}

type taskDTO struct {
	Name       string         `json:"name" yaml:"name"`
	Components []componentDTO `json:"components" yaml:"components"`
	Paths      []pathDTO      `json:"paths" yaml:"paths"`
}

type componentDTO struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Kind       string   `json:"kind" yaml:"kind"`
	Connection string   `json:"connection" yaml:"connection"`
	Table      string   `json:"table" yaml:"table"`
	Query      string   `json:"query" yaml:"query"`
	QueryVar   string   `json:"query_var" yaml:"query_var"`
	Inputs     []pinDTO `json:"inputs" yaml:"inputs"`
	Outputs    []pinDTO `json:"outputs" yaml:"outputs"`
}

type pinDTO struct {
	ID      string      `json:"id" yaml:"id"`
	Name    string      `json:"name" yaml:"name"`
	Columns []columnDTO `json:"columns" yaml:"columns"`
}

type columnDTO struct {
	LineageID  string `json:"lineage_id" yaml:"lineage_id"`
	Name       string `json:"name" yaml:"name"`
	CachedName string `json:"cached_name" yaml:"cached_name"`
	DataType   string `json:"data_type" yaml:"data_type"`
	Expression string `json:"expression" yaml:"expression"`
	SourceRef  string `json:"source_ref" yaml:"source_ref"`
	SourceName string `json:"source_name" yaml:"source_name"`
	TargetName string `json:"target_name" yaml:"target_name"`
}

type pathDTO struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Load reads a snapshot file and converts it. The codec is chosen by
// extension (.json, .yaml, .yml), falling back to content sniffing. A
// bare package without a name is named after the file.
func Load(path string) ([]*dataflow.Package, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	pkgs, err := Parse(data, codecForPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	for _, p := range pkgs {
		if p.Name == "" {
			p.Name = base
		}
	}
	return pkgs, nil
}

// Codec names a snapshot serialization format.
type Codec string

const (
	CodecJSON Codec = "json"
	CodecYAML Codec = "yaml"
)

// codecForPath picks the codec from the file extension, defaulting to
// sniffing for unknown extensions.
func codecForPath(path string) Codec {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return CodecJSON
	case ".yaml", ".yml":
		return CodecYAML
	}
	return ""
}

// Parse decodes snapshot bytes with the given codec. An empty codec
// sniffs: documents starting with '{' or '[' are JSON, anything else
// is YAML.
func Parse(data []byte, codec Codec) ([]*dataflow.Package, error) {
	if codec == "" {
		codec = sniff(data)
	}
	var doc documentDTO
	switch codec {
	case CodecJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	case CodecYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported snapshot codec %q", codec)
	}

	dtos := doc.Packages
	if len(dtos) == 0 {
		if len(doc.Tasks) == 0 {
			return nil, fmt.Errorf("snapshot contains no packages")
		}
		dtos = []packageDTO{{Name: doc.Name, Variables: doc.Variables, Tasks: doc.Tasks}}
	}

	pkgs := make([]*dataflow.Package, 0, len(dtos))
	for _, d := range dtos {
		pkgs = append(pkgs, convertPackage(d))
	}
	return pkgs, nil
}

func sniff(data []byte) Codec {
	for _, b := range data {
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case '{', '[':
			return CodecJSON
		default:
			return CodecYAML
		}
	}
	return CodecYAML
}

func convertPackage(d packageDTO) *dataflow.Package {
	pkg := &dataflow.Package{Name: d.Name, Variables: d.Variables}
	for _, t := range d.Tasks {
		pkg.Tasks = append(pkg.Tasks, convertTask(t))
	}
	return pkg
}

func convertTask(d taskDTO) *dataflow.Task {
	task := &dataflow.Task{Name: d.Name}
	for _, c := range d.Components {
		task.Components = append(task.Components, convertComponent(c))
	}
	for _, p := range d.Paths {
		task.Paths = append(task.Paths, dataflow.Path{From: p.From, To: p.To})
	}
	return task
}

func convertComponent(d componentDTO) *dataflow.Component {
	comp := &dataflow.Component{
		ID:         d.ID,
		Name:       d.Name,
		Kind:       NormalizeKind(d.Kind),
		Connection: d.Connection,
		Table:      d.Table,
		Query:      d.Query,
		QueryVar:   d.QueryVar,
	}
	for _, p := range d.Inputs {
		comp.Inputs = append(comp.Inputs, convertPin(p))
	}
	for _, p := range d.Outputs {
		comp.Outputs = append(comp.Outputs, convertPin(p))
	}
	return comp
}

func convertPin(d pinDTO) dataflow.Pin {
	pin := dataflow.Pin{ID: d.ID, Name: d.Name}
	for _, c := range d.Columns {
		pin.Columns = append(pin.Columns, dataflow.Column{
			LineageID:  c.LineageID,
			Name:       c.Name,
			CachedName: c.CachedName,
			DataType:   c.DataType,
			Expression: c.Expression,
			SourceRef:  c.SourceRef,
			SourceName: c.SourceName,
			TargetName: c.TargetName,
		})
	}
	return pin
}
