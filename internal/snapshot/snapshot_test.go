package snapshot

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tracelens-labs/tracelens/pkg/dataflow"
)

const jsonDoc = `{
  "packages": [
    {
      "name": "Nightly",
      "variables": {"User::Q": "SELECT 1 AS one"},
      "tasks": [
        {
          "name": "Load",
          "components": [
            {
              "id": "s1", "name": "Src", "kind": "Microsoft.OLEDBSource",
              "query": "SELECT a FROM t",
              "outputs": [{"id": "s1.out", "columns": [{"lineage_id": "#1", "name": "A", "data_type": "DT_I4"}]}]
            },
            {
              "id": "d1", "name": "Dest", "kind": "OLE DB Destination", "table": "dbo.T",
              "inputs": [{"id": "d1.in", "columns": [{"lineage_id": "#1", "name": "A", "target_name": "A_OUT"}]}]
            }
          ],
          "paths": [{"from": "s1.out", "to": "d1.in"}]
        }
      ]
    }
  ]
}`

func TestParse_JSONDocument(t *testing.T) {
	pkgs, err := Parse([]byte(jsonDoc), CodecJSON)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)

	pkg := pkgs[0]
	assert.Equal(t, "Nightly", pkg.Name)
	assert.Equal(t, "SELECT 1 AS one", pkg.Variables["User::Q"])
	require.Len(t, pkg.Tasks, 1)

	task := pkg.Tasks[0]
	assert.Equal(t, "Load", task.Name)
	require.Len(t, task.Components, 2)
	require.Len(t, task.Paths, 1)

	src := task.Components[0]
	assert.Equal(t, dataflow.KindSource, src.Kind)
	assert.Equal(t, "SELECT a FROM t", src.Query)
	require.Len(t, src.Outputs, 1)
	require.Len(t, src.Outputs[0].Columns, 1)
	assert.Equal(t, dataflow.Column{LineageID: "#1", Name: "A", DataType: "DT_I4"}, src.Outputs[0].Columns[0])

	dest := task.Components[1]
	assert.Equal(t, dataflow.KindDestination, dest.Kind)
	assert.Equal(t, "dbo.T", dest.Table)
	assert.Equal(t, "A_OUT", dest.Inputs[0].Columns[0].TargetName)

	assert.Equal(t, dataflow.Path{From: "s1.out", To: "d1.in"}, task.Paths[0])
}

func TestParse_YAMLBarePackage(t *testing.T) {
	doc := `
name: Solo
tasks:
  - name: T1
    components:
      - id: c1
        name: Flat File
        kind: FlatFileSource
        connection: in.csv
        outputs:
          - id: c1.out
            columns:
              - lineage_id: "#1"
                name: Col0
`
	pkgs, err := Parse([]byte(doc), CodecYAML)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Solo", pkgs[0].Name)
	require.Len(t, pkgs[0].Tasks, 1)

	comp := pkgs[0].Tasks[0].Components[0]
	assert.Equal(t, dataflow.KindFileSource, comp.Kind)
	assert.Equal(t, "in.csv", comp.Connection)
}

func TestParse_Sniffing(t *testing.T) {
	jsonData := `{"name": "P", "tasks": [{"name": "T"}]}`
	pkgs, err := Parse([]byte(jsonData), "")
	require.NoError(t, err)
	assert.Equal(t, "P", pkgs[0].Name)

	yamlData := "name: P2\ntasks:\n  - name: T\n"
	pkgs, err = Parse([]byte(yamlData), "")
	require.NoError(t, err)
	assert.Equal(t, "P2", pkgs[0].Name)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse([]byte(`{"name": "empty"}`), CodecJSON)
	assert.ErrorContains(t, err, "no packages")

	_, err = Parse([]byte(`{not json`), CodecJSON)
	assert.ErrorContains(t, err, "invalid JSON")

	_, err = Parse([]byte("\t- bad\nyaml: ["), CodecYAML)
	assert.ErrorContains(t, err, "invalid YAML")
}

func TestLoad_NamesBarePackageAfterFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "warehouse_etl.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"tasks": [{"name": "T"}]}`), 0o644))

	pkgs, err := Load(path)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "warehouse_etl", pkgs[0].Name)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.ErrorContains(t, err, "failed to read snapshot")
}

func TestNormalizeKind(t *testing.T) {
	tests := []struct {
		in   string
		want dataflow.Kind
	}{
		{"Source", dataflow.KindSource},
		{"DataConversion", dataflow.KindDataConvert},
		{"Microsoft.MergeJoin", dataflow.KindMergeJoin},
		{"Microsoft.DerivedColumn", dataflow.KindDerivedColumn},
		{"Microsoft.UnionAll", dataflow.KindUnionAll},
		{"Microsoft.ConditionalSplit", dataflow.KindSynchronous},
		{"DTSAdapter.OLEDBSource.1", dataflow.KindSource},
		{"OLE DB Destination", dataflow.KindDestination},
		{"Flat File Source", dataflow.KindFileSource},
		{"ExcelSource", dataflow.KindFileSource},
		{"Multicast", dataflow.KindSynchronous},
		{"Row Count", dataflow.KindSynchronous},
		{"Data Conversion", dataflow.KindDataConvert},
		{"CustomADONetDestination", dataflow.KindDestination},
		{"RawSource", dataflow.KindSource},
		{"ScriptComponent", dataflow.KindUnknown},
		{"", dataflow.KindUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeKind(tt.in))
		})
	}
}
