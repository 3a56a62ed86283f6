package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	exporter := NewCSVExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Matricule", "Nom"},
		Rows: []map[string]string{
			{"Matricule": "IFPM-001", "Nom": "Amine B"},
			{"Matricule": "IFPM-002"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Matricule,Nom\nIFPM-001,Amine B\nIFPM-002,\n", string(out))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	exporter := NewPDFExporter()
	out, err := exporter.Render(Dataset{
		Headers: []string{"Matricule", "Nom"},
		Rows:    []map[string]string{{"Matricule": "IFPM-001", "Nom": "Amine B"}},
	}, "Liste des étudiants")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestPDFExporterRequiresHeaders(t *testing.T) {
	_, err := NewPDFExporter().Render(Dataset{}, "")
	require.Error(t, err)
}
