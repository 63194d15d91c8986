package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "    ", cfg.Indent)
	assert.False(t, cfg.IgnoreVariableTable)
	assert.GreaterOrEqual(t, cfg.Workers, 1)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "yava.yaml")
	data := "ignoreVariableTable: true\nskipStackTrace: true\nindent: \"\\t\"\nworkers: 3\nlogLevel: debug\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IgnoreVariableTable)
	assert.True(t, cfg.SkipStackTrace)
	assert.False(t, cfg.ImportNestedClasses)
	assert.Equal(t, "\t", cfg.Indent)
	assert.Equal(t, 3, cfg.Workers)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
}

func TestLoadKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("importNestedClasses: true\n"))
	require.NoError(t, err)
	assert.True(t, cfg.ImportNestedClasses)
	assert.Equal(t, Default().Indent, cfg.Indent)
	assert.Equal(t, Default().Workers, cfg.Workers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string // name is the case name
		data string // data is the YAML document
	}{
		{"workers", "workers: 0\n"},
		{"indent", "indent: \"ab\"\n"},
		{"level", "logLevel: loud\n"},
		{"syntax", "workers: [\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
