package embeddingmodels

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "embedding_models.yaml")
	fixture := fileShape{Models: []Model{
		{Provider: "jina", Model: "jina-clip-v2", Version: "v1", Timestamp: "20240101", Dimensions: 1024, IsDefault: true},
		{Provider: "jina", Model: "jina-embeddings-v3", Version: "v1", Timestamp: "20240101", Dimensions: 1024},
	}}
	data, err := yaml.Marshal(fixture)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func TestFullModelRoundTrip(t *testing.T) {
	m := Model{Provider: "jina", Model: "jina-clip-v2", Version: "v1", Timestamp: "20240101"}
	require.Equal(t, "20240101@v1@jina/jina-clip-v2", m.FullModel())

	provider, model, err := ParseFullModel(m.FullModel())
	require.NoError(t, err)
	require.Equal(t, m.Provider, provider)
	require.Equal(t, m.Model, model)
}

func TestParseFullModelMalformed(t *testing.T) {
	_, _, err := ParseFullModel("not-a-full-model-string")
	require.Error(t, err)
}

func TestLoadAndDefault(t *testing.T) {
	reg, err := Load(writeFixture(t))
	require.NoError(t, err)

	models, fullModel := reg.All()
	require.Len(t, models, 2)
	require.Equal(t, "20240101@v1@jina/jina-clip-v2", fullModel)

	def, ok := reg.Default()
	require.True(t, ok)
	require.Equal(t, "jina-clip-v2", def.Model)
}

func TestSetDefaultPersistsAndSwitchesExclusively(t *testing.T) {
	path := writeFixture(t)
	reg, err := Load(path)
	require.NoError(t, err)

	require.NoError(t, reg.SetDefault("jina", "jina-embeddings-v3"))

	models, fullModel := reg.All()
	require.Contains(t, fullModel, "jina/jina-embeddings-v3")
	defaultCount := 0
	for _, m := range models {
		if m.IsDefault {
			defaultCount++
		}
	}
	require.Equal(t, 1, defaultCount)

	reloaded, err := Load(path)
	require.NoError(t, err)
	def, ok := reloaded.Default()
	require.True(t, ok)
	require.Equal(t, "jina-embeddings-v3", def.Model)
}

func TestSetDefaultUnknownModel(t *testing.T) {
	reg, err := Load(writeFixture(t))
	require.NoError(t, err)

	err = reg.SetDefault("openai", "does-not-exist")
	require.Error(t, err)
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
}

func TestDeprecate(t *testing.T) {
	reg, err := Load(writeFixture(t))
	require.NoError(t, err)

	require.NoError(t, reg.Deprecate("jina", "jina-embeddings-v3", "2026-01-01"))

	models, _ := reg.All()
	for _, m := range models {
		if m.Model == "jina-embeddings-v3" {
			require.True(t, m.IsDeprecated)
			require.Equal(t, "2026-01-01", m.DeprecationDate)
		}
	}
}
