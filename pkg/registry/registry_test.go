// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegistryJSON = `{
  "version": "1.0.0",
  "lastUpdated": "2026-08-01",
  "adapters": [
    {
      "category": "practitioner_by_specialty",
      "displayName": "Practitioner by specialty",
      "serverSideGeo": false,
      "timeoutMs": 4000,
      "fallbacks": ["facility"],
      "paramSchema": {
        "type": "object",
        "properties": {
          "specialtyCode": {"type": "string"},
          "postalCode": {"type": "string", "pattern": "^[0-9]{5}$"},
          "count": {"type": "integer", "minimum": 1}
        },
        "additionalProperties": false
      }
    },
    {
      "category": "facility",
      "displayName": "Facility",
      "serverSideGeo": true,
      "fallbacks": []
    }
  ]
}`

func writeTestRegistry(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "adapter-registry.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	reg, err := Load(writeTestRegistry(t, testRegistryJSON))
	require.NoError(t, err)

	assert.Equal(t, "1.0.0", reg.Version)
	assert.Equal(t, []string{"practitioner_by_specialty", "facility"}, reg.Categories())

	spec, ok := reg.Get("practitioner_by_specialty")
	require.True(t, ok)
	assert.False(t, spec.ServerSideGeo)
	assert.Equal(t, 4000, spec.TimeoutMS)
	assert.Equal(t, []string{"facility"}, spec.Fallbacks)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/registry.json")
	assert.Error(t, err)
}

func TestLoad_DuplicateCategory(t *testing.T) {
	dup := `{"adapters":[{"category":"facility"},{"category":"facility"}]}`
	_, err := Load(writeTestRegistry(t, dup))
	assert.ErrorContains(t, err, "duplicate category")
}

func TestValidateParams(t *testing.T) {
	reg, err := Load(writeTestRegistry(t, testRegistryJSON))
	require.NoError(t, err)

	err = reg.ValidateParams("practitioner_by_specialty", map[string]interface{}{
		"specialtyCode": "31",
		"postalCode":    "75017",
		"count":         3,
	})
	assert.NoError(t, err)

	err = reg.ValidateParams("practitioner_by_specialty", map[string]interface{}{
		"postalCode": "750",
	})
	assert.Error(t, err)

	err = reg.ValidateParams("practitioner_by_specialty", map[string]interface{}{
		"city": "paris",
	})
	assert.Error(t, err, "additionalProperties rejected")
}

func TestValidateParams_NoSchemaAcceptsAnything(t *testing.T) {
	reg, err := Load(writeTestRegistry(t, testRegistryJSON))
	require.NoError(t, err)

	assert.NoError(t, reg.ValidateParams("facility", map[string]interface{}{"anything": true}))
}

func TestValidateParams_UnknownCategory(t *testing.T) {
	reg, err := Load(writeTestRegistry(t, testRegistryJSON))
	require.NoError(t, err)

	assert.ErrorContains(t, reg.ValidateParams("nope", nil), "unknown adapter category")
}
