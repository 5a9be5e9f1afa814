package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	ClearCache()

	prompt, err := Get("screening.json", "judge-candidate-fit")
	require.NoError(t, err)
	assert.Contains(t, prompt, "{{.RoleTitle}}")
	assert.Contains(t, prompt, "fit_score")
}

func TestGet_Errors(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")

	_, err = Get("screening.json", "nonexistent-key")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() { MustGet("nonexistent.json", "key") })
	assert.NotPanics(t, func() { MustGet("screening.json", "summarize-candidate") })
}

func TestFormat(t *testing.T) {
	out := Format("Role {{.RoleTitle}} for {{.Name}} ({{.Missing}})", map[string]string{
		"RoleTitle": "Backend Engineer",
		"Name":      "Ada",
	})
	assert.Equal(t, "Role Backend Engineer for Ada ({{.Missing}})", out)
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List("screening.json")
	require.NoError(t, err)
	assert.Equal(t, []string{"judge-candidate-fit", "summarize-candidate"}, keys)
}
