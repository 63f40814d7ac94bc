package templating

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prompt-templates/jinjarun/pkg/nodes"
)

func TestMapLoaderLoadAndNames(t *testing.T) {
	prog := programFromOutput(&nodes.StringLiteral{Value: "hi"})
	l := NewMapLoader(map[string]*nodes.Program{"greeting": prog})

	got, err := l.Load("greeting")
	require.NoError(t, err)
	assert.Same(t, prog, got)

	assert.Equal(t, []string{"greeting"}, l.Names())
}

func TestMapLoaderUnknownNameReturnsTemplateNotFoundError(t *testing.T) {
	l := NewMapLoader(map[string]*nodes.Program{"a": programFromOutput(&nodes.StringLiteral{Value: "x"})})
	_, err := l.Load("missing")
	require.Error(t, err)
	var target *TemplateNotFoundError
	assert.ErrorAs(t, err, &target)
	assert.Equal(t, []string{"a"}, target.AvailableTemplates)
}

func TestFileSystemLoaderLoadsASTJSON(t *testing.T) {
	dir := t.TempDir()
	body := `{"kind":"Program","body":[{"kind":"Output","expression":{"kind":"StringLiteral","value":"hi"}}]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "greeting.ast.json"), []byte(body), 0o644))

	l := NewFileSystemLoader(dir)
	prog, err := l.Load("greeting")
	require.NoError(t, err)
	require.Len(t, prog.Body, 1)

	out, err := renderProgram(prog, nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestFileSystemLoaderNamesListsASTFilesOnly(t *testing.T) {
	dir := t.TempDir()
	body := `{"kind":"Program","body":[]}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.ast.json"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.ast.json"), []byte(body), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644))

	l := NewFileSystemLoader(dir)
	assert.Equal(t, []string{"a", "b"}, l.Names())
}

func TestFileSystemLoaderMissingFileReturnsTemplateNotFoundError(t *testing.T) {
	l := NewFileSystemLoader(t.TempDir())
	_, err := l.Load("nope")
	require.Error(t, err)
	var target *TemplateNotFoundError
	assert.ErrorAs(t, err, &target)
}
