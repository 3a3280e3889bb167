package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/internal/di"
)

const resourcesFixture = `{
  "categories": [{
    "slug": "tools",
    "title": "Tools",
    "description": "Things I use",
    "subcategories": [
      {"title": "Editors", "description": "Text", "links": [
        {"name": "Helix", "description": "Modal", "url": "https://helix-editor.com"},
        {"name": "Zed", "description": "Fast", "url": "https://zed.dev"}
      ]},
      {"title": "Shells", "description": "Prompts", "links": [{"name": "fish", "description": "Friendly shell", "url": "https://fishshell.com"}]}
    ]
  }]
}`

type fixture struct {
	root       string
	contentDir string
	configPath string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		root:       root,
		contentDir: filepath.Join(root, "posts"),
		configPath: filepath.Join(root, "blog.yaml"),
	}
	write(t, filepath.Join(f.contentDir, "hello-world.md"),
		"---\ntitle: Hello World\ndate: 2024-03-01\ndescription: First post\ntags: [intro, go]\n---\n# Hello\n\nWelcome to the blog.\n")
	write(t, filepath.Join(f.contentDir, "go-testing.md"),
		"---\ntitle: Table Driven Tests\ndate: 2024-02-10\ndescription: Tables\ncategory: tech\ntier: reference\ntags: [go]\n---\nUse tables.\n")
	write(t, filepath.Join(f.contentDir, "go-bench.md"),
		"---\ntitle: Benchmarks\ndate: 2024-04-02\ndescription: Bench\ncategory: tech\ntier: read\n---\nMeasure.\n")
	write(t, filepath.Join(root, "resources.json"), resourcesFixture)

	config := strings.Join([]string{
		"content:",
		"  dir: " + f.contentDir,
		"  resources_file: " + filepath.Join(root, "resources.json"),
		"generator:",
		"  output_dir: " + filepath.Join(root, "dist"),
		"index:",
		"  dsn: file:" + filepath.Join(root, "blog.db"),
		"logging:",
		"  level: error",
		"",
	}, "\n")
	write(t, f.configPath, config)

	original := moduleBuilder
	moduleBuilder = func(cfg blog.Config, opts ...blog.Option) (*blog.Module, error) {
		opts = append(opts, di.WithGetenv(func(string) string { return "" }))
		return blog.New(cfg, opts...)
	}
	t.Cleanup(func() { moduleBuilder = original })
	return f
}

func write(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd(&out, &errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestListQuiet(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "list", "-q")
	require.NoError(t, err)
	assert.Equal(t, "go-bench\nhello-world\ngo-testing\n", out)
}

func TestListCategoryOrdersByTier(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "list", "--category", "tech", "-q")
	require.NoError(t, err)
	assert.Equal(t, "go-testing\ngo-bench\n", out)

	out, _, err = run(t, "--config", f.configPath, "list", "--category", "tech", "--tier", "read", "-q")
	require.NoError(t, err)
	assert.Equal(t, "go-bench\n", out)
}

func TestListTagFilter(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "list", "--tag", "go", "-q")
	require.NoError(t, err)
	assert.Equal(t, "hello-world\ngo-testing\n", out)
}

func TestListTable(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "SLUG")
	assert.Contains(t, out, "Table Driven Tests")
	assert.Contains(t, out, "2024-02-10")
	assert.Contains(t, out, "3 posts")
}

func TestListUnknownCategory(t *testing.T) {
	f := newFixture(t)
	_, _, err := run(t, "--config", f.configPath, "list", "--category", "cooking")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooking")
}

func TestValidateReportsFindings(t *testing.T) {
	f := newFixture(t)
	write(t, filepath.Join(f.contentDir, "broken.md"), "---\ntitle: Broken\n---\n```go\nfunc main() {}\n")

	out, _, err := run(t, "--config", f.configPath, "validate")
	require.ErrorIs(t, err, errFindings)
	assert.Equal(t, 2, exitCode(err))
	assert.Contains(t, out, "broken.md: [required-field]")
	assert.Contains(t, out, "broken.md: [unclosed-code-block]")
	assert.Contains(t, out, "1 of 4 files have findings")
}

func TestValidateDirectoryArgument(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "validate", f.contentDir)
	require.NoError(t, err)
	assert.Contains(t, out, "3 files ok")

	_, _, err = run(t, "--config", f.configPath, "validate", filepath.Join(f.root, "missing"))
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))
}

func TestBuildDryRun(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "build", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would write")
	_, statErr := os.Stat(filepath.Join(f.root, "dist"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist))
}

func TestBuildWritesOutput(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.root, "public")
	stdout, _, err := run(t, "--config", f.configPath, "build", "--out", out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "pages: 3 built")
	assert.FileExists(t, filepath.Join(out, "rss.xml"))
	assert.FileExists(t, filepath.Join(out, "api", "resources.json"))
}

func TestSyncIndex(t *testing.T) {
	f := newFixture(t)
	dsn := "file:" + filepath.Join(f.root, "override.db")
	out, _, err := run(t, "--config", f.configPath, "sync-index", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "index: 3 created, 0 updated, 0 deleted, 0 unchanged\n", out)

	out, _, err = run(t, "--config", f.configPath, "sync-index", "--dsn", dsn)
	require.NoError(t, err)
	assert.Equal(t, "index: 0 created, 0 updated, 0 deleted, 3 unchanged\n", out)
}

func TestListFromIndex(t *testing.T) {
	f := newFixture(t)
	_, _, err := run(t, "--config", f.configPath, "list", "--from-index", "-q")
	require.NoError(t, err)

	_, _, err = run(t, "--config", f.configPath, "sync-index")
	require.NoError(t, err)

	out, _, err := run(t, "--config", f.configPath, "list", "--from-index", "-q")
	require.NoError(t, err)
	assert.Equal(t, "go-bench\nhello-world\ngo-testing\n", out)

	out, _, err = run(t, "--config", f.configPath, "list", "--from-index", "--category", "tech", "--tier", "reference", "-q")
	require.NoError(t, err)
	assert.Equal(t, "go-testing\n", out)

	out, _, err = run(t, "--config", f.configPath, "list", "--from-index", "--tag", "intro")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "1 indexed posts")
}

func TestPreview(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "preview", "hello-world")
	require.NoError(t, err)
	assert.Contains(t, out, "Hello World")
	assert.Contains(t, out, "Welcome to the blog.")
	assert.Contains(t, out, "/blog/hello-world")

	_, _, err = run(t, "--config", f.configPath, "preview", "nope")
	require.Error(t, err)
	assert.True(t, blog.IsNotFound(err))
}

func TestResources(t *testing.T) {
	f := newFixture(t)
	out, _, err := run(t, "--config", f.configPath, "resources")
	require.NoError(t, err)
	assert.Contains(t, out, "tools")
	assert.Contains(t, out, "1 categories, 2 sections, 3 links")

	out, _, err = run(t, "--config", f.configPath, "resources", "tools")
	require.NoError(t, err)
	assert.Less(t, strings.Index(out, "Shells"), strings.Index(out, "Editors"))
	assert.Contains(t, out, "https://helix-editor.com")

	_, _, err = run(t, "--config", f.configPath, "resources", "food")
	require.Error(t, err)
	assert.True(t, blog.IsNotFound(err))
}

func TestMissingConfigFile(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "list")
	require.Error(t, err)
}
