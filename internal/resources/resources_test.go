package resources

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-blog/internal/validation"
)

// errorText joins the messages of err and everything it wraps.
func errorText(err error) string {
	if err == nil {
		return ""
	}
	parts := []string{err.Error()}
	switch wrapped := err.(type) {
	case interface{ Unwrap() []error }:
		for _, inner := range wrapped.Unwrap() {
			parts = append(parts, errorText(inner))
		}
	case interface{ Unwrap() error }:
		parts = append(parts, errorText(wrapped.Unwrap()))
	}
	return strings.Join(parts, " | ")
}

func loadFixture(t *testing.T) *Directory {
	t.Helper()
	dir, err := Load(context.Background(), "testdata/resources.json")
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	return dir
}

func TestLoadKeepsDocumentOrder(t *testing.T) {
	dir := loadFixture(t)

	var slugs []string
	for _, category := range dir.Categories() {
		slugs = append(slugs, category.Slug)
	}
	if diff := cmp.Diff([]string{"dev-tools", "learning"}, slugs); diff != "" {
		t.Fatalf("category order mismatch (-want +got):\n%s", diff)
	}

	stats := dir.Stats()
	want := Stats{Categories: 2, Subcategories: 4, Links: 7}
	if stats != want {
		t.Fatalf("stats: want %+v got %+v", want, stats)
	}
}

func TestCategoryLookup(t *testing.T) {
	dir := loadFixture(t)

	category, err := dir.Category("learning")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if category.Title != "Learning" {
		t.Fatalf("unexpected title %q", category.Title)
	}

	if _, err := dir.Category("missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound, got %v", err)
	}
	if _, err := dir.Subcategories("missing"); !errors.Is(err, ErrCategoryNotFound) {
		t.Fatalf("expected ErrCategoryNotFound from subcategories, got %v", err)
	}
}

func TestSubcategoriesSortedByLinkCount(t *testing.T) {
	dir := loadFixture(t)

	subs, err := dir.Subcategories("dev-tools")
	if err != nil {
		t.Fatalf("subcategories: %v", err)
	}
	var titles []string
	for _, sub := range subs {
		titles = append(titles, sub.Title)
	}
	// Terminals and Shells tie on one link and keep document order.
	if diff := cmp.Diff([]string{"Terminals", "Shells", "Editors"}, titles); diff != "" {
		t.Fatalf("subcategory order mismatch (-want +got):\n%s", diff)
	}

	category, _ := dir.Category("dev-tools")
	if category.Subcategories[0].Title != "Editors" {
		t.Fatalf("sorting mutated the stored document: first is %q", category.Subcategories[0].Title)
	}
}

func TestCategoriesReturnsCopies(t *testing.T) {
	dir := loadFixture(t)

	categories := dir.Categories()
	categories[0].Title = "changed"
	categories[0].Subcategories[0].Links[0].Name = "changed"

	again, _ := dir.Category("dev-tools")
	if again.Title != "Developer Tools" || again.Subcategories[0].Links[0].Name != "Neovim" {
		t.Fatalf("directory leaked internal state: %+v", again)
	}
}

func TestLoadRejectsSchemaViolations(t *testing.T) {
	_, err := Load(context.Background(), "testdata/invalid_schema.json")
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
	if issues := validation.Issues(err); len(issues) < 2 {
		t.Fatalf("expected an issue per violation, got %+v", issues)
	}
	msg := errorText(err)
	for _, fragment := range []string{"title", "links"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in %q", fragment, msg)
		}
	}
}

func TestLoadRejectsDuplicateSlugs(t *testing.T) {
	_, err := Load(context.Background(), "testdata/duplicate_slug.json")
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation category, got %v", err)
	}
	if !strings.Contains(errorText(err), "duplicates /categories/0") {
		t.Fatalf("unexpected message %q", errorText(err))
	}
}

func TestLoadRejectsInvalidSlugs(t *testing.T) {
	filesystem := fstest.MapFS{
		"resources.json": &fstest.MapFile{Data: []byte(`{"categories":[{"slug":"Not A Slug","title":"T","description":"D",` +
			`"subcategories":[{"title":"S","description":"D","links":[{"name":"N","description":"D","url":"https://example.com"}]}]}]}`)},
	}
	_, err := Load(context.Background(), "resources.json", WithFilesystem(filesystem))
	if !errors.Is(err, ErrInvalidDocument) {
		t.Fatalf("expected ErrInvalidDocument, got %v", err)
	}
	if !strings.Contains(errorText(err), "not a valid slug") {
		t.Fatalf("unexpected message %q", errorText(err))
	}
}

func TestLoadTrimsPaddedSlugs(t *testing.T) {
	filesystem := fstest.MapFS{
		"resources.json": &fstest.MapFile{Data: []byte(`{"categories":[{"slug":"  dev-tools ","title":"T","description":"D",` +
			`"subcategories":[{"title":"S","description":"D","links":[{"name":"N","description":"D","url":"https://example.com"}]}]}]}`)},
	}
	dir, err := Load(context.Background(), "resources.json", WithFilesystem(filesystem))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	category, err := dir.Category("dev-tools")
	if err != nil {
		t.Fatalf("category: %v", err)
	}
	if category.Slug != "dev-tools" || dir.Categories()[0].Slug != "dev-tools" {
		t.Fatalf("expected trimmed slug, got %q", category.Slug)
	}
	if _, err := dir.Subcategories(" dev-tools"); err != nil {
		t.Fatalf("subcategories: %v", err)
	}
}

func TestLoadRejectsRelativeURL(t *testing.T) {
	filesystem := fstest.MapFS{
		"resources.json": &fstest.MapFile{Data: []byte(`{"categories":[{"slug":"tools","title":"T","description":"D",` +
			`"subcategories":[{"title":"S","description":"D","links":[{"name":"N","description":"D","url":"not a url"}]}]}]}`)},
	}
	_, err := Load(context.Background(), "resources.json", WithFilesystem(filesystem))
	if !errors.Is(err, validation.ErrSchemaValidation) {
		t.Fatalf("expected schema validation error, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(context.Background(), "testdata/nope.json")
	if !errors.Is(err, ErrDocumentMissing) {
		t.Fatalf("expected ErrDocumentMissing, got %v", err)
	}
}

func TestLoadHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Load(ctx, "testdata/resources.json"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
