// Package markdown loads blog posts from Markdown and MDX files. It parses
// frontmatter, applies post defaults, estimates read time, renders bodies with
// goldmark and lints sources for common authoring mistakes.
package markdown
