//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/slink-ws/asciidoc2confluence --repository.default-branch master --repository.path /

// Package asciidoc2confluence publishes a tree of AsciiDoc and Markdown
// documents to a Confluence space and keeps the space in sync with it.
package asciidoc2confluence
