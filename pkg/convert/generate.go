//go:generate gomarkdoc -e -f github -o README.md . --repository.url https://github.com/slink-ws/asciidoc2confluence --repository.default-branch master --repository.path /pkg/convert

package convert
