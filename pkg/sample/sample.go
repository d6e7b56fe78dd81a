// Package sample bundles the reference feedback template, its partials and property schema.
package sample

import (
	"embed"
	"io/fs"
	"path"
	"strings"
)

//go:embed feedback.md properties.yaml partials/*.md
var files embed.FS

// Template returns the reference feedback template source.
func Template() string {
	return mustRead("feedback.md")
}

// PropertiesYAML returns the reference property schema.
func PropertiesYAML() []byte {
	return []byte(mustRead("properties.yaml"))
}

// Partials returns the reference partials keyed by name (file name without extension).
func Partials() map[string]string {
	entries, err := fs.ReadDir(files, "partials")
	if err != nil {
		panic(err)
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), path.Ext(e.Name()))
		out[name] = mustRead(path.Join("partials", e.Name()))
	}
	return out
}

func mustRead(name string) string {
	data, err := files.ReadFile(name)
	if err != nil {
		panic(err)
	}
	return string(data)
}
