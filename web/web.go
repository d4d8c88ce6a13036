// Package web embeds the storefront's templates and static assets.
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed templates static
var files embed.FS

// Templates is the root the html engine loads page templates from.
func Templates() http.FileSystem {
	return http.FS(sub("templates"))
}

// Static serves /static.
func Static() http.FileSystem {
	return http.FS(sub("static"))
}

func sub(dir string) fs.FS {
	f, err := fs.Sub(files, dir)
	if err != nil {
		panic(err)
	}
	return f
}
