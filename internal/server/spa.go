package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// spaPage serves the SPA shell for an accepted navigation. The client-side
// router renders the page; the server has already decided the tenant scope.
func spaPage(assets fs.FS) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.ServeFileFS(w, r, assets, "index.html")
	}
}

// assetServer serves hashed bundle files under /assets. Missing files and
// directories are 404s, never the SPA shell.
func assetServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")

		info, err := fs.Stat(assets, path)
		if err != nil || info.IsDir() {
			http.NotFound(w, r)
			return
		}

		fileServer.ServeHTTP(w, r)
	})
}
