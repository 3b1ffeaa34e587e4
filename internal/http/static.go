package httpx

import (
	"io/fs"
	"net/http"
	"path"
	"strings"
)

// StaticFallthrough serves GET and HEAD requests that name a regular file in fsys.
// Everything else goes to next.
func StaticFallthrough(fsys fs.FS, next http.Handler) http.Handler {
	files := http.FileServerFS(fsys)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}
		name := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
		if name == "" || name == "." {
			next.ServeHTTP(w, r)
			return
		}
		info, err := fs.Stat(fsys, name)
		if err != nil || !info.Mode().IsRegular() {
			next.ServeHTTP(w, r)
			return
		}
		files.ServeHTTP(w, r)
	})
}

// noDirListing hides directory indexes.
func noDirListing(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") || r.URL.Path == "" {
			http.NotFound(w, r)
			return
		}
		h.ServeHTTP(w, r)
	})
}
