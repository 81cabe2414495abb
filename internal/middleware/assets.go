package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// AssetsWithCache serves files under dir with long-lived Cache-Control and a
// content ETag. prefix is the URL prefix already routed to this handler.
func AssetsWithCache(dir, prefix string) http.Handler {
	etags := map[string]string{}
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(dir, path); err == nil {
			if et, err := fileETag(path); err == nil {
				etags["/"+filepath.ToSlash(rel)] = et
			}
		}
		return nil
	})
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Accept-Encoding")
		w.Header().Set("Cache-Control", "public, max-age=604800, stale-while-revalidate=86400")
		if et := etags[strings.TrimPrefix(r.URL.Path, prefix)]; et != "" {
			w.Header().Set("ETag", et)
			if r.Header.Get("If-None-Match") == et {
				w.WriteHeader(http.StatusNotModified)
				return
			}
		}
		files.ServeHTTP(w, r)
	})
}

func fileETag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return `W/"` + hex.EncodeToString(h.Sum(nil)) + `"`, nil
}
