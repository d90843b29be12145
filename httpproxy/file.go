package httpproxy

import (
	"net/http"
	"path/filepath"

	"github.com/arkd0ng/weave/resolve"
)

// serveFile answers an HTTP request from a resolved filesystem
// destination: Root joined with any leftover prefix-route tail segments.
// http.ServeFile already implements the directory -> index.html rule and
// its own traversal guard against "..", on top of the check resolve.Resolve
// already performed on the substituted captures and tail segments.
func serveFile(w http.ResponseWriter, r *http.Request, dst resolve.FileDestination) {
	target := dst.Root
	if len(dst.Tail) > 0 {
		parts := append([]string{dst.Root}, dst.Tail...)
		target = filepath.Join(parts...)
	}
	http.ServeFile(w, r, target)
}
