package sse

import (
	"bytes"
	"io"
	"net/http"
	"path"
	"strings"
)

// reloadScript reloads the index on index.updated and a post page on a
// post.published event carrying its own slug.
const reloadScript = `<script>
(function () {
  var name = location.pathname.split("/").pop().replace(/\.html$/, "");
  var isIndex = name === "" || name === "index";
  var events = new EventSource("/api/events");
  events.addEventListener("index.updated", function () {
    if (isIndex) location.reload();
  });
  events.addEventListener("post.published", function (e) {
    if (!isIndex && JSON.parse(e.data).slug === name) location.reload();
  });
})();
</script>
`

var bodyClose = []byte("</body>")

// SiteHandler serves the generated site from dir. HTML pages are served with
// the reload script placed before </body>; the files on disk are unchanged.
func SiteHandler(dir string) http.Handler {
	return &siteHandler{root: http.Dir(dir), files: http.FileServer(http.Dir(dir))}
}

type siteHandler struct {
	root  http.Dir
	files http.Handler
}

func (h *siteHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Path
	if strings.HasSuffix(name, "/") {
		name += "index.html"
	}
	if path.Ext(name) != ".html" {
		h.files.ServeHTTP(w, r)
		return
	}

	f, err := h.root.Open(name)
	if err != nil {
		h.files.ServeHTTP(w, r)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil || info.IsDir() {
		h.files.ServeHTTP(w, r)
		return
	}
	page, err := io.ReadAll(f)
	if err != nil {
		http.Error(w, "read page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, name, info.ModTime(), bytes.NewReader(withReload(page)))
}

func withReload(page []byte) []byte {
	i := bytes.LastIndex(page, bodyClose)
	if i < 0 {
		return append(page, reloadScript...)
	}
	out := make([]byte, 0, len(page)+len(reloadScript))
	out = append(out, page[:i]...)
	out = append(out, reloadScript...)
	return append(out, page[i:]...)
}
