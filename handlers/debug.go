package handlers

import (
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// Debug echoes the request and reports build information as plain text.
func Debug(repoURL, sha1ver, buildtime string) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		var b strings.Builder

		fmt.Fprintf(&b, "url: %s %s\n", r.Method, r.RequestURI)
		b.WriteString("Headers:\n")

		names := make([]string, 0, len(r.Header))
		for name := range r.Header {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintf(&b, "  %s: %s\n", name, strings.Join(r.Header[name], ", "))
		}

		b.WriteString("\n")
		fmt.Fprintf(&b, "ver: %s/commit/%s\n", repoURL, sha1ver)
		fmt.Fprintf(&b, "built on: %s\n", buildtime)
		fmt.Fprintf(&b, "api version called: %s", mux.Vars(r)["apiVersion"])

		servePlainText(rw, b.String())
	})
}

func servePlainText(w http.ResponseWriter, s string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(s)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(s)) // nolint
}
