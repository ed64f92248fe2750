package playground

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed web/*.html
var content embed.FS

var pages = template.Must(template.ParseFS(content, "web/*.html"))

// Options are the values substituted into the pages.
type Options struct {
	// GraphQLPath is the HTTP query endpoint, e.g. /graphql.
	GraphQLPath string
	// SubscriptionPath is the WebSocket endpoint, e.g. /graphql/ws.
	SubscriptionPath string
	// PlaygroundEnabled controls whether the homepage links the playground.
	PlaygroundEnabled bool
	Version           string
}

// HomeHandler serves the homepage.
func HomeHandler(opts Options) http.Handler {
	return render("index.html", opts)
}

// Handler serves the GraphiQL playground.
func Handler(opts Options) http.Handler {
	return render("playground.html", opts)
}

// render executes the template once and serves the cached bytes.
// Panics if the embedded template fails to execute (build error).
func render(name string, opts Options) http.Handler {
	var buf bytes.Buffer
	if err := pages.ExecuteTemplate(&buf, name, opts); err != nil {
		panic(fmt.Sprintf("playground: rendering %s: %v", name, err))
	}
	body := buf.Bytes()

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache, must-revalidate")
		w.WriteHeader(http.StatusOK)
		w.Write(body) //nolint:errcheck // Best-effort write; client may have gone
	})
}
