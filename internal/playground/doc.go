// Package playground serves Holocron's browser pages: a small homepage with
// links to the endpoints and a GraphiQL playground wired to the GraphQL and
// subscription paths.
//
// The pages are html/template files embedded with go:embed, so the binary
// has no runtime dependency on external files. GraphiQL itself is loaded from
// a CDN by the browser.
package playground
