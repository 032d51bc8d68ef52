// Package web turns request paths into HTML pages.
//
// Route tokenizes a path against the repository registry. Handler runs a
// request end to end: it discovers repositories, routes, opens the
// matched repository, asks the git package for view data and renders it
// with a Renderer. The resulting Page is written either as a CGI response
// or through the HTTP Server.
package web
