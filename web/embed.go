// Package web holds the dashboard templates and static assets, embedded in
// the server binary.
package web

import "embed"

// TemplatesFS holds the page and fragment templates.
//
//go:embed templates/*.html
var TemplatesFS embed.FS

// StaticFS holds the stylesheet and the toast script.
//
//go:embed static/*
var StaticFS embed.FS
