package main

import (
	"errors"
	"fmt"
	"html/template"
	"log"
	"os"
	"path"
	"strings"
)

// tpl stores the documentation HTML templates.
var tpl *template.Template

// loadTemplates loads and parses the HTML templates from the
// template folder, falling back to a built-in default.
func loadTemplates() error {
	var err error
	funcMap := template.FuncMap{
		"join":       path.Join,
		"ext":        path.Ext,
		"trimsuffix": strings.TrimSuffix,
		"trimprefix": strings.TrimPrefix,
		"trimspace":  strings.TrimSpace,
	}
	fi, err := os.Stat("template")
	if errors.Is(err, os.ErrNotExist) || (err == nil && !fi.IsDir()) {
		log.Print("No template folder found; using default templates.")
		tpl, err = template.New("mapserver").Funcs(funcMap).Parse(defaultTemplate)
	} else {
		tpl, err = template.New("mapserver").Funcs(funcMap).ParseGlob("template/*.html")
	}
	if err != nil {
		return fmt.Errorf("loadTemplates: %w", err)
	}
	return nil
}

const defaultTemplate = `{{define "default"}}<!DOCTYPE html>
<html lang="en">
	<head>
		<meta charset="utf-8">
		<title>{{.FrontMatter.Title}}</title>
		<link rel="manifest" href="/manifest.webmanifest">
	</head>
	<body>
		<nav><a href="/">Map</a> | <a href="/docs/">Help</a></nav>
		{{.Content}}
	</body>
</html>
{{end}}`
