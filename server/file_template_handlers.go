package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
)

//go:embed templates/*
var templateFiles embed.FS

const layoutTemplate = "layout.html"

// Page templates, each rendered inside the layout
const (
	pageLogin          = "login.html"
	pageRegister       = "register.html"
	pageForgotPassword = "forgot_password.html"
	pageResetPassword  = "reset_password.html"
	pageBusiness       = "page.html"
	pageLoading        = "loading.html"
	pageError          = "error.html"
	pageForbidden      = "forbidden.html"
	pageNotFound       = "not_found.html"
)

var allPages = []string{
	pageLogin, pageRegister, pageForgotPassword, pageResetPassword,
	pageBusiness, pageLoading, pageError, pageForbidden, pageNotFound,
}

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// ParseTemplate parses a page together with the shared layout
func ParseTemplate(name string) (*template.Template, error) {
	return template.New(name).ParseFS(TemplateFilesFS(), layoutTemplate, name)
}

func parsePages() (map[string]*template.Template, error) {
	pages := make(map[string]*template.Template, len(allPages))
	for _, name := range allPages {
		tmpl, err := ParseTemplate(name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		pages[name] = tmpl
	}
	return pages, nil
}
