package forexbot

import "embed"

// TemplateFS contains the embedded HTML templates for the landing and chat pages, split into layouts,
// pages, and partial views.
//
//go:embed templates/*
var TemplateFS embed.FS

// StaticFS contains the embedded browser assets: the chat widget script and the stylesheet.
//
//go:embed static/*
var StaticFS embed.FS
