// Package plugins wires the built-in document plugins into a registry.
package plugins

import (
	"git.home.luguber.info/inful/scanbinder/internal/plugin"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/djvu"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/djvutoc"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/pdf"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/pdftoc"
	"git.home.luguber.info/inful/scanbinder/internal/plugins/prepare"
)

// RegisterBuiltins adds every built-in plugin to r.
func RegisterBuiltins(r *plugin.Registry) {
	r.MustRegister(prepare.Name, prepare.New)
	r.MustRegister(pdf.Name, pdf.New)
	r.MustRegister(djvu.Name, djvu.New)
	r.MustRegister(pdftoc.Name, pdftoc.New)
	r.MustRegister(djvutoc.Name, djvutoc.New)
}

// NewRegistry returns a registry holding the built-in plugins.
func NewRegistry() *plugin.Registry {
	r := plugin.NewRegistry()
	RegisterBuiltins(r)
	return r
}
