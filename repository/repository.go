// Package repository locates the project root enclosing a scan target and
// identifies which ecosystems the project uses, which feeds language
// filtering and entry-point defaults.
package repository

// Repository describes the detected repository containing a scan target
type Repository struct {
	Kind    string // "git" or the project type when no VCS marker exists
	Root    string
	Origin  string // git remote origin URL when available
	Project *Project
}

// Project represents one detected project root
type Project struct {
	RootPath     string   // absolute path to the project root directory
	Types        []string // detected ecosystems: typescript, python, java, csharp, php
	Name         string   // extracted from the ecosystem's manifest
	RelativePath string   // from project root to the inspected path
}

// HasType reports whether the project uses the given ecosystem
func (p *Project) HasType(name string) bool {
	for _, t := range p.Types {
		if t == name {
			return true
		}
	}
	return false
}
