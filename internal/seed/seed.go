// Package seed loads the bootstrap data set: admin menus, roles with their
// menu grants, and the first administrator.
package seed

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

//go:embed default.yaml
var defaultSeed []byte

// AllMenus grants every menu in the file when used in a role's menu list.
const AllMenus = "*"

// File is the decoded seed document.
type File struct {
	Menus []Menu `yaml:"menus"`
	Roles []Role `yaml:"roles"`
	Admin *Admin `yaml:"admin"`
}

// Menu is one admin menu entry. Children become sub-menus.
type Menu struct {
	Label    string `yaml:"label"`
	URL      string `yaml:"url"`
	Children []Menu `yaml:"children"`
}

// Role is a role together with the menu URLs it is granted.
type Role struct {
	Name  string   `yaml:"name"`
	Menus []string `yaml:"menus"`
}

// Admin is the administrator created when the username is still free.
type Admin struct {
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	Roles    []string `yaml:"roles"`
}

// Default returns the embedded seed.
func Default() (File, error) {
	return Load(bytes.NewReader(defaultSeed))
}

// LoadFile reads and validates the seed at path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Load(f)
}

// Load decodes and validates a seed document. Unknown keys are rejected.
func Load(r io.Reader) (File, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var file File
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return File{}, fmt.Errorf("seed: decode: %w", err)
	}
	if err := file.Validate(); err != nil {
		return File{}, err
	}
	return file, nil
}

// MenuURLs lists every menu URL in declaration order, parents first.
func (f File) MenuURLs() []string {
	var urls []string
	for _, m := range f.Menus {
		urls = append(urls, m.URL)
		for _, c := range m.Children {
			urls = append(urls, c.URL)
		}
	}
	return urls
}

// GrantedURLs expands a role's menu list.
func (f File) GrantedURLs(role Role) []string {
	for _, u := range role.Menus {
		if u == AllMenus {
			return f.MenuURLs()
		}
	}
	return role.Menus
}

// Validate checks references inside the document.
func (f File) Validate() error {
	verr := &shared.ValidationError{}
	menus := make(map[string]bool)
	for i, m := range f.Menus {
		checkMenu(verr, fmt.Sprintf("menus[%d]", i), m, menus)
		for j, c := range m.Children {
			if len(c.Children) > 0 {
				verr.Add(fmt.Sprintf("menus[%d].children[%d]", i, j), "menu hanya dua tingkat")
			}
			checkMenu(verr, fmt.Sprintf("menus[%d].children[%d]", i, j), c, menus)
		}
	}
	roles := make(map[string]bool)
	for i, r := range f.Roles {
		field := fmt.Sprintf("roles[%d]", i)
		key := strings.ToLower(strings.TrimSpace(r.Name))
		switch {
		case key == "":
			verr.Add(field+".name", "wajib diisi")
		case roles[key]:
			verr.Add(field+".name", "duplikat")
		}
		roles[key] = true
		for _, u := range r.Menus {
			if u != AllMenus && !menus[u] {
				verr.Add(field+".menus", "menu "+u+" tidak dikenal")
			}
		}
	}
	if f.Admin != nil {
		if len(strings.TrimSpace(f.Admin.Username)) < 3 {
			verr.Add("admin.username", "minimal 3")
		}
		if len(f.Admin.Roles) == 0 {
			verr.Add("admin.roles", "wajib diisi")
		}
		for _, name := range f.Admin.Roles {
			if !roles[strings.ToLower(strings.TrimSpace(name))] {
				verr.Add("admin.roles", "role "+name+" tidak dikenal")
			}
		}
	}
	return verr.OrNil()
}

func checkMenu(verr *shared.ValidationError, field string, m Menu, seen map[string]bool) {
	if strings.TrimSpace(m.Label) == "" {
		verr.Add(field+".label", "wajib diisi")
	}
	if !strings.HasPrefix(m.URL, "/") {
		verr.Add(field+".url", "harus diawali /")
		return
	}
	if seen[m.URL] {
		verr.Add(field+".url", "duplikat")
	}
	seen[m.URL] = true
}
