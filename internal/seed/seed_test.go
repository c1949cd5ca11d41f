package seed

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreasi-nusantara/compro/internal/shared"
)

func TestDefaultCoversGuardedMenus(t *testing.T) {
	file, err := Default()
	require.NoError(t, err)

	urls := file.MenuURLs()
	for _, menu := range shared.CoreMenus() {
		assert.Contains(t, urls, menu)
	}
	require.NotNil(t, file.Admin)
	assert.Equal(t, "admin", file.Admin.Username)
	assert.Empty(t, file.Admin.Password)
}

func TestGrantedURLsExpandsWildcard(t *testing.T) {
	file, err := Default()
	require.NoError(t, err)

	super := file.GrantedURLs(file.Roles[0])
	assert.Equal(t, file.MenuURLs(), super)
	editor := file.GrantedURLs(file.Roles[1])
	assert.NotContains(t, editor, shared.MenuAdmins)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(strings.NewReader("menus: []\nroless: []\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "roless")
}

func TestLoadValidatesReferences(t *testing.T) {
	doc := `
menus:
  - label: Dashboard
    url: /admin/dashboard
  - label: ""
    url: admin/broken
roles:
  - name: Editor
    menus: [/admin/missing]
  - name: editor
admin:
  username: ad
  roles: [Owner]
`
	_, err := Load(strings.NewReader(doc))
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "wajib diisi", verr.Fields["menus[1].label"])
	assert.Equal(t, "harus diawali /", verr.Fields["menus[1].url"])
	assert.Equal(t, "menu /admin/missing tidak dikenal", verr.Fields["roles[0].menus"])
	assert.Equal(t, "duplikat", verr.Fields["roles[1].name"])
	assert.Equal(t, "minimal 3", verr.Fields["admin.username"])
	assert.Equal(t, "role Owner tidak dikenal", verr.Fields["admin.roles"])
}

func TestLoadRejectsDuplicateAndDeepMenus(t *testing.T) {
	doc := `
menus:
  - label: A
    url: /a
    children:
      - label: B
        url: /a
        children:
          - label: C
            url: /c
`
	_, err := Load(strings.NewReader(doc))
	var verr *shared.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "duplikat", verr.Fields["menus[0].children[0].url"])
	assert.Equal(t, "menu hanya dua tingkat", verr.Fields["menus[0].children[0]"])
}

func TestLoadEmptyDocument(t *testing.T) {
	file, err := Load(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, file.MenuURLs())
	assert.Nil(t, file.Admin)
}
