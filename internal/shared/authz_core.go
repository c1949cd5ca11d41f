package shared

// Admin menu URLs. A role reaches an admin resource only when it is granted the
// menu guarding that resource.
const (
	MenuDashboard    = "/admin/dashboard"
	MenuCompany      = "/admin/company"
	MenuServices     = "/admin/services"
	MenuProducts     = "/admin/products"
	MenuProjects     = "/admin/projects"
	MenuClients      = "/admin/clients"
	MenuCategories   = "/admin/categories"
	MenuPhotos       = "/admin/photos"
	MenuAdmins       = "/admin/users"
	MenuRoles        = "/admin/roles"
	MenuPermissions  = "/admin/roles/permissions"
	MenuMenus        = "/admin/menus"
	MenuActivityLogs = "/admin/activity-logs"
)

// CoreMenus lists the menu URLs referenced by route guards.
func CoreMenus() []string {
	return []string{
		MenuDashboard,
		MenuCompany,
		MenuServices,
		MenuProducts,
		MenuProjects,
		MenuClients,
		MenuCategories,
		MenuPhotos,
		MenuAdmins,
		MenuRoles,
		MenuPermissions,
		MenuMenus,
		MenuActivityLogs,
	}
}
