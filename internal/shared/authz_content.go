package shared

// Content and site permissions.
const (
	PermBlogView    = "blog.view"
	PermBlogEdit    = "blog.edit"
	PermBlogPublish = "blog.publish"

	PermAcademicsView = "academics.view"
	PermAcademicsEdit = "academics.edit"

	PermFacilitiesView = "facilities.view"
	PermFacilitiesEdit = "facilities.edit"
)

// ContentScopes lists all permissions related to site content.
func ContentScopes() []string {
	return []string{
		PermBlogView,
		PermBlogEdit,
		PermBlogPublish,
		PermAcademicsView,
		PermAcademicsEdit,
		PermFacilitiesView,
		PermFacilitiesEdit,
	}
}
