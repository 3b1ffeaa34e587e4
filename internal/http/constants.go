package httpx

// CurrentPage constants define the page identifiers used in templates and navigation.
const (
	PageHome       = "home"
	PageCourses    = "courses"
	PageCourse     = "course"
	PageCourseEdit = "course-edit"
	PageAdd        = "add"
	PageCard       = "card"
	PageOrders     = "orders"
	PageAuth       = "auth"
	PageProfile    = "profile"
	PageError      = "error"
)

// Template paths used for loading templates in tests and production.
const (
	TemplatePathFromRoot = "frontend/templates"       // From project root
	TemplatePathFromTest = "../../frontend/templates" // From internal/http test files
)

// Content templates are defined once and reused to avoid per-call allocations.
//
//nolint:gochecknoglobals // static read-only lookup for templates; avoids per-call allocations
var contentTemplates = map[string]string{
	PageHome:       "home-content",
	PageCourses:    "courses-content",
	PageCourse:     "course-content",
	PageCourseEdit: "course-edit-content",
	PageAdd:        "add-content",
	PageCard:       "card-content",
	PageOrders:     "orders-content",
	PageAuth:       "auth-content",
	PageProfile:    "profile-content",
	PageError:      "error-content",
}

// ContentTemplateMap returns the mapping from CurrentPage to template name.
func ContentTemplateMap() map[string]string { return contentTemplates }

// ContentTemplateFor returns the content template for the given CurrentPage.
// Falls back to error-content for unknown pages.
func ContentTemplateFor(currentPage string) string {
	if name, ok := ContentTemplateMap()[currentPage]; ok {
		return name
	}
	return "error-content"
}
