package views

// SiteConfig holds site-wide settings every page needs.
type SiteConfig struct {
	Name string // SITE_NAME (default "Overlay Post")
}

// TemplateItem is a saved template overlay as listed on the form and in the
// admin library.
type TemplateItem struct {
	Slug         string
	Name         string
	Width        int
	Height       int
	ThumbDataURL string
	UploadedAt   string
}

// FormView is everything the single-page form renders.
type FormView struct {
	Caption      string
	TemplateName string
	ContentName  string
	Library      []TemplateItem
	Selected     string // slug of the library template in use, if any

	Notice    string // shown when the form is not ready yet
	Error     string // decode failures and rejected uploads
	ResultURL string // data: URL of the composite, empty when none
	CSRFToken string
}
