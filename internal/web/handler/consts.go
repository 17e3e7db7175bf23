package handler

const (
	// BaseLayout is the default path for layout templates.
	BaseLayout = "layouts/base"

	// RootPath is the root path the route group.
	RootPath = "/"

	// ProfilePath shows the claims of the signed in user.
	ProfilePath = RootPath + "profile"

	// DefaultTitle is used when no page title is configured.
	DefaultTitle = "Entra ID login"
)
