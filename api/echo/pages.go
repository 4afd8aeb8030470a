package echo

import "github.com/labstack/echo/v4"

func (a *API) Index(c echo.Context) error {
	return a.renderPage(c, "index", "page.home.title")
}

func (a *API) About(c echo.Context) error {
	return a.renderPage(c, "about", "page.about.title")
}

func (a *API) Contact(c echo.Context) error {
	return a.renderPage(c, "contact", "page.contact.title")
}

func (a *API) Privacy(c echo.Context) error {
	return a.renderPage(c, "privacy", "page.privacy.title")
}

func (a *API) Terms(c echo.Context) error {
	return a.renderPage(c, "terms", "page.terms.title")
}

func (a *API) SignInPage(c echo.Context) error {
	return a.renderPage(c, "sign-in", "auth.sign_in.title")
}

func (a *API) RegisterPage(c echo.Context) error {
	return a.renderPage(c, "register", "auth.register.title")
}
