package templates

import (
	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// ErrorAlert renders a user-facing error with its suggested action.
func ErrorAlert(message, action, code string) templ.Component {
	return component(errorAlert(message, action, code))
}

// ErrorPage renders a full page around ErrorAlert.
func ErrorPage(meta PageMeta, message, action, code string) templ.Component {
	return component(page(meta,
		errorAlert(message, action, code),
		h.P(h.A(h.Href("/"), g.Text("Back to upload"))),
	))
}

func errorAlert(message, action, code string) g.Node {
	return h.Div(
		h.Class("alert alert-error"),
		g.Attr("role", "alert"),
		h.Strong(g.Text(message)),
		g.If(action != "", h.P(g.Text(action))),
		g.If(code != "", h.Span(h.Class("code"), g.Text(code))),
	)
}
