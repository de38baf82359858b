// Package templates renders the HTML pages of the web UI. Pages are built
// with gomponents and exposed as templ components so handlers render them
// with Render(ctx, w).
package templates

import (
	"context"
	"io"

	"github.com/a-h/templ"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

const datastarSrc = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.7/bundles/datastar.js"

// PageMeta holds display settings shared by every page.
type PageMeta struct {
	Title string
	Wide  bool
}

func component(n g.Node) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return n.Render(w)
	})
}

func page(meta PageMeta, body ...g.Node) g.Node {
	title := meta.Title
	if title == "" {
		title = "Data Cleaner"
	}
	container := "container"
	if meta.Wide {
		container += " container-wide"
	}

	return g.Group([]g.Node{
		g.Raw("<!DOCTYPE html>"),
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text(title)),
				h.Link(h.Rel("icon"), h.Href("data:,")),
				h.Link(h.Rel("stylesheet"), h.Href("/static/app.css")),
				h.Script(h.Type("module"), h.Src(datastarSrc)),
			),
			h.Body(
				h.Main(
					h.Class(container),
					h.Header(
						h.Class("page-header"),
						h.H1(h.A(h.Href("/"), g.Text(title))),
					),
					uploadForm(),
					g.Group(body),
				),
			),
		),
	})
}

func uploadForm() g.Node {
	return h.Form(
		h.Class("card upload"),
		h.Method("post"),
		h.Action("/upload"),
		h.EncType("multipart/form-data"),
		h.Label(h.For("files"), g.Text("Upload CSV or Excel files")),
		h.Input(
			h.Type("file"),
			h.ID("files"),
			h.Name("files"),
			h.Multiple(),
			h.Accept(".csv,.xlsx"),
		),
		h.Button(h.Type("submit"), h.Class("btn btn-primary"), g.Text("Upload")),
	)
}

func alert(tone string, children ...g.Node) g.Node {
	return h.Div(h.Class("alert alert-"+tone), g.Attr("role", "status"), g.Group(children))
}

func muted(text string) g.Node {
	return h.P(h.Class("muted"), g.Text(text))
}
