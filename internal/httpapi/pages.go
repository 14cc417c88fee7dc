package httpapi

import (
	"html/template"
	"net/http"
)

type page struct {
	Title   string
	Message string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>body{font-family:sans-serif;max-width:36rem;margin:4rem auto;padding:0 1rem;color:#222}</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>{{.Message}}</p>
</body>
</html>
`))

var (
	pageLinked = page{
		Title:   "Success!",
		Message: "Authorization complete. Your advisor can now send trades on your behalf.",
	}
	pageNoRefreshToken = page{
		Title:   "Almost there",
		Message: "No refresh token received. You may need to revoke access in your Google Account and try again.",
	}
	pageUnknownClient = page{
		Title:   "Link not recognised",
		Message: "This authorization link does not match a registered client. Ask your advisor for a new link.",
	}
	pageBadCallback = page{
		Title:   "Authorization incomplete",
		Message: "The authorization response was missing required information. Please open the link from your advisor again.",
	}
	pageFailed = page{
		Title:   "Authentication failed.",
		Message: "We could not complete the authorization. Please try again later.",
	}
)

func writePage(w http.ResponseWriter, code int, p page) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	_ = pageTmpl.Execute(w, p)
}
