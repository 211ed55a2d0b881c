package api

import (
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

const defaultTitle = "Orient Watch Uzbekistan"

const fallbackHTML = `<!doctype html><html><head><title>` + defaultTitle +
	`</title></head><body><div id="root">Frontend not built</div></body></html>`

// ServeSPA is the catch-all route: it returns the built SPA shell with
// per-route title and OpenGraph meta so crawlers see real page data. It must
// be mounted last.
func (h *Handlers) ServeSPA(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	if strings.HasPrefix(path, "/api") || strings.Contains(filepath.Base(path), ".") {
		http.NotFound(w, r)
		return
	}

	title, description, image := h.pageMeta(path)

	page := h.baseHTML()
	page = injectMeta(page, title, description, image, h.baseURL+path)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}

// pageMeta resolves SEO fields for a storefront route.
func (h *Handlers) pageMeta(path string) (title, description, image string) {
	title = defaultTitle
	description = "Официальный дилер Orient в Узбекистане. Японские часы с гарантией."

	switch {
	case strings.HasPrefix(path, "/product/"):
		idStr := strings.TrimPrefix(path, "/product/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			return
		}
		p, err := h.products.GetByID(id)
		if err != nil {
			return
		}
		title = p.Name + " — " + defaultTitle
		if p.SEOTitle != "" {
			title = p.SEOTitle
		}
		if p.SEODescription != "" {
			description = p.SEODescription
		} else if p.Description != "" {
			description = p.Description
		}
		image = p.Image

	case strings.HasPrefix(path, "/collection/"):
		slug := strings.TrimPrefix(path, "/collection/")
		c, err := h.collections.GetByID(slug)
		if err != nil {
			return
		}
		title = fmt.Sprintf("Коллекция %s — %s", c.Name, defaultTitle)
		if c.Description != "" {
			description = c.Description
		}
		image = c.Image

	case path == "/catalog":
		title = "Каталог часов — " + defaultTitle
	}
	return
}

func (h *Handlers) baseHTML() string {
	data, err := os.ReadFile(filepath.Join(h.distDir, "index.html"))
	if err != nil {
		return fallbackHTML
	}
	return string(data)
}

// injectMeta swaps the build-time title and adds description/OG/twitter tags
// before </head>.
func injectMeta(page, title, description, image, url string) string {
	title = html.EscapeString(title)
	description = html.EscapeString(description)

	page = strings.Replace(page,
		"<title>"+defaultTitle+"</title>", "<title>"+title+"</title>", 1)

	meta := fmt.Sprintf(`
	<meta name="description" content="%s">
	<meta property="og:type" content="website">
	<meta property="og:title" content="%s">
	<meta property="og:description" content="%s">
	<meta property="og:image" content="%s">
	<meta property="og:url" content="%s">
	<meta name="twitter:card" content="summary_large_image">
	<meta name="twitter:title" content="%s">
	<meta name="twitter:description" content="%s">
	<meta name="twitter:image" content="%s">
	`, description, title, description, image, url, title, description, image)

	return strings.Replace(page, "</head>", meta+"</head>", 1)
}
