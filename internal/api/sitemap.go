package api

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"time"
)

var staticPages = []string{
	"/", "/catalog", "/boutique", "/history",
	"/collections", "/warranty", "/delivery_policy", "/return_policy",
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// Sitemap serves /sitemap.xml from static pages, in-stock products and
// active collections.
func (h *Handlers) Sitemap(w http.ResponseWriter, r *http.Request) {
	set := urlSet{XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9"}

	for _, path := range staticPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + path,
			ChangeFreq: "weekly",
			Priority:   "0.8",
		})
	}

	products, err := h.products.All()
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, p := range products {
		if !p.InStock {
			continue
		}
		lastmod := p.UpdatedAt
		if lastmod.IsZero() {
			lastmod = time.Now()
		}
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        fmt.Sprintf("%s/product/%d", h.baseURL, p.ID),
			LastMod:    lastmod.Format("2006-01-02"),
			ChangeFreq: "daily",
			Priority:   "1.0",
		})
	}

	collections, err := h.collections.List(true)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	for _, c := range collections {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/collection/" + c.ID,
			ChangeFreq: "weekly",
			Priority:   "0.9",
		})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
