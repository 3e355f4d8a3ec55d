package handlers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type urlset struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod"`
	ChangeFreq string `xml:"changefreq"`
	Priority   string `xml:"priority"`
}

// baseURL приводит адрес сайта к виду scheme://host без завершающего "/".
func (h *Handlers) baseURL() string {
	u := strings.TrimRight(strings.TrimSpace(h.siteURL), "/")
	if u == "" {
		return "http://localhost:3000"
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "https://" + u
	}
	return u
}

// Sitemap - GET /sitemap.xml.
func (h *Handlers) Sitemap(w http.ResponseWriter, r *http.Request) {
	base := h.baseURL()

	entries := h.svc.SitemapEntries(r.Context())
	set := urlset{Xmlns: sitemapNS, URLs: make([]sitemapURL, 0, len(entries))}
	for _, e := range entries {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        base + e.Path,
			LastMod:    e.LastMod.UTC().Format(time.RFC3339),
			ChangeFreq: e.ChangeFreq,
			Priority:   fmt.Sprintf("%.1f", e.Priority),
		})
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(set)
}

// Robots - GET /robots.txt.
func (h *Handlers) Robots(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "User-Agent: *\nAllow: /\nDisallow: /admin\nDisallow: /api/*\n\nSitemap: %s/sitemap.xml\n", h.baseURL())
}
