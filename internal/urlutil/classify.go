package urlutil

import (
	"net/url"
	"path"
	"strings"
)

// allowedExtensions are the only non-empty extensions considered crawlable.
var allowedExtensions = map[string]bool{
	".html": true,
	".htm":  true,
	".aspx": true,
	".php":  true,
}

// excludedExtensions covers images, documents, media, archives, data/markup
// formats, and web assets that are never worth fetching as pages.
var excludedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".svg": true, ".webp": true, ".ico": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true, ".ppt": true, ".pptx": true, ".odt": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true, ".wav": true, ".ogg": true, ".webm": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true, ".bz2": true,
	".xml": true, ".json": true, ".rss": true, ".atom": true,
	".css": true, ".js": true, ".mjs": true,
	".woff": true, ".woff2": true, ".ttf": true, ".eot": true, ".otf": true,
}

// excludedSystemPaths are path segments that point at CGI, admin, or CMS
// internals rather than crawlable content.
var excludedSystemPaths = []string{
	"/cgi-bin/",
	"/cdn-cgi/",
	"/wp-admin/",
	"/wp-includes/",
	"/wp-content/plugins/",
	"/admin/",
	"/phpmyadmin/",
}

// IsValidLink reports whether rawURL is syntactically eligible for crawling:
// its extension is empty or explicitly allowed, it does not match an
// excluded extension, and its path does not contain any of the excluded
// system path segments (anywhere in the path, not only at its start).
func IsValidLink(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	lowerPath := strings.ToLower(parsed.Path)
	for _, prefix := range excludedSystemPaths {
		if strings.Contains(lowerPath, prefix) {
			return false
		}
	}

	ext := strings.ToLower(path.Ext(lowerPath))
	if ext == "" {
		return true
	}
	if excludedExtensions[ext] {
		return false
	}
	return allowedExtensions[ext]
}
