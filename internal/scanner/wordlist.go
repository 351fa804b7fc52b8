package scanner

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// defaultWordlist covers common admin panels, backups, VCS leftovers and
// framework paths. A custom list loaded from disk replaces it wholesale.
var defaultWordlist = []string{
	"admin", "administrator", "login", "wp-admin", "wp-login", "dashboard",
	"backup", "backups", "config", "configuration", "conf", "settings",
	"api", "v1", "v2", "test", "testing", "dev", "development", "staging",
	"phpmyadmin", "mysql", "database", "db", "sql", "phpinfo", "info",
	"logs", "log", "error", "errors", "debug", "tmp", "temp", "cache",
	"assets", "static", "public", "private", "secure", "secure_files",
	"uploads", "upload", "files", "file", "images", "img", "media",
	"download", "downloads", "documents", "docs", "documentation",
	"old", "old_files", "archive", "archives", "www", "wwwroot",
	"includes", "include", "includes_files", "lib", "libs", "library",
	"scripts", "script", "js", "css", "styles", "style",
	"robots.txt", "sitemap.xml", ".git", ".svn", ".env", ".htaccess",
	"web.config", "crossdomain.xml", "clientaccesspolicy.xml",
	"readme", "readme.txt", "license", "changelog", "changelog.txt",
	"install", "install.php", "setup", "setup.php", "upgrade",
	"search", "search.php", "index.php.bak", "index.html.bak",
	"admin.php", "admin.html", "admin/index", "admin/login",
	"manager", "management", "control", "controlpanel", "panel",
}

// DefaultWordlist returns a copy of the built-in wordlist.
func DefaultWordlist() []string {
	out := make([]string, len(defaultWordlist))
	copy(out, defaultWordlist)
	return out
}

// LoadWordlist reads one candidate path per line, skipping blanks.
func LoadWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load wordlist: %w", err)
	}
	defer f.Close()

	var entries []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		entries = append(entries, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load wordlist: %w", err)
	}
	return entries, nil
}
