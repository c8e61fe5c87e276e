package notifications

import (
	"strings"
	"testing"
)

// FuzzGetShoutrrrTemplate fuzzes getShoutrrrTemplate to ensure robust parsing of template strings.
func FuzzGetShoutrrrTemplate(f *testing.F) {
	f.Add("{{.}}")
	f.Add("{{range .Entries}}{{.Message}}{{end}}")
	f.Add("json.v1")
	f.Add("{{ intentionalSyntaxError")
	f.Add("")
	f.Add(strings.Repeat("a", 1000))

	f.Fuzz(func(_ *testing.T, tplString string) {
		_, _ = getShoutrrrTemplate(tplString)
	})
}

// FuzzGetScheme fuzzes GetScheme with arbitrary URL strings.
func FuzzGetScheme(f *testing.F) {
	f.Add("discord://token@id")
	f.Add("://invalid")
	f.Add("")
	f.Add("not-a-url")

	f.Fuzz(func(t *testing.T, url string) {
		scheme := GetScheme(url)
		if scheme != "invalid" && !strings.HasPrefix(url, scheme+":") {
			t.Errorf("GetScheme(%q) = %q", url, scheme)
		}
	})
}
