package dumps

import (
	"strings"
	"testing"
)

const sampleListing = `<html><body><table>
<tr><td><a href="ai.stackexchange.com.7z">ai.stackexchange.com.7z</a></td></tr>
<tr><td><a href="arduino.stackexchange.com.7z">arduino.stackexchange.com.7z</a></td></tr>
<tr><td><a href="stackexchange_files.xml">stackexchange_files.xml</a></td></tr>
<tr><td><a href="Stackoverflow.com-Posts.7z">Stackoverflow.com-Posts.7z</a></td></tr>
</table></body></html>`

func TestParseListing(t *testing.T) {
	sites, err := parseListing(strings.NewReader(sampleListing))
	if err != nil {
		t.Fatalf("parseListing: %v", err)
	}

	if sites["ai.stackexchange.com"] != "ai.stackexchange.com.7z" {
		t.Errorf("site not picked up from listing: %v", sites)
	}
	if _, ok := sites["stackexchange_files.xml"]; ok {
		t.Error("non-archive links should be ignored")
	}
	if sites["stackoverflow"] != "Stackoverflow.com-Posts.7z" {
		t.Errorf("stackoverflow alias missing: %v", sites)
	}
}

func TestSuggest(t *testing.T) {
	d := &Downloader{sites: map[string]string{
		"ai.stackexchange.com":      "ai.stackexchange.com.7z",
		"arduino.stackexchange.com": "arduino.stackexchange.com.7z",
	}}

	similar := d.Suggest("ai")
	if len(similar) != 1 || similar[0] != "ai.stackexchange.com" {
		t.Errorf("unexpected suggestions: %v", similar)
	}

	if got := d.Suggest("zzz"); len(got) != 0 {
		t.Errorf("no suggestion expected, got %v", got)
	}
}

func TestArchivePathUnknownSite(t *testing.T) {
	d := &Downloader{dir: "dumps", sites: map[string]string{}}
	if _, err := d.ArchivePath("nope"); err == nil {
		t.Error("unknown site should error")
	}
}

func TestKnown(t *testing.T) {
	d := &Downloader{sites: map[string]string{"ai.stackexchange.com": "ai.stackexchange.com.7z"}}
	if !d.Known("ai.stackexchange.com") {
		t.Error("listed site should be known")
	}
	if d.Known("ai") {
		t.Error("prefix should not be known")
	}
}
