// Package dumps acquires StackExchange data dumps from archive.org: the site
// catalog, the .7z archives, and their extraction. Decompression is delegated
// to the external 7z binary.
package dumps

import (
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/internalerr"
)

const listingURL = "https://archive.org/download/stackexchange"

// Downloader knows the published dumps and fetches them under dir.
type Downloader struct {
	dir   string
	sites map[string]string // site name -> archive file name
}

// New fetches the archive.org listing and returns a Downloader saving
// archives under dir.
func New(dir string) (*Downloader, error) {
	resp, err := http.Get(listingURL)
	if err != nil {
		return nil, fmt.Errorf("fetch dump listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch dump listing: HTTP %d", resp.StatusCode)
	}

	sites, err := parseListing(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse dump listing: %w", err)
	}

	return &Downloader{dir: dir, sites: sites}, nil
}

// parseListing walks the listing page and collects every .7z link. Site
// names are the archive file names without the .7z suffix; the split
// stackoverflow Posts archive is aliased to plain "stackoverflow".
func parseListing(r io.Reader) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	sites := make(map[string]string)
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			for _, attr := range n.Attr {
				if attr.Key != "href" || !strings.HasSuffix(attr.Val, ".7z") {
					continue
				}
				file := attr.Val
				name := strings.ToLower(strings.TrimSuffix(file, ".7z"))
				sites[name] = file
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if file, ok := sites["stackoverflow.com-posts"]; ok {
		sites["stackoverflow"] = file
	}

	return sites, nil
}

// Sites returns the known site names.
func (d *Downloader) Sites() []string {
	names := make([]string, 0, len(d.sites))
	for name := range d.sites {
		names = append(names, name)
	}
	return names
}

// Known reports whether name is a published dump.
func (d *Downloader) Known(name string) bool {
	_, ok := d.sites[name]
	return ok
}

// Suggest returns site names that start or end with name, for the
// "perhaps you meant" hint on typos.
func (d *Downloader) Suggest(name string) []string {
	var similar []string
	for site := range d.sites {
		if strings.HasPrefix(site, name) || strings.HasSuffix(site, name) {
			similar = append(similar, site)
		}
	}
	return similar
}

// ArchivePath returns the local path of the site's .7z archive.
func (d *Downloader) ArchivePath(name string) (string, error) {
	file, ok := d.sites[name]
	if !ok {
		return "", fmt.Errorf("site %q: %w", name, internalerr.ErrUnknownSite)
	}
	return filepath.Join(d.dir, file), nil
}

// Download fetches the site's archive unless a valid local copy already
// exists, and returns its path.
func (d *Downloader) Download(name string) (string, error) {
	path, err := d.ArchivePath(name)
	if err != nil {
		return "", err
	}

	if d.valid(name, path) {
		log.Printf("%s: archive already downloaded", name)
		return path, nil
	}

	if err := os.MkdirAll(d.dir, 0755); err != nil {
		return "", err
	}

	url := listingURL + "/" + d.sites[name]
	log.Printf("%s: downloading %s", name, url)

	resp, err := http.Get(url)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: HTTP %d", url, resp.StatusCode)
	}

	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(path)
		return "", fmt.Errorf("download %s: %w", url, err)
	}
	if err := out.Close(); err != nil {
		return "", err
	}

	return path, nil
}

// valid compares the local archive size against the published size; a failed
// check just forces a re-download.
func (d *Downloader) valid(name, path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	resp, err := http.Head(listingURL + "/" + d.sites[name])
	if err != nil {
		return info.Size() > 0
	}
	defer resp.Body.Close()

	if resp.ContentLength <= 0 {
		return info.Size() > 0
	}
	return info.Size() == resp.ContentLength
}

// Extract unpacks the site's archive with the 7z binary and returns the path
// of the extracted Posts.xml.
func (d *Downloader) Extract(name string) (string, error) {
	archive, err := d.ArchivePath(name)
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(d.dir, name)
	xmlPath := filepath.Join(outDir, "Posts.xml")
	if _, err := os.Stat(xmlPath); err == nil {
		log.Printf("%s: archive already extracted", name)
		return xmlPath, nil
	}

	cmd := exec.Command("7z", "x", archive, "-o"+outDir, "-y")
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("extract %s: %v: %s", archive, err, out)
	}

	if _, err := os.Stat(xmlPath); err != nil {
		return "", fmt.Errorf("extract %s: no Posts.xml produced", archive)
	}
	return xmlPath, nil
}

// StreamPosts decompresses Posts.xml straight from the archive without
// writing it to disk. Closing the returned reader stops the 7z process.
func (d *Downloader) StreamPosts(name string) (io.ReadCloser, error) {
	archive, err := d.ArchivePath(name)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command("7z", "x", "-so", archive, "Posts.xml")
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("stream %s: %w", archive, err)
	}

	return &streamCloser{ReadCloser: stdout, cmd: cmd}, nil
}

type streamCloser struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *streamCloser) Close() error {
	s.ReadCloser.Close()
	return s.cmd.Wait()
}

// Cleanup removes the downloaded archive and any extracted XML for the site.
func (d *Downloader) Cleanup(name string) {
	if path, err := d.ArchivePath(name); err == nil {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("%s: remove archive: %v", name, err)
		}
	}
	if err := os.RemoveAll(filepath.Join(d.dir, name)); err != nil {
		log.Printf("%s: remove extracted files: %v", name, err)
	}
}
