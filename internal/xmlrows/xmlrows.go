// Package xmlrows streams the <row .../> elements of a StackExchange
// Posts.xml file as flat attribute records, one element at a time, so a
// multi-gigabyte dump never has to fit in memory.
package xmlrows

import (
	"encoding/xml"
	"io"

	"github.com/lfoppiano/stackexchange-dataset/pkg/stackexchange/posts"
)

// Reader yields one record per row element in document order.
type Reader struct {
	dec *xml.Decoder
}

// New creates a Reader over an XML stream.
func New(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// Next returns the next row as a record, or io.EOF when the stream ends.
// Elements other than row are skipped; nothing from a previous row is
// retained once Next returns.
func (r *Reader) Next() (posts.Record, error) {
	for {
		tok, err := r.dec.Token()
		if err != nil {
			return nil, err
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "row" {
			continue
		}

		rec := make(posts.Record, len(se.Attr))
		for _, attr := range se.Attr {
			rec[attr.Name.Local] = attr.Value
		}
		if err := r.dec.Skip(); err != nil {
			return nil, err
		}
		return rec, nil
	}
}
