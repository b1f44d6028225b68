package importer

import (
	"encoding/csv"
	"io"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/htmlindex"
)

// CSVOptions configures CSV parsing.
type CSVOptions struct {
	Comma   rune   // default ','
	Charset string // IANA charset name; default UTF-8
}

// ParseCSV reads a header-bearing CSV site list from r.
func ParseCSV(r io.Reader, opts CSVOptions) ([]Record, error) {
	if opts.Charset != "" {
		enc, err := htmlindex.Get(opts.Charset)
		if err != nil {
			return nil, eris.Wrapf(err, "importer: unsupported charset %q", opts.Charset)
		}
		r = enc.NewDecoder().Reader(r)
	}

	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "importer: read csv header")
	}
	cm, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		cells, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "importer: read csv row")
		}
		rec, err := cm.record(cells)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}

	return records, nil
}
