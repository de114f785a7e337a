package importer

import (
	"bufio"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

func (im *Importer) importCSV(ctx context.Context, r io.Reader, opts Options) (int, error) {
	if opts.Latin1 {
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	br := bufio.NewReader(r)
	delim := opts.Delimiter
	if delim == 0 {
		peeked, _ := br.Peek(4096)
		delim = sniffDelimiter(peeked)
	}

	headerCh := make(chan []string, 1)
	rows, errCh := streamCSV(ctx, br, delim, headerCh)

	header, ok := <-headerCh
	if !ok {
		// stream ended before a header row; surface the parse error
		for range rows {
		}
		if err := <-errCh; err != nil {
			return 0, err
		}
		return 0, eris.New("import: empty csv file")
	}
	cm, err := mapColumns(header)
	if err != nil {
		drain(rows, errCh)
		return 0, err
	}

	return im.upsertRows(ctx, rows, errCh, cm)
}

// sniffDelimiter picks between semicolon (SIRENE exports) and comma by
// inspecting the first line.
func sniffDelimiter(peek []byte) rune {
	line := string(peek)
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// streamCSV reads rows into a channel. The first record goes to headerCh.
// Both returned channels are closed when the stream ends.
func streamCSV(ctx context.Context, r io.Reader, delim rune, headerCh chan<- []string) (<-chan []string, <-chan error) {
	rowCh := make(chan []string, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(rowCh)
		defer close(errCh)
		defer close(headerCh)

		reader := csv.NewReader(r)
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		first := true
		for {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}

			record, err := reader.Read()
			if err == io.EOF {
				return
			}
			if err != nil {
				errCh <- eris.Wrap(err, "csv: read row")
				return
			}

			if first {
				first = false
				select {
				case headerCh <- record:
				case <-ctx.Done():
					errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled sending header")
					return
				}
				continue
			}

			select {
			case rowCh <- record:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "csv: context cancelled")
				return
			}
		}
	}()

	return rowCh, errCh
}
