// Package importer loads company registries into the store from CSV or XLSX
// files, local or mirrored over FTP. Column names follow the INSEE SIRENE
// export conventions with common French aliases.
package importer

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/impactscore/rse-cli/internal/model"
	"github.com/impactscore/rse-cli/internal/store"
)

// Options configures one import run.
type Options struct {
	Format    string // "csv" or "xlsx"; inferred from the file extension when empty
	Delimiter rune   // CSV only; sniffed from the header when 0
	Latin1    bool   // CSV only; decode ISO 8859-1 (older SIRENE exports)
}

// Importer streams registry rows into the store.
type Importer struct {
	store store.Store
	ftp   *ftpDownloader
}

// New creates an Importer.
func New(st store.Store) *Importer {
	return &Importer{store: st, ftp: newFTPDownloader(ftpOptions{})}
}

var sirenRe = regexp.MustCompile(`^\d{9}$`)

// Import reads companies from the given path and upserts them by SIREN.
// ftp:// URLs are mirrored to a temp file first. Returns the number of
// companies imported; malformed rows are logged and skipped.
func (im *Importer) Import(ctx context.Context, path string, opts Options) (int, error) {
	local := path
	if strings.HasPrefix(path, "ftp://") {
		tmp, cleanup, err := im.mirror(ctx, path)
		if err != nil {
			return 0, err
		}
		defer cleanup()
		local = tmp
	}

	format := opts.Format
	if format == "" {
		switch strings.ToLower(filepath.Ext(local)) {
		case ".xlsx":
			format = "xlsx"
		default:
			format = "csv"
		}
	}

	switch format {
	case "csv":
		f, err := os.Open(local)
		if err != nil {
			return 0, eris.Wrapf(err, "import: open %s", local)
		}
		defer f.Close()
		return im.importCSV(ctx, f, opts)
	case "xlsx":
		return im.importXLSX(ctx, local)
	default:
		return 0, eris.Errorf("import: unsupported format %q", format)
	}
}

// mirror downloads an ftp:// URL into a temp file and returns its path.
func (im *Importer) mirror(ctx context.Context, ftpURL string) (string, func(), error) {
	body, err := im.ftp.Download(ctx, ftpURL)
	if err != nil {
		return "", nil, err
	}
	defer body.Close()

	tmp, err := os.CreateTemp("", "registry-*"+filepath.Ext(ftpURL))
	if err != nil {
		return "", nil, eris.Wrap(err, "import: create temp file")
	}
	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "import: mirror ftp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", nil, eris.Wrap(err, "import: close temp file")
	}

	zap.L().Info("registry mirrored", zap.String("url", ftpURL), zap.String("path", tmp.Name()))
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

// columnMap resolves header names to field positions.
type columnMap struct {
	siren, name, sector, size, country, description, website int
}

var headerAliases = map[string]string{
	"siren":                     "siren",
	"name":                      "name",
	"nom":                       "name",
	"denomination":              "name",
	"denominationunitelegale":   "name",
	"sector":                    "sector",
	"secteur":                   "sector",
	"activiteprincipale":        "sector",
	"size":                      "size",
	"taille":                    "size",
	"categorieentreprise":       "size",
	"country":                   "country",
	"pays":                      "country",
	"description":               "description",
	"website":                   "website",
	"site_web":                  "website",
	"siteweb":                   "website",
}

func mapColumns(header []string) (columnMap, error) {
	cm := columnMap{siren: -1, name: -1, sector: -1, size: -1, country: -1, description: -1, website: -1}
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		switch headerAliases[key] {
		case "siren":
			cm.siren = i
		case "name":
			cm.name = i
		case "sector":
			cm.sector = i
		case "size":
			cm.size = i
		case "country":
			cm.country = i
		case "description":
			cm.description = i
		case "website":
			cm.website = i
		}
	}
	if cm.siren < 0 || cm.name < 0 {
		return cm, eris.New("import: header must contain siren and name columns")
	}
	return cm, nil
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseSize accepts both our size buckets and the INSEE enterprise categories.
func parseSize(v string) model.SizeClass {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "micro", "mic":
		return model.SizeMicro
	case "small", "pme", "petite":
		return model.SizeSmall
	case "medium", "eti", "moyenne":
		return model.SizeMedium
	case "large", "ge", "grande":
		return model.SizeLarge
	}
	return ""
}

// rowToCompany converts one registry row; returns nil for rows that cannot
// identify a company.
func rowToCompany(row []string, cm columnMap) *model.Company {
	siren := field(row, cm.siren)
	name := field(row, cm.name)
	if !sirenRe.MatchString(siren) || name == "" {
		return nil
	}

	country := field(row, cm.country)
	if country == "" {
		country = "France"
	}

	return &model.Company{
		SIREN:       siren,
		Name:        name,
		Sector:      field(row, cm.sector),
		Size:        parseSize(field(row, cm.size)),
		Country:     country,
		Description: field(row, cm.description),
		Website:     field(row, cm.website),
	}
}

// bulkUpserter is implemented by stores that can stage a whole company batch
// in one round trip (postgres COPY). Other stores get row-by-row upserts.
type bulkUpserter interface {
	BulkImportCompanies(ctx context.Context, companies []model.Company) (int64, error)
}

// bulkBatchSize bounds memory held per staged batch.
const bulkBatchSize = 1000

func (im *Importer) upsertRows(ctx context.Context, rows <-chan []string, errCh <-chan error, cm columnMap) (int, error) {
	bulk, _ := im.store.(bulkUpserter)

	count := 0
	skipped := 0
	var batch []model.Company

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if _, err := bulk.BulkImportCompanies(ctx, batch); err != nil {
			return eris.Wrap(err, "import: bulk upsert")
		}
		count += len(batch)
		batch = batch[:0]
		return nil
	}

	for row := range rows {
		c := rowToCompany(row, cm)
		if c == nil {
			skipped++
			continue
		}
		if bulk != nil {
			batch = append(batch, *c)
			if len(batch) >= bulkBatchSize {
				if err := flush(); err != nil {
					drain(rows, errCh)
					return count, err
				}
			}
			continue
		}
		if err := im.store.UpsertCompany(ctx, c); err != nil {
			drain(rows, errCh)
			return count, eris.Wrapf(err, "import: upsert %s", c.SIREN)
		}
		count++
	}
	if err := <-errCh; err != nil {
		return count, err
	}
	if err := flush(); err != nil {
		return count, err
	}
	if skipped > 0 {
		zap.L().Warn("rows skipped", zap.Int("skipped", skipped), zap.Int("imported", count))
	}
	return count, nil
}

// drain unblocks the producer goroutine after an early exit.
func drain(rows <-chan []string, errCh <-chan error) {
	for range rows {
	}
	<-errCh
}
