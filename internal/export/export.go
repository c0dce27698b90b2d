// Package export writes results to local files: backend streams (raw
// JSON, single-table CSV, the everything ZIP) saved under the export
// directory, an XLSX workbook built client-side from the filtered view,
// and a bulk sync of every history entry.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tablescope/tablescope/internal/gateway"
	"github.com/tablescope/tablescope/internal/render"
	"github.com/tablescope/tablescope/internal/result"
)

// syncWorkers bounds concurrent downloads during SyncAll.
const syncWorkers = 4

// SaveJSON downloads the raw result JSON to dir and returns the path.
func SaveJSON(ctx context.Context, gw *gateway.Client, dir, id string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("tables_%s.json", id))
	return path, saveStream(path, func(f *os.File) error {
		return gw.DownloadJSON(ctx, id, f)
	})
}

// SaveCSV downloads one table's CSV export to dir and returns the path.
// Selection rules are the gateway's: an exact (page, table_index) pair.
func SaveCSV(ctx context.Context, gw *gateway.Client, dir, id string, page, tableIndex int) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("tables_%s_p%d_t%d.csv", id, page, tableIndex))
	return path, saveStream(path, func(f *os.File) error {
		return gw.DownloadCSV(ctx, id, page, tableIndex, f)
	})
}

// SaveZip downloads the export-everything archive to dir and returns the
// path.
func SaveZip(ctx context.Context, gw *gateway.Client, dir, id string) (string, error) {
	path := filepath.Join(dir, fmt.Sprintf("tables_%s.zip", id))
	return path, saveStream(path, func(f *os.File) error {
		return gw.DownloadZip(ctx, id, f)
	})
}

func saveStream(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

// WriteXLSX writes the document's tables to an XLSX workbook, one sheet
// per table named p{page}_t{index}. Unlike the backend ZIP export this
// runs on the filtered view, so it honors the current selection.
func WriteXLSX(doc *result.Document, path string) error {
	tables := doc.Tables()
	if len(tables) == 0 {
		return fmt.Errorf("no tables to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	// The (page, table_index) pair is not guaranteed unique across a
	// document; repeats get an ordinal suffix instead of sharing a sheet.
	used := make(map[string]int)
	for _, t := range tables {
		sheet := fmt.Sprintf("p%d_t%d", t.Page, t.TableIndex)
		if n := used[sheet]; n > 0 {
			used[sheet] = n + 1
			sheet = fmt.Sprintf("%s_%d", sheet, n+1)
		} else {
			used[sheet] = 1
		}
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("new sheet %s: %w", sheet, err)
		}
		row := 1
		if len(t.Headers) > 0 {
			for col, h := range t.Headers {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, h); err != nil {
					return fmt.Errorf("write header: %w", err)
				}
			}
			row++
		}
		for _, r := range t.Rows {
			for col, v := range r {
				cell, err := excelize.CoordinatesToCellName(col+1, row)
				if err != nil {
					return err
				}
				if err := f.SetCellValue(sheet, cell, render.CellString(v)); err != nil {
					return fmt.Errorf("write cell: %w", err)
				}
			}
			row++
		}
	}

	// Drop the default sheet so the workbook holds only table sheets.
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// XLSXPath returns the workbook path for a result id under dir.
func XLSXPath(dir, id string) string {
	return filepath.Join(dir, fmt.Sprintf("tables_%s.xlsx", id))
}

// SyncAll downloads the raw JSON of every history item into dir with
// bounded concurrency. It returns the number of files written.
func SyncAll(ctx context.Context, gw *gateway.Client, items []gateway.HistoryItem, dir string) (int, error) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(syncWorkers)
	for _, item := range items {
		g.Go(func() error {
			if _, err := SaveJSON(ctx, gw, dir, item.ID); err != nil {
				return fmt.Errorf("sync %s: %w", item.ID, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(items), nil
}
