package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"prospect/internal/pipeline"
)

// PDFRenderer renders the HTML report and prints it to PDF through headless
// Chrome. The HTML artifact is kept next to the PDF.
type PDFRenderer struct {
	HTML    *HTMLRenderer
	Timeout time.Duration
}

// NewPDFRenderer wraps an HTML renderer.
func NewPDFRenderer(html *HTMLRenderer) *PDFRenderer {
	return &PDFRenderer{HTML: html, Timeout: 60 * time.Second}
}

// Render implements pipeline.Renderer.
func (r *PDFRenderer) Render(ctx context.Context, company pipeline.Company, an pipeline.Analyses) (string, error) {
	htmlPath, err := r.HTML.Render(ctx, company, an)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	abs, err := absFileURL(htmlPath)
	if err != nil {
		return "", err
	}

	var pdf []byte
	err = chromedp.Run(browserCtx,
		chromedp.Navigate(abs),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdf = buf
			return nil
		}),
	)
	if err != nil {
		return "", fmt.Errorf("print to pdf: %w", err)
	}

	pdfPath := strings.TrimSuffix(htmlPath, ".html") + ".pdf"
	if err := os.WriteFile(pdfPath, pdf, 0o644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	r.HTML.log.Info("pdf written", "company", company.Name, "path", pdfPath)
	return pdfPath, nil
}

func absFileURL(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve report path: %w", err)
	}
	return "file://" + abs, nil
}
