package pesu

import (
	"context"
	"fmt"
	"io"
	"mime"
	"strings"

	"pesuacademy/lib/textutil"
)

const report_client_download = "client.download"

// ProgressFunc is called as a download makes progress, `total` is -1 when
// the size isn't known.
type ProgressFunc func(written, total int64)

type progressWriter struct {
	inner      io.Writer
	written    int64
	total      int64
	onProgress ProgressFunc
}

func (w *progressWriter) Write(p []byte) (int, error) {
	n, err := w.inner.Write(p)
	w.written += int64(n)
	if w.onProgress != nil {
		w.onProgress(w.written, w.total)
	}
	return n, err
}

type DownloadResult struct {
	Written int64
	// Filename is the name the portal suggested for the file, it is empty if
	// none was given.
	Filename string
}

// Download streams a material into `w` using the session's cookies.
func (c *Client) Download(ctx context.Context, link MaterialLink, w io.Writer, onProgress ProgressFunc) (DownloadResult, error) {
	ctx, span := tracer.Start(ctx, "Download")
	defer span.End()

	err := c.session.ensureAuthenticated()
	if err != nil {
		return DownloadResult{}, err
	}

	res, err := c.session.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(link.URL)
	if err != nil {
		c.tel.ReportBroken(report_client_download, fmt.Errorf("fetch: %w", err), link.URL)
		return DownloadResult{}, err
	}
	body := res.RawBody()
	defer body.Close()

	if res.IsError() {
		return DownloadResult{}, newHttpError(res)
	}

	pw := &progressWriter{
		inner:      w,
		total:      res.RawResponse.ContentLength,
		onProgress: onProgress,
	}
	_, err = io.Copy(pw, body)
	if err != nil {
		c.tel.ReportBroken(report_client_download, fmt.Errorf("copy: %w", err), link.URL)
		return DownloadResult{Written: pw.written}, err
	}

	return DownloadResult{
		Written:  pw.written,
		Filename: dispositionFilename(res.Header().Get("Content-Disposition")),
	}, nil
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}

// SuggestedFilename returns a filesystem safe name for a material link.
func SuggestedFilename(link MaterialLink) string {
	name := textutil.SafeFilename(link.Title)
	if link.IsPDF && !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}
