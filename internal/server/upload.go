package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"docchat/internal/apperr"
	"docchat/internal/parsing"
)

// upload handles POST /api/upload: validate the multipart PDF, extract
// and chunk its text, embed the chunks, then atomically install the new
// index on the session. A failure anywhere before the install leaves any
// previously indexed document untouched.
func (s *Server) upload(c echo.Context) error {
	sessionID := c.FormValue("session_id")

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.metrics.CountUpload("error")
		return apperr.Validation("missing file upload: %v", err)
	}
	if !parsing.IsPDF(fileHeader.Filename) {
		s.metrics.CountUpload("error")
		return apperr.Validation("only PDF files are allowed")
	}
	if fileHeader.Size == 0 {
		s.metrics.CountUpload("error")
		return apperr.Validation("uploaded file is empty")
	}
	if fileHeader.Size > s.cfg.Upload.MaxFileSize {
		s.metrics.CountUpload("error")
		return apperr.Validation("file size exceeds maximum allowed size of %.1fMB",
			float64(s.cfg.Upload.MaxFileSize)/(1024*1024))
	}

	file, err := fileHeader.Open()
	if err != nil {
		s.metrics.CountUpload("error")
		return fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Upload.MaxFileSize+1))
	if err != nil {
		s.metrics.CountUpload("error")
		return fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > s.cfg.Upload.MaxFileSize {
		s.metrics.CountUpload("error")
		return apperr.Validation("file size exceeds maximum allowed size of %.1fMB",
			float64(s.cfg.Upload.MaxFileSize)/(1024*1024))
	}

	pages, err := parsing.ExtractPages(data)
	if err != nil {
		s.metrics.CountUpload("error")
		return err
	}

	// Embedding happens before the session is touched; the new index is
	// installed only once fully built.
	doc, ix, err := s.ingestor.BuildIndex(c.Request().Context(), fileHeader.Filename, pages)
	if err != nil {
		s.metrics.CountUpload("error")
		return err
	}

	sess, created := s.store.GetOrCreate(sessionID)
	sess.Lock()
	sess.SetDocument(doc, ix)
	sess.Touch()
	sess.Unlock()

	if created {
		s.logger.Printf("session=%s op=upload created session", sess.ID())
	}
	s.logger.Printf("session=%s op=upload file=%s pages=%d chunks=%d", sess.ID(), doc.Filename, doc.Pages, doc.Chunks)
	s.metrics.CountUpload("ok")

	return c.JSON(http.StatusOK, UploadResponse{
		Message:   fmt.Sprintf("Successfully uploaded and processed %s", doc.Filename),
		Filename:  doc.Filename,
		Pages:     doc.Pages,
		Chunks:    doc.Chunks,
		SessionID: sess.ID(),
	})
}
