package http

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/jmehdipour/sms-panel/internal/errs"
	"github.com/jmehdipour/sms-panel/internal/ingest"
	"github.com/jmehdipour/sms-panel/internal/model"
	"github.com/jmehdipour/sms-panel/internal/service/campaign"
	"github.com/jmehdipour/sms-panel/internal/util"
	echo "github.com/labstack/echo/v4"
)

// mediaFields are the multipart fields accepted as campaign attachments.
var mediaFields = []model.MediaKind{model.MediaImage, model.MediaVideo, model.MediaDocument}

var mediaExtensions = map[model.MediaKind][]string{
	model.MediaImage:    {".jpg", ".jpeg", ".png", ".gif", ".webp"},
	model.MediaVideo:    {".mp4", ".3gp", ".mov", ".webm"},
	model.MediaDocument: {".pdf", ".doc", ".docx", ".txt"},
}

// formFile returns the named part, or nil when the request carries none.
func formFile(c echo.Context, name string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(name)
	switch {
	case err == nil:
		return fh, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, fmt.Errorf("%w: read %s: %v", errs.ErrInvalidInput, name, err)
	}
}

// saveUpload copies an uploaded part into dir under a fresh id, keeping the
// original extension.
func saveUpload(fh *multipart.FileHeader, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errs.Store("create upload dir", err)
	}
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("%w: open upload: %v", errs.ErrInvalidInput, err)
	}
	defer src.Close()

	name := util.NewID() + strings.ToLower(filepath.Ext(fh.Filename))
	dst, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", errs.Store("create upload", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", errs.Store("write upload", err)
	}
	return dst.Name(), nil
}

// contactsUpload parses the optional contactsFile part. The temporary copy is
// removed by ingest.FromFile whatever the outcome.
func contactsUpload(c echo.Context, dir string) (ingest.Table, error) {
	fh, err := formFile(c, "contactsFile")
	if err != nil || fh == nil {
		return nil, err
	}
	format, err := ingest.FormatOf(fh.Filename)
	if err != nil {
		return nil, err
	}
	path, err := saveUpload(fh, dir)
	if err != nil {
		return nil, err
	}
	return ingest.FromFile(path, format)
}

// mediaUploads stores the image/video/document parts and returns their refs.
// On error nothing it saved is left behind.
func mediaUploads(c echo.Context, dir string) (out []campaign.MediaInput, err error) {
	defer func() {
		if err != nil {
			removeMedia(dir, out)
			out = nil
		}
	}()
	for _, kind := range mediaFields {
		fh, err := formFile(c, string(kind))
		if err != nil {
			return out, err
		}
		if fh == nil {
			continue
		}
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !slices.Contains(mediaExtensions[kind], ext) {
			return out, fmt.Errorf("%w: %s cannot be a %q file", errs.ErrInvalidInput, kind, ext)
		}
		path, err := saveUpload(fh, dir)
		if err != nil {
			return out, err
		}
		out = append(out, campaign.MediaInput{Kind: kind, Ref: filepath.Base(path)})
	}
	return out, nil
}

func removeMedia(dir string, media []campaign.MediaInput) {
	for _, m := range media {
		_ = os.Remove(filepath.Join(dir, m.Ref))
	}
}
