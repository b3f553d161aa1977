package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/playpulse/playpulse-api/internal/middleware"
	"github.com/playpulse/playpulse-api/internal/models"
	"github.com/playpulse/playpulse-api/internal/service"
	appErrors "github.com/playpulse/playpulse-api/pkg/errors"
	"github.com/playpulse/playpulse-api/pkg/response"
)

// maxMultipartFileBytes caps what a handler reads of one upload; services apply the real limits.
const maxMultipartFileBytes = 32 << 20

func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return nil, false
	}
	return claims, true
}

func userInfo(claims *models.JWTClaims) models.UserInfo {
	return models.UserInfo{ID: claims.UserID, Name: claims.Name, Email: claims.Email, Role: claims.Role}
}

func bindJSON(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// bindForm binds multipart, urlencoded or JSON bodies depending on the content type.
func bindForm(c *gin.Context, dst interface{}, message string) bool {
	if err := c.ShouldBind(dst); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

// formFiles reads every file uploaded under field. Non-multipart requests yield no files.
func formFiles(c *gin.Context, field string) ([]service.UploadedFile, bool) {
	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, true
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart form"))
		return nil, false
	}
	headers := form.File[field]
	files := make([]service.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		file, err := readUpload(fh)
		if err != nil {
			response.Error(c, err)
			return nil, false
		}
		files = append(files, file)
	}
	return files, true
}

// formFile reads the single file uploaded under field, or nil when there is none.
func formFile(c *gin.Context, field string) (*service.UploadedFile, bool) {
	files, ok := formFiles(c, field)
	if !ok || len(files) == 0 {
		return nil, ok
	}
	return &files[0], true
}

func readUpload(fh *multipart.FileHeader) (service.UploadedFile, error) {
	if fh.Size > maxMultipartFileBytes {
		return service.UploadedFile{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("file %q is too large", fh.Filename))
	}
	f, err := fh.Open()
	if err != nil {
		return service.UploadedFile{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload")
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxMultipartFileBytes))
	if err != nil {
		return service.UploadedFile{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read upload")
	}
	return service.UploadedFile{Filename: fh.Filename, Data: data}, nil
}

// streamDownload copies a stored file to the client and closes it.
func streamDownload(c *gin.Context, file *service.MediaDownload, inline bool) {
	defer file.Body.Close()
	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	if file.Filename != "" {
		c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, file.Filename))
	}
	c.DataFromReader(http.StatusOK, -1, file.ContentType, file.Body, nil)
}
