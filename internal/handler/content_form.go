package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
)

// Multipart content forms carry localized fields as JSON strings, e.g.
// title={"fr":"...","ar":"..."}.

func localizedForm(c *gin.Context, key string) (models.LocalizedText, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" {
		return models.LocalizedText{}, nil
	}
	var text models.LocalizedText
	if err := json.Unmarshal([]byte(raw), &text); err != nil {
		return models.LocalizedText{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return text, nil
}

func nullableLocalizedForm(c *gin.Context, key string) (models.NullableLocalizedText, error) {
	raw := strings.TrimSpace(c.PostForm(key))
	if raw == "" || raw == "null" {
		return models.NullableLocalizedText{}, nil
	}
	var text models.LocalizedText
	if err := json.Unmarshal([]byte(raw), &text); err != nil {
		return models.NullableLocalizedText{}, fmt.Errorf("parse %s: %w", key, err)
	}
	return models.NullableLocalizedText{Text: text, Valid: true}, nil
}

func contentUploadFromForm(c *gin.Context, field string) (*service.ContentUpload, error) {
	data, filename, err := readFormFile(c, field)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &service.ContentUpload{Filename: filename, Data: data}, nil
}

func galleryFromForm(c *gin.Context, field string) ([]service.ContentUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	var uploads []service.ContentUpload
	for _, fileHeader := range form.File[field] {
		data, filename, err := readMultipartFile(fileHeader)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.ContentUpload{Filename: filename, Data: data})
	}
	return uploads, nil
}

func contentFilterFromQuery(c *gin.Context) models.ContentFilter {
	return models.ContentFilter{
		IsPublished:  boolQuery(c, "is_published"),
		Audience:     models.TargetAudience(c.Query("audience")),
		SpecialityID: c.Query("specialite_id"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
}
