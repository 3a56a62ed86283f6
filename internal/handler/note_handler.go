package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// NoteHandler exposes course note endpoints for admins and students.
type NoteHandler struct {
	notes   *service.NoteService
	metrics *service.MetricsService
}

// NewNoteHandler constructs NoteHandler.
func NewNoteHandler(notes *service.NoteService, metrics *service.MetricsService) *NoteHandler {
	return &NoteHandler{notes: notes, metrics: metrics}
}

func noteFilterFromQuery(c *gin.Context) models.NoteFilter {
	return models.NoteFilter{
		ModuleID:     c.Query("module_id"),
		SpecialityID: c.Query("specialite_id"),
		FileType:     c.Query("file_type"),
		GeneralOnly:  c.Query("general") == "true",
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
}

func noteRequestFromForm(c *gin.Context) (service.UploadNoteRequest, error) {
	data, filename, err := readFormFile(c, "file")
	if err != nil {
		return service.UploadNoteRequest{}, err
	}
	return service.UploadNoteRequest{
		Title:             strings.TrimSpace(c.PostForm("title")),
		Description:       optionalForm(c, "description"),
		ModuleID:          optionalForm(c, "module_id"),
		SpecialityID:      optionalForm(c, "specialite_id"),
		AssignedStudentID: optionalForm(c, "assigned_student_id"),
		Visibility:        models.NoteVisibility(c.DefaultPostForm("visibility", "specialite")),
		Filename:          filename,
		Data:              data,
	}, nil
}

// serveNote streams the blob with headers matching the stored metadata.
func (h *NoteHandler) serveNote(c *gin.Context, served *service.ServedNote, download bool) {
	disposition := "inline"
	if download {
		disposition = "attachment"
	}
	c.Header("Content-Type", served.Note.MimeType)
	c.Header("Content-Disposition", fmt.Sprintf("%s; filename=%q", disposition, served.Note.Filename))
	c.File(served.Path)
}

// List godoc
// @Summary List notes
// @Tags Notes
// @Produce json
// @Param module_id query string false "Filter by module"
// @Param specialite_id query string false "Filter by speciality"
// @Param file_type query string false "pdf or image"
// @Param general query bool false "Only general notes"
// @Success 200 {object} response.Envelope
// @Router /admin/notes [get]
func (h *NoteHandler) List(c *gin.Context) {
	notes, pagination, err := h.notes.List(c.Request.Context(), noteFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, pagination)
}

// Get godoc
// @Summary Get one note
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/{id} [get]
func (h *NoteHandler) Get(c *gin.Context) {
	note, err := h.notes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Upload godoc
// @Summary Upload a note
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "PDF, JPEG or PNG"
// @Param title formData string true "Title"
// @Param visibility formData string true "private, module or specialite"
// @Success 201 {object} response.Envelope
// @Router /admin/notes [post]
func (h *NoteHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	req, err := noteRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded file"))
		return
	}
	note, err := h.notes.Upload(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.metrics.RecordNoteUpload()
	response.Created(c, note)
}

// BulkUpload godoc
// @Summary Upload several notes sharing the same scope
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "PDF, JPEG or PNG files"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/bulk [post]
func (h *NoteHandler) BulkUpload(c *gin.Context) {
	claims := claimsFromContext(c)
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at least one file is required"))
		return
	}

	base := service.UploadNoteRequest{
		Description:       optionalForm(c, "description"),
		ModuleID:          optionalForm(c, "module_id"),
		SpecialityID:      optionalForm(c, "specialite_id"),
		AssignedStudentID: optionalForm(c, "assigned_student_id"),
		Visibility:        models.NoteVisibility(c.DefaultPostForm("visibility", "specialite")),
	}
	reqs := make([]service.UploadNoteRequest, 0, len(files))
	for _, fileHeader := range files {
		data, filename, err := readMultipartFile(fileHeader)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded file"))
			return
		}
		req := base
		req.Title = strings.TrimSuffix(filename, extensionOf(filename))
		req.Filename = filename
		req.Data = data
		reqs = append(reqs, req)
	}

	results := h.notes.BulkUpload(c.Request.Context(), claims.UserID, reqs)
	for _, result := range results {
		if result.Error == "" {
			h.metrics.RecordNoteUpload()
		}
	}
	response.JSON(c, http.StatusOK, results, nil)
}

func extensionOf(filename string) string {
	if idx := strings.LastIndex(filename, "."); idx >= 0 {
		return filename[idx:]
	}
	return ""
}

// Update godoc
// @Summary Update a note, optionally replacing its file
// @Tags Notes
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/{id} [put]
func (h *NoteHandler) Update(c *gin.Context) {
	upload, err := noteRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded file"))
		return
	}
	req := service.UpdateNoteRequest{
		Title:             upload.Title,
		Description:       upload.Description,
		ModuleID:          upload.ModuleID,
		SpecialityID:      upload.SpecialityID,
		AssignedStudentID: upload.AssignedStudentID,
		Visibility:        upload.Visibility,
		Filename:          upload.Filename,
		Data:              upload.Data,
	}
	note, err := h.notes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Delete godoc
// @Summary Delete a note and its stored file
// @Tags Notes
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/{id} [delete]
func (h *NoteHandler) Delete(c *gin.Context) {
	if err := h.notes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "note deleted")
}

// Assign godoc
// @Summary Assign a note to one student
// @Tags Notes
// @Accept json
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/{id}/assign [post]
func (h *NoteHandler) Assign(c *gin.Context) {
	var req struct {
		StudentID *string `json:"student_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.notes.AssignToStudent(c.Request.Context(), c.Param("id"), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// Stats godoc
// @Summary Download statistics for one note
// @Tags Notes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /admin/notes/{id}/stats [get]
func (h *NoteHandler) Stats(c *gin.Context) {
	stats, err := h.notes.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// AdminServe streams a note's file to an administrator without recording a
// download.
func (h *NoteHandler) AdminServe(c *gin.Context) {
	served, err := h.notes.Serve(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serveNote(c, served, c.Query("download") == "true")
}

// StudentList godoc
// @Summary List the notes visible to the caller
// @Tags StudentNotes
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/notes [get]
func (h *NoteHandler) StudentList(c *gin.Context) {
	claims := claimsFromContext(c)
	notes, pagination, err := h.notes.ListForStudent(c.Request.Context(), claims.UserID, noteFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, pagination)
}

// StudentGet godoc
// @Summary Get one visible note
// @Tags StudentNotes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /student/notes/{id} [get]
func (h *NoteHandler) StudentGet(c *gin.Context) {
	claims := claimsFromContext(c)
	note, err := h.notes.GetForStudent(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// StudentServe streams a note's file after the visibility check. With
// download=true the event lands in the download log.
func (h *NoteHandler) StudentServe(c *gin.Context) {
	claims := claimsFromContext(c)
	download := c.Query("download") == "true"
	served, err := h.notes.ServeForStudent(c.Request.Context(), claims.UserID, c.Param("id"), download, c.ClientIP(), c.GetHeader("User-Agent"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if download {
		h.metrics.RecordNoteDownload()
	}
	h.serveNote(c, served, download)
}

// StudentSignedURL godoc
// @Summary Issue a short-lived signed URL for browser previews
// @Tags StudentNotes
// @Produce json
// @Param id path string true "Note ID"
// @Success 200 {object} response.Envelope
// @Router /student/notes/{id}/signed-url [get]
func (h *NoteHandler) StudentSignedURL(c *gin.Context) {
	claims := claimsFromContext(c)
	token, expiresAt, err := h.notes.SignedURL(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{
		"token":      token,
		"url":        "/files/notes?token=" + token,
		"expires_at": expiresAt,
	}, nil)
}

// ServeSigned streams a note addressed by a signed token. No session is
// required, the HMAC signature is the credential.
func (h *NoteHandler) ServeSigned(c *gin.Context) {
	served, err := h.notes.ResolveSignedToken(c.Request.Context(), c.Query("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.serveNote(c, served, false)
}
