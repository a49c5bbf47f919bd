package student

import (
	"context"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/middleware"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/internal/service/student"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type StudentService interface {
	Roster(ctx context.Context) ([]student.Student, error)
	Student(ctx context.Context, id models.ID) (*student.Student, error)
	UpdateName(ctx context.Context, id models.ID, firstName, lastName string) (*student.Student, error)
	UploadAvatar(ctx context.Context, id models.ID, filename string, reader io.Reader, size int64, contentType string) (string, error)
}

type ProgressService interface {
	StudentReport(ctx context.Context, studentID models.ID) (*progress.Report, error)
}

type StudentHandler struct {
	log      logger.Log
	students StudentService
	progress ProgressService
}

func NewStudentHandler(log logger.Log, students StudentService, progress ProgressService) *StudentHandler {
	return &StudentHandler{log: log, students: students, progress: progress}
}

func (h *StudentHandler) Roster(c *gin.Context) {
	roster, err := h.students.Roster(c.Request.Context())
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"students": roster})
}

func (h *StudentHandler) Student(c *gin.Context) {
	studentID, ok := controllers.ParamID(c, "student_id")
	if !ok {
		return
	}
	h.writeStudent(c, studentID)
}

func (h *StudentHandler) StudentProgress(c *gin.Context) {
	studentID, ok := controllers.ParamID(c, "student_id")
	if !ok {
		return
	}
	h.writeReport(c, studentID)
}

func (h *StudentHandler) MyProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	h.writeStudent(c, user.ID)
}

func (h *StudentHandler) MyProgress(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	h.writeReport(c, user.ID)
}

type updateNameRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

func (h *StudentHandler) UpdateMyProfile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	var input updateNameRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	updated, err := h.students.UpdateName(c.Request.Context(), user.ID, input.FirstName, input.LastName)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UploadMyAvatar takes a multipart "file" field.
func (h *StudentHandler) UploadMyAvatar(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot open uploaded file"})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename)))
	}

	url, err := h.students.UploadAvatar(
		c.Request.Context(),
		user.ID,
		fileHeader.Filename,
		file,
		fileHeader.Size,
		contentType,
	)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"url":    url,
	})
}

func (h *StudentHandler) writeStudent(c *gin.Context, id models.ID) {
	s, err := h.students.Student(c.Request.Context(), id)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *StudentHandler) writeReport(c *gin.Context, id models.ID) {
	report, err := h.progress.StudentReport(c.Request.Context(), id)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
