package httpapi

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"nodue/internal/auth"
	"nodue/internal/faculty"
	"nodue/internal/filestore"
	"nodue/internal/queue"
	"nodue/internal/store"
	"nodue/internal/student"
)

// Handler bundles the service and its collaborators for the HTTP surface.
type Handler struct {
	svc       *student.Service
	faculty   *faculty.Table
	files     *filestore.Store
	queue     queue.Queue
	cache     *store.ListCache
	issuer    string
	key       string
	ttl       time.Duration
	maxUpload int64
}

// Config carries the handler's wiring knobs.
type Config struct {
	JWTIssuer      string
	JWTSigningKey  string
	SessionTTL     time.Duration
	MaxUploadBytes int64
}

// New creates a handler. queue and cache may be nil-ish collaborators in tests.
func New(svc *student.Service, table *faculty.Table, files *filestore.Store, q queue.Queue, cache *store.ListCache, cfg Config) *Handler {
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 10 << 20
	}
	return &Handler{
		svc:       svc,
		faculty:   table,
		files:     files,
		queue:     q,
		cache:     cache,
		issuer:    cfg.JWTIssuer,
		key:       cfg.JWTSigningKey,
		ttl:       cfg.SessionTTL,
		maxUpload: cfg.MaxUploadBytes,
	}
}

type registerRequest struct {
	Name     string `json:"name"`
	USN      string `json:"usn"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a student account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if _, err := h.svc.Register(c.Request.Context(), req.Name, req.USN, req.Email, req.Password); err != nil {
		respondError(c, err)
		return
	}
	h.cache.Invalidate(c.Request.Context())
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Student registered successfully"})
}

type loginRequest struct {
	USN      string `json:"usn"`
	Password string `json:"password"`
}

// Login verifies student credentials and issues a session token. An unknown
// usn is a 400, a wrong password a 401, matching the original surface.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.svc.Login(c.Request.Context(), req.USN, req.Password)
	if err == student.ErrNotFound {
		fail(c, http.StatusBadRequest, "USN not found")
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	token, _, err := auth.Issue(rec.USN, auth.RoleStudent, h.issuer, h.key, h.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   token,
		"student": rec,
	})
}

// Check reports whether a usn is already registered.
func (h *Handler) Check(c *gin.Context) {
	exists, err := h.svc.Exists(c.Request.Context(), c.Param("usn"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// Upload accepts one PDF per request, stores it, attaches it to the student
// record, and resets review status to Pending.
func (h *Handler) Upload(c *gin.Context) {
	// Hard cap the whole request; a 12 MiB body never reaches disk.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload+(1<<20))

	file, header, err := c.Request.FormFile("pdf")
	if err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		fail(c, http.StatusBadRequest, "No file uploaded")
		return
	}
	defer file.Close()

	if header.Size > h.maxUpload {
		uploadsTotal.WithLabelValues("rejected").Inc()
		fail(c, http.StatusBadRequest, "file exceeds size limit")
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		respondError(c, err)
		return
	}
	head = head[:n]
	if !filestore.IsPDF(head) {
		uploadsTotal.WithLabelValues("rejected").Inc()
		fail(c, http.StatusBadRequest, "only PDF files are accepted")
		return
	}

	saved, err := h.files.Save(header.Filename, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		respondError(c, err)
		return
	}

	usn := c.PostForm("usn")
	rec, up, err := h.svc.RecordUpload(c.Request.Context(), usn, student.Upload{
		Filename:  saved.Filename,
		Path:      saved.Path,
		SizeBytes: saved.Size,
	})
	if err != nil {
		uploadsTotal.WithLabelValues("rejected").Inc()
		respondError(c, err)
		return
	}

	if h.queue != nil {
		if err := h.queue.Publish(c.Request.Context(), queue.Message{Type: queue.TypeUpload, Body: []byte(up.ID)}); err != nil {
			log.Printf("queue publish failed for upload %s: %v", up.ID, err)
		}
	}
	h.cache.Invalidate(c.Request.Context())
	uploadsTotal.WithLabelValues("accepted").Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "PDF uploaded successfully",
		"updatedStudent": rec,
	})
}

type facultyLoginRequest struct {
	SubjectCode string `json:"subjectCode"`
	Password    string `json:"password"`
}

// FacultyLogin verifies a subject-code capability server-side and issues a
// faculty session token scoped to that subject.
func (h *Handler) FacultyLogin(c *gin.Context) {
	var req facultyLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.faculty.Verify(req.SubjectCode, req.Password); err != nil {
		respondError(c, err)
		return
	}
	token, _, err := auth.Issue(req.SubjectCode, auth.RoleFaculty, h.issuer, h.key, h.ttl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"token":   token,
		"subject": gin.H{
			"code": req.SubjectCode,
			"name": faculty.SubjectName(req.SubjectCode),
		},
	})
}

// List returns all students with effective status applied, optionally
// narrowed by ?q= (name/usn substring) and ?status= (effective status).
// ?subject= is a display context label only; it never filters the roster.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var list []student.Reviewed
	if data := h.cache.Get(ctx); data != nil {
		if err := json.Unmarshal(data, &list); err != nil {
			list = nil
		}
	}
	if list == nil {
		var err error
		list, err = h.svc.ListForReview(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		if data, err := json.Marshal(list); err == nil {
			h.cache.Set(ctx, data)
		}
	}

	list = student.Search(list, c.Query("q"))
	list = student.FilterByStatus(list, c.Query("status"))

	subject := c.Query("subject")
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"students": list,
		"counts":   student.CountByStatus(list),
		"subject": gin.H{
			"code": subject,
			"name": faculty.SubjectName(subject),
		},
	})
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// UpdateStatus applies a faculty decision to one record.
func (h *Handler) UpdateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid request body")
		return
	}
	rec, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	if claimsAny, ok := c.Get(auth.ClaimsKey); ok {
		if claims, ok := claimsAny.(auth.Claims); ok {
			log.Printf("status of %s set to %s by %s", rec.USN, rec.Status, claims.Subject)
		}
	}
	h.cache.Invalidate(c.Request.Context())
	statusTransitions.WithLabelValues(string(rec.Status)).Inc()

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"message":        "Status updated",
		"updatedStudent": rec,
	})
}
