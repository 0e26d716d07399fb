package user

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"

	"github.com/adithyakrishnapn/moviereview/internal/auth"
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

const (
	maxJSONBodyBytes = 1 << 20
	maxUploadBytes   = 8 << 20
	maxPasswordBytes = 72
)

// PictureUploader pushes a profile image to external storage and returns the
// URL to persist.
type PictureUploader interface {
	UploadImage(ctx context.Context, imageSource string) (string, error)
}

type Handler struct {
	service  *Service
	issuer   *auth.Issuer
	uploader PictureUploader
}

func NewHandler(service *Service, issuer *auth.Issuer, uploader PictureUploader) *Handler {
	return &Handler{service: service, issuer: issuer, uploader: uploader}
}

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type updateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Signup accepts either a JSON body or a multipart form with an optional
// "picture" file, matching what the SPA submits.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var body signupRequest
	var picture string

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		body.Username = r.FormValue("username")
		body.Email = r.FormValue("email")
		body.Password = r.FormValue("password")
	} else {
		if !decodeJSON(w, r, &body) {
			return
		}
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if !validCredentials(w, body.Username, body.Email, body.Password) {
		return
	}

	// only upload once the rest of the form is known to be good, so a
	// rejected signup leaves nothing behind remotely
	if isMultipart(r) {
		uploaded, ok := h.uploadFormPicture(w, r)
		if !ok {
			return
		}
		picture = uploaded
	}

	u, err := h.service.Signup(r.Context(), body.Username, body.Email, body.Password, picture)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			writeError(w, http.StatusBadRequest, "user already exists")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Signup successful",
		"user":    u.Public(),
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	body.Email = strings.TrimSpace(body.Email)
	if body.Email == "" || body.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	u, token, err := h.service.Login(r.Context(), body.Email, body.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			writeError(w, http.StatusBadRequest, "Invalid email or password")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	auth.SetSessionCookie(w, token, auth.TokenTTL)
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"user":    u.Public(),
	})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	auth.ClearSessionCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Me is the session bootstrap: it reports the current identity without
// requiring one. No cookie is an absence, not an error.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(auth.CookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeJSON(w, http.StatusOK, map[string]any{"user": nil})
		return
	}

	claims, err := h.issuer.Verify(cookie.Value)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": claims})
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	u, err := h.service.Find(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		sentry.CaptureException(err)
		writeError(w, http.StatusInternalServerError, "server error")
		return
	}

	writeJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var body updateRequest
	var picture string

	if isMultipart(r) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form body")
			return
		}
		body.Username = r.FormValue("username")
		body.Email = r.FormValue("email")
	} else {
		if !decodeJSON(w, r, &body) {
			return
		}
	}

	body.Username = strings.TrimSpace(body.Username)
	body.Email = strings.TrimSpace(body.Email)
	if body.Username == "" || !emailRegex.MatchString(body.Email) {
		writeError(w, http.StatusBadRequest, "username and email are required")
		return
	}

	if isMultipart(r) {
		uploaded, ok := h.uploadFormPicture(w, r)
		if !ok {
			return
		}
		picture = uploaded
	}

	u, err := h.service.Update(r.Context(), id, body.Username, body.Email, picture)
	if err != nil {
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "User not found")
		case errors.Is(err, ErrDuplicateEmail):
			writeError(w, http.StatusBadRequest, "email already in use")
		default:
			sentry.CaptureException(err)
			writeError(w, http.StatusInternalServerError, "server error")
		}
		return
	}

	writeJSON(w, http.StatusOK, u.Public())
}

// uploadFormPicture pushes the optional "picture" file through the uploader.
// Returns ok=false after writing an error response.
func (h *Handler) uploadFormPicture(w http.ResponseWriter, r *http.Request) (string, bool) {
	file, header, err := r.FormFile("picture")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", true
		}
		writeError(w, http.StatusBadRequest, "invalid picture upload")
		return "", false
	}
	defer file.Close()

	if h.uploader == nil {
		writeError(w, http.StatusInternalServerError, "picture uploader is not configured")
		return "", false
	}

	dataURI, err := encodePicture(file, header)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid picture upload")
		return "", false
	}

	url, err := h.uploader.UploadImage(r.Context(), dataURI)
	if err != nil {
		sentry.CaptureException(err)
		writeError(w, http.StatusBadGateway, "failed to upload picture")
		return "", false
	}

	return url, true
}

// encodePicture turns the uploaded file into a data URI the upload API
// accepts as a file source.
func encodePicture(file multipart.File, header *multipart.FileHeader) (string, error) {
	if header.Size > maxUploadBytes {
		return "", fmt.Errorf("picture too large: %d bytes", header.Size)
	}

	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return "", fmt.Errorf("read picture: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("empty picture upload")
	}

	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("unsupported picture type %s", contentType)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func validCredentials(w http.ResponseWriter, username, email, password string) bool {
	if username == "" || email == "" || password == "" {
		writeError(w, http.StatusBadRequest, "username, email and password are required")
		return false
	}
	if !emailRegex.MatchString(email) {
		writeError(w, http.StatusBadRequest, "email format is invalid")
		return false
	}
	// bcrypt only hashes the first 72 bytes; anything longer is rejected
	// here rather than surfacing as a hashing failure
	if len(password) > maxPasswordBytes {
		writeError(w, http.StatusBadRequest, "password format is invalid")
		return false
	}
	return true
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
