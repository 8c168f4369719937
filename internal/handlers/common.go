package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"hoa-backend/internal/middleware"
	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"

	"github.com/gorilla/mux"
)

// multipart bodies carry one proof image plus a few form fields
const maxUploadBytes = services.MaxProofBytes + 1<<20

// respondError writes any service error as a JSON error response.
func respondError(w http.ResponseWriter, err error) {
	var totpErr *services.TOTPError
	if errors.As(err, &totpErr) {
		status := http.StatusUnauthorized
		code := utils.ErrCodeInvalidTotp
		if errors.Is(err, services.ErrTooManyAttempts) {
			status = http.StatusTooManyRequests
			code = utils.ErrCodeRateLimitExceeded
		}
		utils.RespondErrorWithCode(w, status, code, totpErr.Message, nil)
		return
	}
	utils.HandleError(w, err)
}

// decodeJSON reads the request body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid request body", nil, err)
		return false
	}
	return true
}

func actorFrom(r *http.Request) models.Actor {
	actor, _ := middleware.ActorFromContext(r.Context())
	return actor
}

// pathID parses the {id} route variable.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid id", nil)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func loginMeta(r *http.Request) services.LoginMeta {
	return services.LoginMeta{IP: middleware.ClientIP(r), UserAgent: r.UserAgent()}
}

// readProof pulls the optional "proof" file out of a parsed multipart form.
// A file over the limit is reported with the same message as the service check.
func readProof(r *http.Request) (*services.Proof, error) {
	file, header, err := r.FormFile("proof")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewValidationError("proof", "Could not read the uploaded file")
	}
	defer file.Close()

	if header.Size > services.MaxProofBytes {
		return nil, services.ErrProofTooLarge
	}
	data, err := io.ReadAll(io.LimitReader(file, services.MaxProofBytes+1))
	if err != nil {
		return nil, err
	}
	return &services.Proof{Filename: header.Filename, Data: data}, nil
}

// parseMultipart limits and parses a multipart request.
func parseMultipart(w http.ResponseWriter, r *http.Request) bool {
	if r.ContentLength > maxUploadBytes {
		respondError(w, services.ErrProofTooLarge)
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, services.ErrProofTooLarge)
			return false
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeInvalidPayload, "Invalid multipart form", nil, err)
		return false
	}
	return true
}

func writeFile(w http.ResponseWriter, contentType, filename string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
