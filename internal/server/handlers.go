package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/azureanc-hub/filevault/pkg/registry"
)

// identityHeader carries the pre-verified caller identity. Authentication
// happens upstream; the engine only trusts this header was set by the
// gateway.
const identityHeader = "X-Identity"

// callerIdentity extracts and validates the caller identity. A missing or
// malformed header is a rejected operation, not an empty result.
func callerIdentity(r *http.Request) (registry.Identity, error) {
	return registry.ParseIdentity(r.Header.Get(identityHeader))
}

// pathIdentity extracts and validates an identity path parameter.
func pathIdentity(r *http.Request, param string) (registry.Identity, error) {
	return registry.ParseIdentity(chi.URLParam(r, param))
}

// pathFileID extracts and parses the {id} path parameter.
func pathFileID(r *http.Request) (uint64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, &registry.StoreError{
			Code:    registry.ErrInvalidArgument,
			Message: "malformed file id",
			Subject: raw,
		}
	}
	return id, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============================================================================
// Files
// ============================================================================

// addFileRequest mirrors the upload form: everything except the ID, owner,
// and upload time, which the engine assigns.
type addFileRequest struct {
	FileName    string   `json:"file_name"`
	FileType    string   `json:"file_type"`
	ContentHash string   `json:"content_hash"`
	FileSize    uint64   `json:"file_size"`
	IsPublic    bool     `json:"is_public"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (s *Server) handleAddFile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req addFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &registry.StoreError{
			Code:    registry.ErrInvalidArgument,
			Message: "malformed request body",
		})
		return
	}

	record, err := s.engine.AddFile(r.Context(), caller, registry.NewFileInput{
		FileName:    req.FileName,
		FileType:    registry.FileType(req.FileType),
		ContentHash: req.ContentHash,
		FileSize:    req.FileSize,
		IsPublic:    req.IsPublic,
		Description: req.Description,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, record)
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathFileID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	record, err := s.engine.GetFile(r.Context(), caller, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathFileID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.DeleteFile(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

// fileList normalizes nil slices so callers always get a JSON array.
func fileList(records []*registry.FileRecord) []*registry.FileRecord {
	if records == nil {
		return []*registry.FileRecord{}
	}
	return records
}

func (s *Server) handleGetMyFiles(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.engine.GetMyFiles(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileList(records))
}

func (s *Server) handleGetPublicFiles(w http.ResponseWriter, r *http.Request) {
	records, err := s.engine.GetPublicFiles(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileList(records))
}

func (s *Server) handleGetUserFiles(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	target, err := pathIdentity(r, "identity")
	if err != nil {
		writeError(w, err)
		return
	}

	records, err := s.engine.GetUserFiles(r.Context(), caller, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fileList(records))
}

// ============================================================================
// Access Control
// ============================================================================

type granteeRequest struct {
	Grantee string `json:"grantee"`
}

func (s *Server) handleGrantAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req granteeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &registry.StoreError{
			Code:    registry.ErrInvalidArgument,
			Message: "malformed request body",
		})
		return
	}
	grantee, err := registry.ParseIdentity(req.Grantee)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.GrantAccountAccess(r.Context(), caller, grantee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": true})
}

func (s *Server) handleRevokeAccount(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	grantee, err := pathIdentity(r, "grantee")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.RevokeAccountAccess(r.Context(), caller, grantee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

type fileGrantRequest struct {
	FileID  uint64 `json:"file_id"`
	Grantee string `json:"grantee"`
}

func (s *Server) handleGrantFile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var req fileGrantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, &registry.StoreError{
			Code:    registry.ErrInvalidArgument,
			Message: "malformed request body",
		})
		return
	}
	grantee, err := registry.ParseIdentity(req.Grantee)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.GrantFileAccess(r.Context(), caller, req.FileID, grantee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"granted": true})
}

func (s *Server) handleRevokeFile(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	id, err := pathFileID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	grantee, err := pathIdentity(r, "grantee")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := s.engine.RevokeFileAccess(r.Context(), caller, id, grantee); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"revoked": true})
}

func (s *Server) handleAccountAccessList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	grants, err := s.engine.GetAccountAccessList(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if grants == nil {
		grants = []registry.AccountGrant{}
	}
	writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleListAccessUsers(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	users, err := s.engine.ListAccessUsers(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if users == nil {
		users = []registry.Identity{}
	}
	writeJSON(w, http.StatusOK, users)
}

func (s *Server) handleFileAccessList(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}

	grants, err := s.engine.GetFileAccessList(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	if grants == nil {
		grants = []registry.FileGrant{}
	}
	writeJSON(w, http.StatusOK, grants)
}

func (s *Server) handleGetAccessSummary(w http.ResponseWriter, r *http.Request) {
	caller, err := callerIdentity(r)
	if err != nil {
		writeError(w, err)
		return
	}
	target, err := pathIdentity(r, "identity")
	if err != nil {
		writeError(w, err)
		return
	}

	summary, err := s.engine.GetAccessSummary(r.Context(), caller, target)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// ============================================================================
// Audit Feed
// ============================================================================

const defaultEventLimit = 500

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var after uint64
	if raw := r.URL.Query().Get("after"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, &registry.StoreError{
				Code:    registry.ErrInvalidArgument,
				Message: "malformed after cursor",
				Subject: raw,
			})
			return
		}
		after = v
	}

	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, &registry.StoreError{
				Code:    registry.ErrInvalidArgument,
				Message: "malformed limit",
				Subject: raw,
			})
			return
		}
		if v < limit {
			limit = v
		}
	}

	events, err := s.engine.Events(r.Context(), after, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if events == nil {
		events = []registry.AuditEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}
