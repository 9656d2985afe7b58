package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/voyagen/sectionvault/internal/apperr"
	"github.com/voyagen/sectionvault/internal/editor"
	"github.com/voyagen/sectionvault/internal/models"
	"github.com/voyagen/sectionvault/internal/validation"
)

// --- saved collections ---

func (s *Server) handleListCollections(w http.ResponseWriter, r *http.Request) {
	infos, err := s.rec.Collections(r.Context())
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

func (s *Server) handleGetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.rec.Load(r.Context(), c)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveCollection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var working []models.Group
	if err := decodeJSON(r, &working); err != nil {
		writeErr(w, err)
		return
	}
	res, err := s.rec.Save(r.Context(), c, working)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handlePreviewSave returns what a save of the body would persist.
func (s *Server) handlePreviewSave(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var working []models.Group
	if err := decodeJSON(r, &working); err != nil {
		writeErr(w, err)
		return
	}
	groups, err := s.rec.ReconcileOnSave(r.Context(), c, working)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}

func (s *Server) handleResetCollection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	if err := s.rec.Reset(r.Context(), c); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

// --- sessions ---

type openSessionRequest struct {
	Operator string `json:"operator" validate:"omitempty,max=64"`
}

func (s *Server) handleOpenSession(w http.ResponseWriter, r *http.Request) {
	var req openSessionRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, err)
			return
		}
	}
	if err := validateRequest(req); err != nil {
		writeErr(w, err)
		return
	}
	sess, err := s.sessions.Open(r.Context(), req.Operator)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

func (s *Server) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleSaveSession(w http.ResponseWriter, r *http.Request) {
	results, err := s.sessions.SaveAll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (s *Server) handleReplaceTree(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var groups []models.Group
	if err := decodeJSON(r, &groups); err != nil {
		writeErr(w, err)
		return
	}
	sess, err := s.sessions.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *editor.Session) error {
		sess.Replace(c, groups)
		return nil
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sess.Tree(c))
}

type createGroupRequest struct {
	Name        string `json:"name" validate:"required,max=200"`
	Description string `json:"description"`
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := validateRequest(req); err != nil {
		writeErr(w, err)
		return
	}
	var g models.Group
	_, err = s.sessions.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *editor.Session) error {
		var err error
		g, err = sess.CreateGroup(c, req.Name, req.Description)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

type importRequest struct {
	URL    string `json:"url" validate:"required,http_url"`
	Author string `json:"author" validate:"required"`
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req importRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := validateRequest(req); err != nil {
		writeErr(w, err)
		return
	}
	groups, err := s.sessions.Import(r.Context(), chi.URLParam(r, "id"), c, req.URL, req.Author)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, groups)
}

type renameGroupRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

func (s *Server) handleRenameGroup(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var req renameGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeErr(w, err)
		return
	}
	if err := validateRequest(req); err != nil {
		writeErr(w, err)
		return
	}
	g, err := s.sessions.Rename(r.Context(), chi.URLParam(r, "id"), c, chi.URLParam(r, "group"), req.Name)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	_, err = s.sessions.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *editor.Session) error {
		return sess.DeleteGroup(c, chi.URLParam(r, "group"))
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var sec models.Section
	if err := decodeJSON(r, &sec); err != nil {
		writeErr(w, err)
		return
	}
	var out models.Section
	_, err = s.sessions.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *editor.Session) error {
		var err error
		out, err = sess.AddSection(c, chi.URLParam(r, "group"), sec)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	var patch models.Section
	if err := decodeJSON(r, &patch); err != nil {
		writeErr(w, err)
		return
	}
	var out models.Section
	_, err = s.sessions.Edit(r.Context(), chi.URLParam(r, "id"), func(sess *editor.Session) error {
		var err error
		out, err = sess.UpdateSection(c, chi.URLParam(r, "section"), patch)
		return err
	})
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	c, err := collectionParam(r)
	if err != nil {
		writeErr(w, err)
		return
	}
	_, err = s.sessions.DeleteSection(r.Context(), chi.URLParam(r, "id"), c, chi.URLParam(r, "section"))
	if err != nil {
		writeErr(w, err)
		return
	}
	writeNoContent(w)
}

// validateRequest runs the struct tags of a request body.
func validateRequest(v any) error {
	err := validation.Struct(v)
	if err == nil {
		return nil
	}
	appErr := apperr.Wrap(apperr.CodeValidation, err.Error(), err)
	var verr *validation.Error
	if errors.As(err, &verr) {
		appErr.WithDetail("fields", verr.Fields)
	}
	return appErr
}
