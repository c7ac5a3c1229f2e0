package http

import (
	"net/http"

	"mosques/internal/auth"
	"mosques/internal/core"
)

type loginResponse struct {
	Success bool    `json:"success"`
	Token   string  `json:"token"`
	User    userDTO `json:"user"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decode(r, &req, msgLoginFieldsMissing); err != nil {
		fail(w, r, err, nil)
		return
	}
	sess, err := s.svc.Users.Login(r.Context(), req.NationalID, req.Password)
	if err != nil {
		fail(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Success: true, Token: sess.Token, User: toUserDTO(sess.User)})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := auth.FromContext(r.Context())
	var req changePasswordRequest
	if err := decode(r, &req, msgAllFieldsRequired); err != nil {
		fail(w, r, err, nil)
		return
	}
	err := s.svc.Users.ChangePassword(r.Context(), claims.NationalID(), req.NationalID, req.OldPassword, req.NewPassword)
	if err != nil {
		fail(w, r, err, messages{
			core.ErrForbidden:          msgOtherUser,
			core.ErrNotFound:           msgUserNotFound,
			core.ErrInvalidCredentials: msgWrongOldPassword,
		})
		return
	}
	writeSuccess(w, msgPasswordChanged, nil)
}
