package server

import (
	"encoding/json"
	"net/http"

	"github.com/matzehuels/demazure/pkg/demazure"
	errs "github.com/matzehuels/demazure/pkg/errors"
	"github.com/matzehuels/demazure/pkg/perm"
)

type elementRequest struct {
	N           int       `mapstructure:"n"`
	Permutation perm.Perm `mapstructure:"permutation"`
}

type wordRequest struct {
	N    int       `mapstructure:"n"`
	Word perm.Word `mapstructure:"word"`
}

type subwordsRequest struct {
	N      int       `mapstructure:"n"`
	Word   perm.Word `mapstructure:"word"`
	Target perm.Perm `mapstructure:"target"`
	Count  bool      `mapstructure:"count"`
}

type lengthResponse struct {
	N           int       `json:"n"`
	Permutation perm.Perm `json:"permutation"`
	Length      int       `json:"length"`
}

type wordsResponse struct {
	N           int         `json:"n"`
	Permutation perm.Perm   `json:"permutation"`
	Words       []perm.Word `json:"words"`
}

type productResponse struct {
	N           int       `json:"n"`
	Word        perm.Word `json:"word"`
	Product     perm.Perm `json:"product"`
	Length      int       `json:"length"`
	ReducedWord perm.Word `json:"reduced_word"`
}

type subwordsResponse struct {
	N        int                `json:"n"`
	Word     perm.Word          `json:"word"`
	Target   perm.Perm          `json:"target"`
	Count    string             `json:"count"`
	Subwords []demazure.Subword `json:"subwords,omitempty"`
}

type elementsResponse struct {
	N        int         `json:"n"`
	Word     perm.Word   `json:"word"`
	Elements []perm.Perm `json:"elements"`
}

func (req *elementRequest) rank() int {
	if req.N == 0 {
		return len(req.Permutation)
	}
	return req.N
}

func (req *wordRequest) rank() int {
	if req.N == 0 {
		return req.Word.ImpliedN()
	}
	return req.N
}

func (s *Server) handleLength(w http.ResponseWriter, r *http.Request) {
	var req elementRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.rank()
	l, err := s.svc.Length(r.Context(), n, req.Permutation)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, lengthResponse{N: n, Permutation: req.Permutation, Length: l})
}

func (s *Server) handleWords(w http.ResponseWriter, r *http.Request) {
	var req elementRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.rank()
	words, err := s.svc.ReducedWords(r.Context(), n, req.Permutation)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wordsResponse{N: n, Permutation: req.Permutation, Words: words})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.rank()
	p, err := s.svc.DemazureProduct(r.Context(), n, req.Word)
	if err != nil {
		s.writeError(w, err)
		return
	}
	kept, err := s.svc.ReducedWordOf(r.Context(), n, req.Word)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, productResponse{
		N:           n,
		Word:        req.Word,
		Product:     p,
		Length:      p.Length(),
		ReducedWord: kept,
	})
}

func (s *Server) handleSubwords(w http.ResponseWriter, r *http.Request) {
	var req subwordsRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.N
	if n == 0 {
		n = len(req.Target)
	}
	resp := subwordsResponse{N: n, Word: req.Word, Target: req.Target}
	if req.Count {
		count, err := s.svc.SubwordCount(r.Context(), n, req.Word, req.Target)
		if err != nil {
			s.writeError(w, err)
			return
		}
		resp.Count = count.String()
		writeJSON(w, http.StatusOK, resp)
		return
	}
	subs, err := s.svc.SubwordsMultiplyingTo(r.Context(), n, req.Word, req.Target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	resp.Count = itoa(len(subs))
	resp.Subwords = subs
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleNonReduced(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.rank()
	images, err := s.svc.NonReducedSubwordImages(r.Context(), n, req.Word)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elementsResponse{N: n, Word: req.Word, Elements: images})
}

func (s *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	var req wordRequest
	if !s.decode(w, r, &req) {
		return
	}
	n := req.rank()
	images, err := s.svc.Images(r.Context(), n, req.Word)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, elementsResponse{N: n, Word: req.Word, Elements: images})
}

// =============================================================================
// Responses
// =============================================================================

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    errs.Code `json:"code"`
	Message string    `json:"message"`
}

// statusFor maps error codes to HTTP statuses.
func statusFor(err error) int {
	if errs.IsInvalidInput(err) {
		return http.StatusBadRequest
	}
	switch errs.GetCode(err) {
	case errs.ErrCodeNotFound:
		return http.StatusNotFound
	case errs.ErrCodeResourceExhausted:
		return http.StatusRequestEntityTooLarge
	case errs.ErrCodeStoreUnavailable, errs.ErrCodeLockTimeout:
		return http.StatusServiceUnavailable
	case errs.ErrCodeUnsupported:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errs.GetCode(err)
	if code == "" {
		code = errs.ErrCodeInternal
	}
	status := statusFor(err)
	if status >= 500 {
		s.logger.Error("request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorBody{Error: errorDetail{Code: code, Message: errs.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
