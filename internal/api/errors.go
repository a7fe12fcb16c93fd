package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dgallion1/gdocmark/internal/anchor"
	"github.com/dgallion1/gdocmark/internal/compiler"
	"github.com/dgallion1/gdocmark/internal/decompiler"
	"github.com/dgallion1/gdocmark/internal/docsapi"
	"github.com/dgallion1/gdocmark/internal/docsim"
	"github.com/dgallion1/gdocmark/internal/fontweight"
	"github.com/dgallion1/gdocmark/internal/mebdf"
)

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

// errorStatus maps conversion errors to 422, missing documents to 404 and
// Docs API failures to 502.
func errorStatus(err error) int {
	var (
		malformed   *mebdf.MalformedSpanError
		unknown     *mebdf.UnknownDirectiveError
		badArg      *mebdf.InvalidDirectiveArgumentError
		badWeight   *fontweight.InvalidWeightError
		duplicate   *anchor.DuplicateAnchorError
		compileErr  *compiler.UnsupportedStructureError
		decompErr   *decompiler.UnsupportedStructureError
		requestErr  *docsim.RequestError
		transportEr *docsapi.Error
	)
	switch {
	case errors.As(err, &malformed), errors.As(err, &unknown), errors.As(err, &badArg),
		errors.As(err, &badWeight), errors.As(err, &duplicate),
		errors.As(err, &compileErr), errors.As(err, &decompErr), errors.As(err, &requestErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, docsim.ErrNotFound), docsapi.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &transportEr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	jsonError(w, err.Error(), errorStatus(err))
}
