package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/Abdurahmanit/GroupProject/storefront/internal/domain/entity"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/middleware"
	"github.com/Abdurahmanit/GroupProject/storefront/internal/service"
)

const maxJSONBody = 1 << 20

var errMissingPrincipal = fmt.Errorf("%w: no principal in request context", service.ErrUnauthenticated)

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", service.ErrValidation)
		}
		return fmt.Errorf("%w: invalid request body", service.ErrValidation)
	}
	return nil
}

func principal(r *http.Request) (entity.Principal, error) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		return entity.Principal{}, errMissingPrincipal
	}
	return p, nil
}

// pageParams reads ?page= and ?limit=; invalid values fall back to the
// service defaults.
func pageParams(r *http.Request) (int, int) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return page, limit
}
