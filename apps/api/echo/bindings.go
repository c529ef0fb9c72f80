package echoapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/observa/core"
)

var (
	orderingParam = "ordering"

	errMalformedPayload = core.NewValidationError(errors.New("malformed payload"))
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
	}
}

// bindPayload decodes a JSON body, or else the form values of the request, into a raw payload map.
// Multi-valued form fields are kept as []string.
func bindPayload(ctx echo.Context) (map[string]interface{}, error) {
	req := ctx.Request()
	payload := make(map[string]interface{})

	if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		if req.ContentLength == 0 {
			return payload, nil
		}
		dec := json.NewDecoder(req.Body)
		dec.UseNumber()
		if err := dec.Decode(&payload); err != nil {
			return nil, errMalformedPayload
		}
		return payload, nil
	}

	form, err := ctx.FormParams()
	if err != nil && err != http.ErrNotMultipart {
		return nil, errMalformedPayload
	}
	for key, vals := range form {
		switch len(vals) {
		case 0:
		case 1:
			payload[key] = vals[0]
		default:
			payload[key] = vals
		}
	}
	return payload, nil
}
