package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/qualitytime/storefront/internal/domain/cart"
)

// writeJSON encodes the body with fn and writes it with status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError writes {"code","message"} plus the invalid field and pending
// notifications when present.
func writeError(w http.ResponseWriter, status int, msg string, field *string, notes []cart.Notification) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
			if field != nil {
				e.Field("field", func(e *jx.Encoder) { e.Str(*field) })
			}
			if len(notes) > 0 {
				e.Field("notifications", func(e *jx.Encoder) { encodeNotifications(e, notes) })
			}
		})
	})
}

func encodeNotifications(e *jx.Encoder, notes []cart.Notification) {
	e.Arr(func(e *jx.Encoder) {
		for _, n := range notes {
			e.Obj(func(e *jx.Encoder) {
				e.Field("message", func(e *jx.Encoder) { e.Str(n.Message) })
				e.Field("severity", func(e *jx.Encoder) { e.Str(string(n.Severity)) })
			})
		}
	})
}

func encodeDecimal(e *jx.Encoder, d decimal.Decimal) {
	e.Str(d.StringFixed(2))
}

func encodeTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encodeStrings(e *jx.Encoder, ss []string) {
	e.Arr(func(e *jx.Encoder) {
		for _, s := range ss {
			e.Str(s)
		}
	})
}

// decodeObject reads a JSON object body and calls fn for every key.
func (h *Handler) decodeObject(w http.ResponseWriter, r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.cfg.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return badRequest("request body too large")
		}
		return errors.Wrap(err, "read body")
	}
	if len(data) == 0 {
		return badRequest("request body required")
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return badRequest("request body must be a JSON object")
	}
	if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		return fn(d, string(key))
	}); err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			return err
		}
		return badRequest("malformed JSON: " + err.Error())
	}
	return nil
}

// decodeString accepts a JSON string or a number, returning its text.
func decodeString(d *jx.Decoder) (string, error) {
	switch d.Next() {
	case jx.String:
		return d.Str()
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return "", err
		}
		return n.String(), nil
	default:
		return "", badRequest("expected string")
	}
}
