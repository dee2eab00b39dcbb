package cart

import (
	"io"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"
)

// snapshotVersion is the schema version written by EncodeSnapshot.
const snapshotVersion = 1

// ErrSnapshotCorrupt is returned when stored bytes do not decode to a valid cart.
var ErrSnapshotCorrupt = errors.New("cart snapshot corrupt")

// EncodeSnapshot serializes the whole cart:
//
//	{"v":1,"lines":[{"id":..,"price":"5000",..,"quantity":2,"addedAt":".."}]}
func EncodeSnapshot(c Cart) []byte {
	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("v", func(e *jx.Encoder) { e.Int(snapshotVersion) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines {
					encodeLine(e, l)
				}
			})
		})
	})
	return e.Bytes()
}

func encodeLine(e *jx.Encoder, l Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(l.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(l.Brand) })
		e.Field("price", func(e *jx.Encoder) { e.Str(l.Price.String()) })
		e.Field("stock", func(e *jx.Encoder) { e.Int(l.Stock) })
		e.Field("images", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, img := range l.Images {
					e.Str(img)
				}
			})
		})
		e.Field("category", func(e *jx.Encoder) { e.Str(l.Category) })
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		if !l.AddedAt.IsZero() {
			e.Field("addedAt", func(e *jx.Encoder) { e.Str(l.AddedAt.UTC().Format(time.RFC3339Nano)) })
		}
	})
}

// DecodeSnapshot parses data written by EncodeSnapshot. A bare array of
// line objects, the shape the browser storefront kept in local storage, is
// accepted as well. Anything but exactly one JSON value, surrounding space
// aside, is rejected. Every failure wraps ErrSnapshotCorrupt.
func DecodeSnapshot(data []byte) (Cart, error) {
	d := jx.DecodeBytes(data)
	c, err := decodeSnapshot(d)
	if err == nil {
		if tail := d.Skip(); !errors.Is(tail, io.EOF) {
			err = errors.New("trailing data after snapshot")
		}
	}
	if err != nil {
		return Cart{}, errors.Wrap(ErrSnapshotCorrupt, err.Error())
	}
	if err := c.validate(); err != nil {
		return Cart{}, errors.Wrap(ErrSnapshotCorrupt, err.Error())
	}
	return c, nil
}

func decodeSnapshot(d *jx.Decoder) (Cart, error) {
	switch d.Next() {
	case jx.Array:
		lines, err := decodeLines(d)
		return Cart{Lines: lines}, err
	case jx.Object:
	default:
		return Cart{}, errors.New("snapshot is neither object nor array")
	}

	var (
		c       Cart
		version = -1
		hasBody bool
	)
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "v":
			v, err := d.Int()
			if err != nil {
				return errors.Wrap(err, "version")
			}
			version = v
		case "lines":
			lines, err := decodeLines(d)
			if err != nil {
				return err
			}
			c.Lines = lines
			hasBody = true
		default:
			return d.Skip()
		}
		return nil
	}); err != nil {
		return Cart{}, err
	}
	if version != snapshotVersion {
		return Cart{}, errors.Errorf("unsupported snapshot version %d", version)
	}
	if !hasBody {
		return Cart{}, errors.New("snapshot without lines")
	}
	return c, nil
}

func decodeLines(d *jx.Decoder) ([]Line, error) {
	lines := []Line{}
	if err := d.Arr(func(d *jx.Decoder) error {
		l, err := decodeLine(d)
		if err != nil {
			return errors.Wrapf(err, "line %d", len(lines))
		}
		lines = append(lines, l)
		return nil
	}); err != nil {
		return nil, err
	}
	return lines, nil
}

func decodeLine(d *jx.Decoder) (Line, error) {
	var (
		l                Line
		hasPrice, hasQty bool
	)
	if d.Next() != jx.Object {
		return Line{}, errors.New("line is not an object")
	}
	if err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			l.ID, err = d.Str()
		case "name":
			l.Name, err = optStr(d)
		case "brand":
			l.Brand, err = optStr(d)
		case "category":
			l.Category, err = optStr(d)
		case "price":
			l.Price, err = decodePrice(d)
			hasPrice = true
		case "stock", "stock_quantity":
			l.Stock, err = d.Int()
		case "images":
			l.Images, err = decodeStrings(d)
		case "quantity":
			l.Quantity, err = d.Int()
			hasQty = true
		case "addedAt":
			l.AddedAt, err = decodeTime(d)
		default:
			return d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	}); err != nil {
		return Line{}, err
	}
	if !hasPrice {
		return Line{}, errors.New("missing price")
	}
	if !hasQty {
		return Line{}, errors.New("missing quantity")
	}
	return l, nil
}

// optStr reads a string, treating null as empty.
func optStr(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodePrice accepts a decimal string or a JSON number.
func decodePrice(d *jx.Decoder) (decimal.Decimal, error) {
	var raw string
	switch d.Next() {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		raw = s
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		raw = string(n)
	default:
		return decimal.Zero, errors.New("price must be a string or number")
	}
	return decimal.NewFromString(raw)
}

func decodeStrings(d *jx.Decoder) ([]string, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	var out []string
	err := d.Arr(func(d *jx.Decoder) error {
		s, err := d.Str()
		if err != nil {
			return err
		}
		out = append(out, s)
		return nil
	})
	return out, err
}

func decodeTime(d *jx.Decoder) (time.Time, error) {
	if d.Next() == jx.Null {
		return time.Time{}, d.Null()
	}
	s, err := d.Str()
	if err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
