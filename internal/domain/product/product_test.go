package product

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_Validate(t *testing.T) {
	valid := Product{ID: "w1", Name: "Submariner", Price: decimal.NewFromInt(9000), Stock: 2}
	negative := decimal.NewFromInt(-1)

	for _, tt := range []struct {
		name  string
		edit  func(p *Product)
		field string
	}{
		{name: "Valid", edit: func(*Product) {}},
		{name: "NoStock", edit: func(p *Product) { p.Stock = 0 }},
		{name: "MissingID", edit: func(p *Product) { p.ID = "" }, field: "id"},
		{name: "MissingName", edit: func(p *Product) { p.Name = "" }, field: "name"},
		{name: "ZeroPrice", edit: func(p *Product) { p.Price = decimal.Zero }, field: "price"},
		{name: "NegativeOldPrice", edit: func(p *Product) { p.OldPrice = &negative }, field: "oldPrice"},
		{name: "NegativeStock", edit: func(p *Product) { p.Stock = -3 }, field: "stock"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.edit(&p)

			err := p.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			var valErr *ValidationError
			require.True(t, errors.As(err, &valErr), "got %v", err)
			assert.Equal(t, tt.field, valErr.Field)
		})
	}
}
