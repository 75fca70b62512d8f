package customer_test

import (
	"context"
	"testing"

	"github.com/ariefcatur/go-catalog-orders/internal/apperr"
	"github.com/ariefcatur/go-catalog-orders/internal/customer"
	"github.com/ariefcatur/go-catalog-orders/internal/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndGet(t *testing.T) {
	svc := &customer.Service{Store: memstore.New()}
	ctx := context.Background()

	c, err := svc.Create(ctx, customer.CreateRequest{Name: " Grace ", Email: "grace@example.com", Phone: "+14155550123"})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Grace", c.Name)

	got, err := svc.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.Email, got.Email)

	_, err = svc.Get(ctx, c.ID+1)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.ErrorIs(t, err, customer.ErrNotFound)
}

func TestCreateValidates(t *testing.T) {
	svc := &customer.Service{Store: memstore.New()}
	for _, req := range []customer.CreateRequest{
		{Name: "", Email: "a@example.com", Phone: "+14155550123"},
		{Name: "A", Email: "not-an-email", Phone: "+14155550123"},
		{Name: "A", Email: "a@example.com", Phone: "555-0123"},
	} {
		_, err := svc.Create(context.Background(), req)
		assert.True(t, apperr.Is(err, apperr.KindValidation), "%+v", req)
	}
}
