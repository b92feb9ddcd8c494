package infra

import (
	"context"
	"testing"

	"github.com/gonza-rom/jmr-stock-sub000/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestProductCache_SinRedisEsSiempreVacio(t *testing.T) {
	ctx := context.Background()
	for _, c := range []*ProductCache{nil, NewProductCache(nil)} {
		c.Set(ctx, "CART-01", map[string]int{"stock": 3})
		var dest map[string]int
		assert.False(t, c.Get(ctx, "CART-01", &dest))
		c.Invalidate(ctx, "CART-01", "")
	}
}

func TestMailer_SinHostDevuelveDisabled(t *testing.T) {
	m := NewMailer(&config.Config{SMTPPort: 587, BusinessName: "JMR"}, nil)
	assert.False(t, m.Enabled())
	assert.NotNil(t, m.Breaker())
	assert.ErrorIs(t, m.Send([]string{"a@b.test"}, "hola", "cuerpo"), ErrMailerDisabled)
	assert.Equal(t, CBClosed, m.Breaker().State(), "disabled sends do not count as failures")
}
