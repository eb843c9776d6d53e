package client_test

import (
	"context"
	"fmt"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/kedhead/embPO/client"
	"github.com/kedhead/embPO/internal/config"
	"github.com/kedhead/embPO/internal/mailer"
	"github.com/kedhead/embPO/internal/models"
	"github.com/kedhead/embPO/internal/server"
	"github.com/kedhead/embPO/internal/services"
)

type recordingSender struct{ sent []mailer.Message }

func (r *recordingSender) Send(_ context.Context, msg mailer.Message) error {
	r.sent = append(r.sent, msg)
	return nil
}

func newBackend(t *testing.T) (*httptest.Server, *recordingSender) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.PurchaseOrder{}))
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	sender := &recordingSender{}
	ts := httptest.NewServer(server.New(db, config.Load(), config.DefaultSettings(), sender, log))
	t.Cleanup(ts.Close)
	return ts, sender
}

func sampleDraft() client.Draft {
	return client.Draft{
		Customer: models.Customer{Name: "John Smith", Email: "john@smith.test"},
		LineItems: []models.LineItem{
			{Description: "logo embroidery", Quantity: 2, UnitPrice: 10},
			{Description: "thread upgrade", Quantity: 1, UnitPrice: 5.5},
		},
		TaxRate: 7.5,
	}
}

func TestStoreCreateRefreshesMirror(t *testing.T) {
	ts, _ := newBackend(t)
	store := client.NewStore(ts.URL)
	ctx := context.Background()

	po, err := store.Create(ctx, sampleDraft())
	require.NoError(t, err)
	assert.NotEmpty(t, po.ID)
	assert.Equal(t, models.StatusUnpaid, po.Status)

	mirror := store.Orders()
	require.Len(t, mirror, 1)
	assert.Equal(t, po.ID, mirror[0].ID)
}

func TestRoundTripTotalsMatchCalculator(t *testing.T) {
	ts, _ := newBackend(t)
	store := client.NewStore(ts.URL)
	ctx := context.Background()

	created, err := store.Create(ctx, sampleDraft())
	require.NoError(t, err)

	fetched, err := store.Get(ctx, created.ID)
	require.NoError(t, err)

	want := services.NewOrderService().CalculateTotals(fetched.LineItems, fetched.TaxRate)
	assert.Equal(t, want.Subtotal, fetched.Subtotal)
	assert.Equal(t, want.TaxAmount, fetched.TaxAmount)
	assert.Equal(t, want.Total, fetched.Total)
}

func TestStoreGetUnknownIsErrNotFound(t *testing.T) {
	ts, _ := newBackend(t)
	store := client.NewStore(ts.URL)

	_, err := store.Get(context.Background(), "ghost")
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestStoreDeleteRemovesFromMirror(t *testing.T) {
	ts, _ := newBackend(t)
	store := client.NewStore(ts.URL)
	ctx := context.Background()

	po, err := store.Create(ctx, sampleDraft())
	require.NoError(t, err)
	require.NoError(t, store.Delete(ctx, po.ID))
	assert.Empty(t, store.Orders())
}

func TestStoreEmailPDF(t *testing.T) {
	ts, sender := newBackend(t)
	store := client.NewStore(ts.URL)
	ctx := context.Background()

	po, err := store.Create(ctx, sampleDraft())
	require.NoError(t, err)

	msg, err := store.EmailPDF(ctx, po.ID, "buyer@example.test", "")
	require.NoError(t, err)
	assert.Contains(t, msg, po.OrderNumber)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "buyer@example.test", sender.sent[0].To)
}

func TestStoreHealthy(t *testing.T) {
	ts, _ := newBackend(t)
	store := client.NewStore(ts.URL)
	assert.True(t, store.Healthy(context.Background()))

	dead := client.NewStore("http://127.0.0.1:1")
	assert.False(t, dead.Healthy(context.Background()))
}
