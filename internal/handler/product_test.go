package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shamsfin/shamsi/internal/cache"
	"github.com/shamsfin/shamsi/internal/errHandler"
	"github.com/shamsfin/shamsi/internal/mocks"
	"github.com/shamsfin/shamsi/internal/models"
	"github.com/shamsfin/shamsi/internal/stream"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestProductHandler(productRepo *mocks.MockProductRepo) *ProductHandler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	mailer := new(mocks.MockMailer)
	mailer.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()

	return NewProductHandler(&ProductHandler{
		ProductRepo: productRepo,
		Cache:       cache.NewTiered(cache.NewMemory(), nil),
		Kafka:       stream.New("localhost:9092"),
		ErrHandler:  errHandler.New("", mailer, logger),
	})
}

func TestHandleListProducts_ServesSecondReadFromCache(t *testing.T) {
	productRepo := new(mocks.MockProductRepo)

	productRepo.On("GetAllActive").Return([]models.Product{
		{ID: "1", Name: "Villa 10kW", Slug: "villa-10kw", PanelCount: 24, CapacityKW: 10, PriceSAR: 39500, Active: true},
	}, nil)

	productHandler := newTestProductHandler(productRepo)

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest("GET", "/api/products", nil)
		require.NoError(t, err)

		rr := httptest.NewRecorder()
		productHandler.HandleListProducts(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

		data, ok := response["data"].([]any)
		require.True(t, ok)
		require.Len(t, data, 1)
	}

	productRepo.AssertNumberOfCalls(t, "GetAllActive", 1)
}

func TestHandleSingleProduct_ServesSecondReadFromCache(t *testing.T) {
	productRepo := new(mocks.MockProductRepo)

	productRepo.On("GetOne", "product-1").Return(&models.Product{
		ID:       "product-1",
		Name:     "Villa 10kW",
		Slug:     "villa-10kw",
		PriceSAR: 39500,
		Active:   true,
	}, true, nil)

	productHandler := newTestProductHandler(productRepo)

	for i := 0; i < 2; i++ {
		req, err := http.NewRequest("GET", "/api/products/product-1", nil)
		require.NoError(t, err)
		req.SetPathValue("id", "product-1")

		rr := httptest.NewRecorder()
		productHandler.HandleSingleProduct(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var response map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

		data, ok := response["data"].(map[string]any)
		require.True(t, ok)
		require.Equal(t, "villa-10kw", data["slug"])
	}

	productRepo.AssertNumberOfCalls(t, "GetOne", 1)
}

func TestHandleSingleProduct_HidesInactiveProduct(t *testing.T) {
	productRepo := new(mocks.MockProductRepo)

	productRepo.On("GetOne", "product-1").Return(&models.Product{
		ID:     "product-1",
		Active: false,
	}, true, nil)

	productHandler := newTestProductHandler(productRepo)

	req, err := http.NewRequest("GET", "/api/products/product-1", nil)
	require.NoError(t, err)
	req.SetPathValue("id", "product-1")

	rr := httptest.NewRecorder()
	productHandler.HandleSingleProduct(rr, req)

	require.Equal(t, http.StatusNotFound, rr.Code)
}
