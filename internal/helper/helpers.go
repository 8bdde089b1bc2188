package helper

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/shamsfin/shamsi/internal/errHandler"
)

type HelperRepository struct {
	baseUrl    *string
	WG         *sync.WaitGroup
	errHandler *errHandler.ErrorRepository
}

func New(baseUrl *string, wg *sync.WaitGroup, errHandler *errHandler.ErrorRepository) *HelperRepository {
	return &HelperRepository{
		baseUrl:    baseUrl,
		WG:         wg,
		errHandler: errHandler,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL": *h.baseUrl,
	}

	return data
}

// BackgroundTask runs fn in its own goroutine, recovering panics and
// reporting errors through the error handler so a failed side effect
// (audit insert, email) never takes the request down with it.
func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.errHandler.ReportServerError(nil, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.errHandler.ReportServerError(nil, err)
		}
	}()
}
