package helper

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/homevest/backoffice/internal/errHandler"
)

type Helper interface {
	NewEmailData() map[string]any
	BackgroundTask(r *http.Request, fn func() error)
}

type HelperRepository struct {
	baseUrl      *string
	platformName string
	WG           *sync.WaitGroup
	errHandler   *errHandler.ErrorHandler
}

func New(baseUrl *string, platformName string, wg *sync.WaitGroup, errHandler *errHandler.ErrorHandler) *HelperRepository {
	return &HelperRepository{
		baseUrl:      baseUrl,
		platformName: platformName,
		WG:           wg,
		errHandler:   errHandler,
	}
}

func (h *HelperRepository) NewEmailData() map[string]any {
	data := map[string]any{
		"BaseURL":      h.baseUrl,
		"PlatformName": h.platformName,
	}

	return data
}

func (h *HelperRepository) BackgroundTask(r *http.Request, fn func() error) {
	h.WG.Add(1)

	go func() {
		defer h.WG.Done()

		defer func() {
			err := recover()
			if err != nil {
				h.errHandler.ReportServerError(r, fmt.Errorf("%s", err))
			}
		}()

		err := fn()
		if err != nil {
			h.errHandler.ReportServerError(r, err)
		}
	}()
}
