package monitoring

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/avelez/shopadmin-be/internal/services"
)

// StockWatcher periodically scans the catalog for products running low on
// stock, logging a warning and pushing an alert onto the event stream.
type StockWatcher struct {
	service  services.ProductServiceProvider
	notifier services.CatalogNotifier
	schedule string
	cron     *cron.Cron
}

// NewStockWatcher creates a watcher on the given cron schedule
// (e.g. "@every 10m"). notifier may be nil.
func NewStockWatcher(service services.ProductServiceProvider, notifier services.CatalogNotifier, schedule string) *StockWatcher {
	return &StockWatcher{
		service:  service,
		notifier: notifier,
		schedule: schedule,
		cron:     cron.New(),
	}
}

// Run registers the scan job and starts the scheduler.
func (w *StockWatcher) Run() error {
	if _, err := w.cron.AddFunc(w.schedule, w.scan); err != nil {
		return err
	}
	w.cron.Start()
	log.Info().Str("schedule", w.schedule).Msg("Stock watcher started")
	return nil
}

// Stop stops the scheduler. Running jobs finish on their own.
func (w *StockWatcher) Stop() {
	w.cron.Stop()
	log.Info().Msg("Stock watcher stopped")
}

func (w *StockWatcher) scan() {
	products, err := w.service.LowStockProducts(services.LowStockThreshold)
	if err != nil {
		log.Error().Err(err).Msg("Low stock scan failed")
		return
	}
	if len(products) == 0 {
		return
	}

	log.Warn().Int("count", len(products)).Int("threshold", services.LowStockThreshold).Msg("Products running low on stock")
	if w.notifier != nil {
		w.notifier.NotifyCatalog(services.ActionLowStockAlert, products)
	}
}
