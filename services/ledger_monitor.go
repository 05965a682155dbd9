package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/cafe-pos/kds"
	"github.com/yeremiapane/cafe-pos/utils"
)

// LedgerMonitor periodically compares stored stock with the movement ledger
// and reports items that drifted. It never corrects them.
type LedgerMonitor struct {
	Stock     *StockService
	Publisher kds.Publisher
	Interval  time.Duration
	StopChan  chan struct{}

	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

func NewLedgerMonitor(stock *StockService, publisher kds.Publisher) *LedgerMonitor {
	if publisher == nil {
		publisher = kds.Nop{}
	}
	return &LedgerMonitor{
		Stock:     stock,
		Publisher: publisher,
		Interval:  5 * time.Minute,
		StopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

func (lm *LedgerMonitor) Start() {
	lm.started = true
	go func() {
		defer close(lm.done)
		ticker := time.NewTicker(lm.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				lm.Check(context.Background())
			case <-lm.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.Infof("Ledger monitor started (interval=%s)", lm.Interval)
}

// Stop ends the loop and waits for a running check to finish.
func (lm *LedgerMonitor) Stop() {
	lm.stopOnce.Do(func() {
		close(lm.StopChan)
		if lm.started {
			<-lm.done
		}
	})
}

// Check runs one audit and returns the drifted items.
func (lm *LedgerMonitor) Check(ctx context.Context) []StockReconciliation {
	drifted, err := lm.Stock.ReconcileAll(ctx)
	if err != nil {
		utils.ErrorLogger.Errorf("Ledger audit failed: %v", err)
		return nil
	}

	for _, rec := range drifted {
		utils.ErrorLogger.WithFields(logrus.Fields{
			"menuItemId": rec.MenuItemID,
			"stored":     rec.Stored,
			"ledgerSum":  rec.LedgerSum,
		}).Error("stock ledger drift detected")

		publishEvent(ctx, lm.Publisher, kds.EventStockDrift, rec)
	}
	return drifted
}
