package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/transafrica/fleetops_backend/config"
	"github.com/transafrica/fleetops_backend/models"
)

// stock-reconcile audits the ledger invariant: for every inventory item,
// seed_quantity + sum of movement deltas must equal the current quantity.
// With -apply, drifted items are repaired to the movement-derived truth.
func main() {
	apply := flag.Bool("apply", false, "repair drifted quantities instead of only reporting them")
	orgId := flag.String("org", "", "limit the audit to one org")
	flag.Parse()

	logger := config.GetLogger()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	ctx := context.Background()

	var items []*models.InventoryItem
	dbCtx := db.WithContext(ctx)
	if *orgId != "" {
		dbCtx = dbCtx.Where("org_id = ?", *orgId)
	}
	if err := dbCtx.Find(&items).Error; err != nil {
		logger.WithFields(logrus.Fields{"field": "inventory_items"}).Error(err.Error())
		os.Exit(1)
	}

	drifted := 0
	for _, item := range items {
		var deltaSum int64
		err := db.WithContext(ctx).Model(&models.StockMovement{}).
			Where("org_id = ? AND item_id = ?", item.OrgId, item.ID).
			Select("COALESCE(SUM(delta), 0)").Scan(&deltaSum).Error
		if err != nil {
			logger.WithFields(logrus.Fields{
				"field":   "stock_movements",
				"item_id": item.ID,
			}).Error(err.Error())
			os.Exit(1)
		}

		expected := item.SeedQuantity + int(deltaSum)
		if expected == item.Quantity {
			continue
		}

		drifted++
		logger.WithFields(logrus.Fields{
			"org_id":   item.OrgId,
			"item_id":  item.ID,
			"sku":      item.Sku,
			"stored":   item.Quantity,
			"expected": expected,
		}).Warn("ledger drift detected")

		if *apply {
			if err := db.WithContext(ctx).Model(&models.InventoryItem{}).
				Where("org_id = ? AND id = ?", item.OrgId, item.ID).
				Update("quantity", expected).Error; err != nil {
				logger.WithFields(logrus.Fields{
					"field":   "inventory_items",
					"item_id": item.ID,
				}).Error(err.Error())
				os.Exit(1)
			}
			logger.WithFields(logrus.Fields{
				"item_id":  item.ID,
				"quantity": expected,
			}).Info("quantity repaired")
		}
	}

	fmt.Printf("checked %d item(s), %d drifted\n", len(items), drifted)
	if drifted > 0 && !*apply {
		os.Exit(2)
	}
}
