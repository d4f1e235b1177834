package platform

import (
	"encoding/json"
	"fmt"

	"github.com/etnz/gfsync"
	"github.com/shopspring/decimal"
)

// Degiro returns the platform of the Degiro broker.
func Degiro() Platform {
	return Platform{
		ID:         "degiro",
		Name:       "Degiro",
		TxnPageURL: "https://trader.degiro.nl/trader/#/transactions",
		MatchesURL: hostPath("trader.degiro.nl", "/reporting/secure/v4/transactions"),
		Parse:      parseDegiro,
	}
}

type degiroFile struct {
	Data []degiroTransaction `json:"data"`
}

type degiroTransaction struct {
	ID        json.Number     `json:"id"`
	ProductID json.Number     `json:"productId"`
	Date      lenientTime     `json:"date"`
	BuySell   string          `json:"buysell"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Fee       decimal.Decimal `json:"feeInBaseCurrency"`
}

func parseDegiro(body []byte, cfg gfsync.Configs) ([]gfsync.Transaction, gfsync.MissingReport, error) {
	var file degiroFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, nil, err
	}
	currency := cfg.Currency("Degiro")
	txns := make([]gfsync.Transaction, 0, len(file.Data))
	for _, d := range file.Data {
		var typ gfsync.ActivityType
		switch d.BuySell {
		case "B":
			typ = gfsync.Buy
		case "S":
			typ = gfsync.Sell
		default:
			return nil, nil, fmt.Errorf("transaction %s: unknown buysell %q", d.ID, d.BuySell)
		}
		txns = append(txns, gfsync.Transaction{
			ID:        d.ID.String(),
			Date:      d.Date.Time(),
			Type:      typ,
			Asset:     d.ProductID.String(),
			Quantity:  d.Quantity.Abs(),
			UnitPrice: d.Price,
			Fee:       d.Fee.Abs(),
			Currency:  currency,
		})
	}
	sortByDate(txns)

	var missing gfsync.MissingReport
	for i := range txns {
		cfg.Resolve("Degiro", &txns[i], &missing)
	}
	return txns, missing, nil
}
