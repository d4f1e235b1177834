package platform

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/etnz/gfsync"
	"github.com/shopspring/decimal"
)

// Amundi returns the platform of Amundi employee savings.
//
// Operations are listed by
// https://epargnant.amundi-ee.com/api/individu/operations?metier=ESR&flagFiltrageWebSalarie=true&offset=0&limit=100
// and the "metier=ASSU" variant for insurance plans.
func Amundi() Platform {
	return Platform{
		ID:         "amundi",
		Name:       "Amundi",
		TxnPageURL: "https://epargnant.amundi-ee.com/#/operations",
		MatchesURL: hostPath("epargnant.amundi-ee.com", "/api/individu/operations"),
		Parse:      parseAmundi,
	}
}

type amundiFile struct {
	Operations []amundiOperation `json:"operationsIndividuelles"`
}

// amundiOperation is a high-level operation made of instructions.
type amundiOperation struct {
	Memo         string              `json:"libelleCommunication"`
	ID           string              `json:"idOpeInd"`
	Type         string              `json:"type"`
	Instructions []amundiInstruction `json:"instructions"`
}

// amundiInstruction is a leg of an operation, like a specific buy or sell.
type amundiInstruction struct {
	Type      string          `json:"type"`                // e.g., "ARB", "RACH_TIT", "SOUS_MTT"
	ID        string          `json:"idInstruction"`       //
	Status    string          `json:"statut"`              // e.g: "ANNULE"
	Indicator string          `json:"indicateurArbitrage"` // "Source" or "Cible"
	DateVL    lenientTime     `json:"dateVlReel"`
	Price     decimal.Decimal `json:"vlReel"`
	Quantity  decimal.Decimal `json:"nombreDeParts"`
	FundName  string          `json:"nomFonds"`
	Plan      string          `json:"libelleDispositifMetier"`
}

func parseAmundi(body []byte, cfg gfsync.Configs) ([]gfsync.Transaction, gfsync.MissingReport, error) {
	var file amundiFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, nil, err
	}
	// operations come newest first.
	ops := slices.Clone(file.Operations)
	slices.Reverse(ops)

	// there might be repetitions in the operations (due to paging in API)
	done := make(map[string]struct{})
	var txns []gfsync.Transaction
	for _, op := range ops {
		if _, ok := done[op.ID]; ok {
			continue
		}
		done[op.ID] = struct{}{}
		txns = append(txns, amundiTransactions(op)...)
	}
	sortByDate(txns)

	var missing gfsync.MissingReport
	for i := range txns {
		cfg.Resolve("Amundi", &txns[i], &missing)
	}
	return txns, missing, nil
}

// amundiTransactions converts an operation into transactions.
func amundiTransactions(op amundiOperation) []gfsync.Transaction {
	var txns []gfsync.Transaction
	add := func(inst amundiInstruction, typ gfsync.ActivityType) {
		if inst.DateVL.Time().IsZero() || inst.Price.IsZero() {
			log.Info("skip instruction not valued yet", "operation", op.ID, "instruction", inst.ID)
			return
		}
		txns = append(txns, gfsync.Transaction{
			ID:        inst.ID,
			Date:      inst.DateVL.Time(),
			Type:      typ,
			Account:   inst.Plan,
			Asset:     inst.FundName,
			Quantity:  inst.Quantity.Abs(),
			UnitPrice: inst.Price,
			Currency:  "EUR",
			Memo:      strings.TrimSpace(op.Memo),
		})
	}

	switch op.Type {
	case "ARB", "RACH_HE", "SOUS", "TRSF":
	default:
		log.Warn("skip unhandled operation type", "operation", op.ID, "type", op.Type)
		return nil
	}

	for _, inst := range op.Instructions {
		if inst.Status == "ANNULE" {
			log.Debug("skip cancelled instruction", "operation", op.ID, "instruction", inst.ID)
			continue
		}
		switch op.Type {
		case "ARB": // Arbitrage, Réallocation
			switch inst.Indicator {
			case "Source":
				add(inst, gfsync.Sell)
			case "Cible":
				add(inst, gfsync.Buy)
			}
		case "RACH_HE": // Remboursement, Frais de tenue de compte
			if inst.Type == "RACH_TIT" {
				add(inst, gfsync.Sell)
			}
		case "SOUS": // Versement, Participation, Intéressement
			if inst.Type == "SOUS_MTT" {
				add(inst, gfsync.Buy)
			}
		case "TRSF": // Transfert
			if inst.Indicator == "Cible" {
				add(inst, gfsync.Buy)
			}
		}
	}
	return txns
}
