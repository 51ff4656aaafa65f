package dto

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/iho/gobank/internal/domain"
)

func TestAccountFromDomain(t *testing.T) {
	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	resp := AccountFromDomain(&domain.Account{
		ID:        "acc-1",
		Name:      "Main",
		Type:      domain.AccountTypeChecking,
		Number:    "412345678901",
		Currency:  "USD",
		Balance:   123456,
		Status:    domain.AccountStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	})

	if resp.Balance.Amount != "1234.56" || resp.Balance.MinorUnits != 123456 || resp.Balance.Display != "$1,234.56" {
		t.Fatalf("unexpected balance %+v", resp.Balance)
	}
	if !strings.HasSuffix(resp.MaskedNumber, "8901") || strings.Contains(resp.MaskedNumber, "412345") {
		t.Fatalf("unexpected masked number %q", resp.MaskedNumber)
	}
}

func TestTransactionFromDomainDirection(t *testing.T) {
	debit := TransactionFromDomain(&domain.Transaction{ID: "t1", Amount: -500})
	credit := TransactionFromDomain(&domain.Transaction{ID: "t2", Amount: 500})

	if debit.Direction != "debit" || debit.Amount.Amount != "-5.00" {
		t.Fatalf("unexpected debit %+v", debit)
	}
	if credit.Direction != "credit" || credit.Amount.Display != "$5.00" {
		t.Fatalf("unexpected credit %+v", credit)
	}
}

func TestLinkedItemOmitsAccessToken(t *testing.T) {
	data, err := json.Marshal(LinkedItemFromDomain(&domain.LinkedItem{ID: "li-1", ItemID: "item-1", AccessToken: "secret-token"}))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-token") {
		t.Fatalf("access token leaked: %s", data)
	}
}
