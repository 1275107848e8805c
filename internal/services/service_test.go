package services

import (
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kairostudio/backoffice/internal/db"
	"github.com/kairostudio/backoffice/internal/models"
)

// testDB opens a per-test in-memory sqlite database with the full schema.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, m := range db.AllModels() {
		if err := conn.AutoMigrate(m); err != nil {
			t.Fatalf("automigrate %T: %v", m, err)
		}
	}
	return conn
}

// seedCompany creates a company with one client and returns both ids.
func seedCompany(t *testing.T, conn *gorm.DB) (uint, uint) {
	t.Helper()
	company := models.Company{Name: "Atelier Teranga", City: "Dakar", Country: "Sénégal"}
	if err := conn.Create(&company).Error; err != nil {
		t.Fatalf("seed company: %v", err)
	}
	client := models.Client{CompanyID: company.ID, Name: "Hôtel Baobab", Status: models.ClientStatusActive}
	if err := conn.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return company.ID, client.ID
}

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func sampleQuote(companyID, clientID uint) *models.Quote {
	return &models.Quote{
		CompanyID: companyID,
		ClientID:  clientID,
		Sections: []models.QuoteSection{
			{
				Title:    "Gros œuvre",
				Position: 0,
				Lines: []models.QuoteLine{
					{Designation: "Cloison placo", Quantity: d("10"), Unit: "m²", UnitPrice: d("100"), VATRate: d("10"), Position: 0},
				},
			},
			{
				Title:    "Finitions",
				Position: 1,
				Lines: []models.QuoteLine{
					{Designation: "Peinture", Quantity: d("1"), UnitPrice: d("500"), VATRate: d("20"), Position: 0},
				},
			},
		},
		DiscountPercent: d("10"),
	}
}
