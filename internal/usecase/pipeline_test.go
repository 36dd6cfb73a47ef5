package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"bookpilot/internal/category"
	"bookpilot/internal/domain"
	mock_usecase "bookpilot/internal/usecase/mocks"
)

func testOptions() Options {
	recordLayout := domain.RecordLayout{
		Date: 1, Reference: 2, Category: 3, Counterparty: 4,
		NetAmount: 5, VATRate: 6, PaidAmount: 7, PaymentDate: 8, PaymentMethod: 9,
	}
	return Options{
		FiscalYear:     2024,
		ShareCapital:   d("0"),
		DefaultVATRate: d("19"),
		OpeningBalance: d("0"),
		Tables:         Tables{Income: "Einnahmen", Expense: "Ausgaben", Bank: "Bank"},
		IncomeLayout:   recordLayout,
		ExpenseLayout:  recordLayout,
		BankLayout: domain.MovementLayout{
			Date: 1, BookingText: 2, Amount: 3, Balance: 4, Reference: 5,
			Category: 6, Annotation: 7, DebitAccount: 8, CreditAccount: 9,
		},
	}
}

func TestPipeline_FullPass(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_usecase.NewMockLedgerStore(ctrl)
	store.EXPECT().ReadRows(gomock.Any(), "Einnahmen").Return([][]string{
		{"Datum", "Nr", "Kategorie", "Kunde", "Netto", "USt", "Bezahlt", "Zahldatum", "Art"},
		{"15.03.2024", "RE-001", "Erlöse 19%", "Kunde GmbH", "1000", "19", "", "", ""},
	}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Ausgaben").Return([][]string{
		{"Datum", "Nr", "Kategorie", "Lieferant", "Netto", "USt", "Bezahlt", "Zahldatum", "Art"},
		{"01.03.2024", "A-100", "Miete", "Vermieter", "800", "0", "", "", ""},
	}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Bank").Return([][]string{
		{"Datum", "Text", "Betrag", "Saldo", "Referenz", "Kategorie", "Vermerk", "Soll", "Haben"},
		{"20.03.2024", "Gutschrift", "1190", "", "RE-001"},
		{"25.03.2024", "Miete März", "-800", "", "A-100"},
	}, nil)

	written := map[string][][]string{}
	capture := func(_ context.Context, table string, startRow int, rows [][]string) error {
		assert.Equal(t, 2, startRow)
		written[table] = rows
		return nil
	}
	store.EXPECT().WriteRows(gomock.Any(), "Bank", 2, gomock.Any()).DoAndReturn(capture)
	store.EXPECT().WriteRows(gomock.Any(), "Einnahmen", 2, gomock.Any()).DoAndReturn(capture)
	store.EXPECT().WriteRows(gomock.Any(), "Ausgaben", 2, gomock.Any()).DoAndReturn(capture)

	pipeline := NewPipeline(store, category.NewRegistry(), testOptions(), testLogger())
	report, err := pipeline.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 2, report.Summary.RecordsProcessed)
	assert.Equal(t, 2, report.Summary.MovementsProcessed)
	assert.Equal(t, 2, report.Summary.FullPayments)
	assert.Equal(t, 0, report.Summary.Unmatched)
	assert.Empty(t, report.UnmatchedMovements)
	assert.Empty(t, report.UnmappedCategories)

	assert.True(t, report.VAT.Months[2].VATPayable.Equal(d("190")))
	assert.True(t, report.ProfitLoss.Result.Equal(d("200")))

	// Bank holds 390, equity side only the 200 result: reported, not fatal.
	assert.True(t, report.BalanceSheet.TotalAssets.Equal(d("390")))
	assert.False(t, report.BalanceSheet.Balanced)
	assert.Len(t, report.Warnings, 1)

	bankRows := written["Bank"]
	assert.Len(t, bankRows, 3, "two movements plus the generated closing row")
	assert.Equal(t, "1190.00", bankRows[0][3])
	assert.Equal(t, "Erlöse 19%", bankRows[0][5])
	assert.Equal(t, "full payment ✓ payment date set", bankRows[0][6])
	assert.Equal(t, "1200", bankRows[0][7])
	assert.Equal(t, "8400", bankRows[0][8])
	assert.Equal(t, "390.00", bankRows[1][3])
	assert.Equal(t, "Miete", bankRows[1][5])
	assert.Equal(t, domain.ClosingBalanceText, bankRows[2][1])
	assert.Equal(t, "390.00", bankRows[2][3])
	assert.Equal(t, "25.03.2024", bankRows[2][0])

	incomeRows := written["Einnahmen"]
	assert.Len(t, incomeRows, 1)
	assert.Equal(t, "1190.00", incomeRows[0][6])
	assert.Equal(t, "20.03.2024", incomeRows[0][7])
	assert.Equal(t, "Bank", incomeRows[0][8])

	expenseRows := written["Ausgaben"]
	assert.Len(t, expenseRows, 1)
	assert.Equal(t, "800.00", expenseRows[0][6])
	assert.Equal(t, "25.03.2024", expenseRows[0][7])
}

func TestPipeline_StructuralErrorAborts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_usecase.NewMockLedgerStore(ctrl)
	store.EXPECT().ReadRows(gomock.Any(), "Einnahmen").Return(nil, errors.New("boom"))

	pipeline := NewPipeline(store, category.NewRegistry(), testOptions(), testLogger())
	report, err := pipeline.Run(context.Background())

	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrTableMissing)
}

func TestPipeline_HeaderlessTableIsStructural(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mock_usecase.NewMockLedgerStore(ctrl)
	store.EXPECT().ReadRows(gomock.Any(), "Einnahmen").Return([][]string{
		{"Datum", "Nr", "Kategorie", "Kunde", "Netto", "USt", "Bezahlt", "Zahldatum", "Art"},
	}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Ausgaben").Return([][]string{}, nil)

	pipeline := NewPipeline(store, category.NewRegistry(), testOptions(), testLogger())
	report, err := pipeline.Run(context.Background())

	assert.Nil(t, report)
	assert.ErrorIs(t, err, domain.ErrTableMissing)
}

func TestPipeline_BlankRowsAreSkipped(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	header := []string{"Datum", "Nr", "Kategorie", "Kunde", "Netto", "USt", "Bezahlt", "Zahldatum", "Art"}
	store := mock_usecase.NewMockLedgerStore(ctrl)
	store.EXPECT().ReadRows(gomock.Any(), "Einnahmen").Return([][]string{
		header,
		{"", "", "", "", "", "", "", "", ""},
		{"15.03.2024", "RE-001", "Erlöse 19%", "Kunde GmbH", "1000", "19", "", "", ""},
	}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Ausgaben").Return([][]string{header}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Bank").Return([][]string{
		{"Datum", "Text", "Betrag", "Saldo", "Referenz"},
	}, nil)
	store.EXPECT().WriteRows(gomock.Any(), gomock.Any(), 2, gomock.Any()).Return(nil).Times(3)

	pipeline := NewPipeline(store, category.NewRegistry(), testOptions(), testLogger())
	report, err := pipeline.Run(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 1, report.Summary.RecordsProcessed)
}

func TestPipeline_Cache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	header := []string{"Datum", "Nr", "Kategorie", "Kunde", "Netto", "USt", "Bezahlt", "Zahldatum", "Art"}
	store := mock_usecase.NewMockLedgerStore(ctrl)
	store.EXPECT().ReadRows(gomock.Any(), "Einnahmen").Return([][]string{header}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Ausgaben").Return([][]string{header}, nil)
	store.EXPECT().ReadRows(gomock.Any(), "Bank").Return([][]string{
		{"Datum", "Text", "Betrag", "Saldo", "Referenz"},
	}, nil)
	store.EXPECT().WriteRows(gomock.Any(), gomock.Any(), 2, gomock.Any()).Return(nil).Times(3)

	pipeline := NewPipeline(store, category.NewRegistry(), testOptions(), testLogger())

	assert.Nil(t, pipeline.CachedReport(), "nothing cached before the first pass")

	report, err := pipeline.Run(context.Background())
	assert.NoError(t, err)
	assert.Same(t, report, pipeline.CachedReport())

	pipeline.Clear()
	assert.Nil(t, pipeline.CachedReport())
}
