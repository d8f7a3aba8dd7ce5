package receipt

import (
	"bytes"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("Reports", func() {
	var (
		db      *mockDB
		service *Service
	)

	BeforeEach(func() {
		db = newMockDB()
		service = NewServiceWithDeps(db, &mockExtractor{}, &mockStructurer{}, newMockStorage(), &mockIDGenerator{}, &mockTimeSource{})

		db.receipts["jan"] = &Receipt{
			ID: "jan", StoreName: "Grocer", TotalAmount: 10,
			Date:      time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC),
			CreatedAt: time.Date(2024, 1, 20, 9, 0, 0, 0, time.UTC),
			Items:     []Item{{ID: "i1", Name: "Bread", Price: 2.5, Quantity: 4}},
		}
		db.receipts["mar-1"] = &Receipt{
			ID: "mar-1", StoreName: "Cafe X", TotalAmount: 5.5,
			Date:      time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			CreatedAt: time.Date(2024, 3, 2, 9, 0, 0, 0, time.UTC),
			Items: []Item{
				{ID: "i2", Name: "Coffee", Price: 3.5, Quantity: 1},
				{ID: "i3", Name: "Bagel", Price: 2, Quantity: 1},
			},
		}
		db.receipts["mar-2"] = &Receipt{
			ID: "mar-2", StoreName: "Cafe X", TotalAmount: 4.5,
			Date:      time.Date(2024, 3, 28, 0, 0, 0, 0, time.UTC),
			CreatedAt: time.Date(2024, 3, 28, 9, 0, 0, 0, time.UTC),
			Items:     []Item{{ID: "i4", Name: "Tea", Price: 4.5, Quantity: 1}},
		}
	})

	Describe("MonthlySpend", func() {
		var (
			summary *SpendSummary
			err     error
		)

		JustBeforeEach(func() {
			summary, err = service.MonthlySpend()
		})

		It("should group totals by receipt month, oldest first", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Months).To(Equal([]MonthlyTotal{
				{Month: "2024-01", Label: "Jan 2024", Amount: 10, ReceiptCount: 1},
				{Month: "2024-03", Label: "Mar 2024", Amount: 10, ReceiptCount: 2},
			}))
			Expect(summary.TotalSpent).To(Equal(20.0))
		})

		When("there are no receipts", func() {
			BeforeEach(func() {
				db.receipts = map[string]*Receipt{}
			})

			It("returns an empty summary", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(summary.Months).NotTo(BeNil())
				Expect(summary.Months).To(BeEmpty())
				Expect(summary.TotalSpent).To(BeZero())
			})
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("bolt closed")
			})

			It("returns a persistence error", func() {
				Expect(KindOf(err)).To(Equal(KindPersistence))
			})
		})
	})

	Describe("ExportXLSX", func() {
		var (
			data []byte
			err  error
			book *excelize.File
		)

		JustBeforeEach(func() {
			data, err = service.ExportXLSX()
			if err == nil {
				var openErr error
				book, openErr = excelize.OpenReader(bytes.NewReader(data))
				Expect(openErr).NotTo(HaveOccurred())
			}
		})

		AfterEach(func() {
			if book != nil {
				book.Close()
				book = nil
			}
		})

		It("should have a receipts sheet and an items sheet", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(book.GetSheetList()).To(Equal([]string{"Receipts", "Items"}))
		})

		It("should list receipts newest first under a header", func() {
			rows, rowsErr := book.GetRows("Receipts")
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(4))
			Expect(rows[0]).To(Equal([]string{"Date", "Store", "Items", "Total", "Image", "Receipt ID"}))
			Expect(rows[1][0]).To(Equal("2024-03-28"))
			Expect(rows[1][5]).To(Equal("mar-2"))
			Expect(rows[3][5]).To(Equal("jan"))
		})

		It("should write one row per item", func() {
			rows, rowsErr := book.GetRows("Items")
			Expect(rowsErr).NotTo(HaveOccurred())
			Expect(rows).To(HaveLen(5))
			Expect(rows[0][3]).To(Equal("Item"))

			var names []string
			for _, row := range rows[1:] {
				names = append(names, row[3])
			}
			Expect(names).To(ConsistOf("Bread", "Coffee", "Bagel", "Tea"))
		})

		When("the database fails", func() {
			BeforeEach(func() {
				db.listErr = errors.New("bolt closed")
			})

			It("returns a persistence error", func() {
				Expect(KindOf(err)).To(Equal(KindPersistence))
			})
		})
	})
})
