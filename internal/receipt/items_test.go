package receipt

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func ptr[T any](v T) *T {
	return &v
}

var _ = Describe("Item management", func() {
	var (
		db      *mockDB
		storage *mockStorage
		idGen   *mockIDGenerator
		timeSrc *mockTimeSource
		service *Service
		created time.Time
	)

	BeforeEach(func() {
		db = newMockDB()
		storage = newMockStorage()
		idGen = &mockIDGenerator{}
		timeSrc = &mockTimeSource{now: time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)}
		service = NewServiceWithDeps(db, &mockExtractor{}, &mockStructurer{}, storage, idGen, timeSrc)

		created = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)
		db.receipts["r1"] = &Receipt{
			ID:        "r1",
			StoreName: "Grocer",
			Date:      time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			Items: []Item{
				{ID: "bread", Name: "Bread", Price: 2.5, Quantity: 2},
				{ID: "eggs", Name: "Eggs", Price: 5, Quantity: 1},
			},
			TotalAmount: 10,
			CreatedAt:   created,
			UpdatedAt:   created,
		}
	})

	Describe("AddItem", func() {
		var (
			receiptID string
			in        ItemInput
			receipt   *Receipt
			err       error
		)

		BeforeEach(func() {
			receiptID = "r1"
			in = ItemInput{Name: "Milk", Price: ptr(3.5), Quantity: ptr(2)}
		})

		JustBeforeEach(func() {
			receipt, err = service.AddItem(receiptID, in)
		})

		It("should append the item with a new ID", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(receipt.Items).To(HaveLen(3))
			Expect(receipt.Items[2]).To(Equal(Item{ID: "id-1", Name: "Milk", Price: 3.5, Quantity: 2}))
		})

		It("should recompute the total from all items", func() {
			Expect(receipt.TotalAmount).To(Equal(17.0))
		})

		It("should persist the change and bump updatedAt", func() {
			Expect(db.saves).To(Equal(1))
			Expect(db.receipts["r1"].UpdatedAt).To(Equal(timeSrc.now))
			Expect(db.receipts["r1"].CreatedAt).To(Equal(created))
		})

		When("the stored total disagrees with the items", func() {
			BeforeEach(func() {
				db.receipts["r1"].TotalAmount = 99
			})

			It("should discard the old total", func() {
				Expect(receipt.TotalAmount).To(Equal(17.0))
			})
		})

		When("quantity is omitted", func() {
			BeforeEach(func() {
				in.Quantity = nil
			})

			It("should default it to 1", func() {
				Expect(receipt.Items[2].Quantity).To(Equal(1))
				Expect(receipt.TotalAmount).To(Equal(13.5))
			})
		})

		When("the input carries an ID", func() {
			BeforeEach(func() {
				in.ID = "client-chosen"
			})

			It("should assign a new one", func() {
				Expect(receipt.Items[2].ID).To(Equal("id-1"))
			})
		})

		When("the name is missing", func() {
			BeforeEach(func() {
				in.Name = ""
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
				Expect(db.saves).To(BeZero())
			})
		})

		When("the price is missing", func() {
			BeforeEach(func() {
				in.Price = nil
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
			})
		})

		When("the quantity is below 1", func() {
			BeforeEach(func() {
				in.Quantity = ptr(0)
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
			})
		})

		When("the receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "missing"
			})

			It("returns a not found error", func() {
				Expect(KindOf(err)).To(Equal(KindNotFound))
			})
		})

		When("saving fails", func() {
			BeforeEach(func() {
				db.saveErr = errors.New("disk full")
			})

			It("returns a persistence error", func() {
				Expect(KindOf(err)).To(Equal(KindPersistence))
			})
		})
	})

	Describe("UpdateItem", func() {
		var (
			itemID  string
			patch   ItemPatch
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			itemID = "bread"
			patch = ItemPatch{}
		})

		JustBeforeEach(func() {
			receipt, err = service.UpdateItem("r1", itemID, patch)
		})

		When("only the price is set", func() {
			BeforeEach(func() {
				patch.Price = ptr(3.0)
			})

			It("should change only the price", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Items[0]).To(Equal(Item{ID: "bread", Name: "Bread", Price: 3.0, Quantity: 2}))
			})

			It("should recompute the total", func() {
				Expect(receipt.TotalAmount).To(Equal(11.0))
			})
		})

		When("name and quantity are set", func() {
			BeforeEach(func() {
				patch.Name = ptr("  Rye Bread ")
				patch.Quantity = ptr(1)
			})

			It("should apply both", func() {
				Expect(receipt.Items[0].Name).To(Equal("Rye Bread"))
				Expect(receipt.Items[0].Quantity).To(Equal(1))
				Expect(receipt.TotalAmount).To(Equal(7.5))
			})
		})

		When("the item does not exist", func() {
			BeforeEach(func() {
				itemID = "missing"
				patch.Price = ptr(1.0)
			})

			It("returns a not found error", func() {
				Expect(KindOf(err)).To(Equal(KindNotFound))
				Expect(db.saves).To(BeZero())
			})
		})

		When("the quantity is invalid", func() {
			BeforeEach(func() {
				patch.Quantity = ptr(-3)
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
			})
		})
	})

	Describe("DeleteItem", func() {
		var (
			itemID  string
			receipt *Receipt
			err     error
		)

		JustBeforeEach(func() {
			receipt, err = service.DeleteItem("r1", itemID)
		})

		When("the item exists", func() {
			BeforeEach(func() {
				itemID = "eggs"
			})

			It("should remove it and recompute the total", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Items).To(HaveLen(1))
				Expect(receipt.Items[0].ID).To(Equal("bread"))
				Expect(receipt.TotalAmount).To(Equal(5.0))
			})
		})

		When("the item does not exist", func() {
			BeforeEach(func() {
				itemID = "missing"
			})

			It("returns a not found error", func() {
				Expect(KindOf(err)).To(Equal(KindNotFound))
				Expect(db.saves).To(BeZero())
			})
		})
	})

	Describe("UpdateReceipt", func() {
		var (
			receiptID string
			update    ReceiptUpdate
			receipt   *Receipt
			err       error
		)

		BeforeEach(func() {
			receiptID = "r1"
			update = ReceiptUpdate{}
		})

		JustBeforeEach(func() {
			receipt, err = service.UpdateReceipt(receiptID, update)
		})

		When("only the store name is set", func() {
			BeforeEach(func() {
				update.StoreName = ptr("Corner Grocer")
			})

			It("should leave everything else alone", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.StoreName).To(Equal("Corner Grocer"))
				Expect(receipt.Items).To(HaveLen(2))
				Expect(receipt.TotalAmount).To(Equal(10.0))
				Expect(receipt.UpdatedAt).To(Equal(timeSrc.now))
			})
		})

		When("items are replaced", func() {
			BeforeEach(func() {
				update.Items = &[]ItemInput{
					{ID: "bread", Name: "Bread", Price: ptr(2.5), Quantity: ptr(2)},
					{Name: "Jam", Price: ptr(4.0)},
				}
			})

			It("should keep existing IDs and assign new ones", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.Items).To(Equal([]Item{
					{ID: "bread", Name: "Bread", Price: 2.5, Quantity: 2},
					{ID: "id-1", Name: "Jam", Price: 4.0, Quantity: 1},
				}))
			})

			It("should not recompute the total", func() {
				Expect(receipt.TotalAmount).To(Equal(10.0))
			})
		})

		When("the total is set", func() {
			BeforeEach(func() {
				update.TotalAmount = ptr(12.34)
			})

			It("should take it as given", func() {
				Expect(receipt.TotalAmount).To(Equal(12.34))
			})
		})

		When("the date is set", func() {
			BeforeEach(func() {
				update.Date = ptr("2024-05-31")
			})

			It("should parse it", func() {
				Expect(receipt.Date).To(Equal(time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)))
			})
		})

		When("the date cannot be read", func() {
			BeforeEach(func() {
				update.Date = ptr("last tuesday")
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
				Expect(db.saves).To(BeZero())
			})
		})

		When("two replacement items share an ID", func() {
			BeforeEach(func() {
				update.Items = &[]ItemInput{
					{ID: "bread", Name: "Bread", Price: ptr(2.5)},
					{ID: "bread", Name: "Rolls", Price: ptr(1.0)},
				}
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
				Expect(db.saves).To(BeZero())
				Expect(db.receipts["r1"].Items).To(HaveLen(2))
			})
		})

		When("a replacement item has no price", func() {
			BeforeEach(func() {
				update.Items = &[]ItemInput{{Name: "Jam"}}
			})

			It("returns an invalid input error", func() {
				Expect(KindOf(err)).To(Equal(KindInvalidInput))
			})
		})

		When("the receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "missing"
				update.StoreName = ptr("x")
			})

			It("returns a not found error", func() {
				Expect(KindOf(err)).To(Equal(KindNotFound))
			})
		})
	})
})
