package receipt

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/expense-tracker/internal/scanning"
)

var _ = Describe("Assemble", func() {
	var (
		parsed  *scanning.ParsedExtraction
		now     time.Time
		receipt *Receipt
	)

	BeforeEach(func() {
		now = time.Date(2024, 6, 10, 15, 30, 0, 0, time.UTC)
		parsed = &scanning.ParsedExtraction{
			StoreName: "Cafe X",
			Date:      "2024-05-01",
			Items: []scanning.ParsedItem{
				{Name: "Coffee", Price: 3.5, Quantity: float64(2)},
			},
			TotalAmount: 7,
		}
	})

	JustBeforeEach(func() {
		receipt = Assemble(parsed, "r1", "r1_receipt.jpg", "image/jpeg", &mockIDGenerator{}, now)
	})

	It("should copy the extraction onto the receipt", func() {
		Expect(receipt.ID).To(Equal("r1"))
		Expect(receipt.StoreName).To(Equal("Cafe X"))
		Expect(receipt.Date).To(Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)))
		Expect(receipt.TotalAmount).To(Equal(7.0))
		Expect(receipt.Items).To(Equal([]Item{{ID: "id-1", Name: "Coffee", Price: 3.5, Quantity: 2}}))
	})

	It("should point the image URL at the stored file", func() {
		Expect(receipt.ImageURL).To(Equal("/uploads/r1_receipt.jpg"))
		Expect(receipt.Filename).To(Equal("r1_receipt.jpg"))
		Expect(receipt.ContentType).To(Equal("image/jpeg"))
	})

	It("should stamp both timestamps", func() {
		Expect(receipt.CreatedAt).To(Equal(now))
		Expect(receipt.UpdatedAt).To(Equal(now))
	})

	When("item fields need coercion", func() {
		BeforeEach(func() {
			parsed.Items = []scanning.ParsedItem{
				{Name: " Tea ", Price: "$4.50", Quantity: "3 pcs"},
				{Name: "Gift", Price: "n/a", Quantity: "lots"},
				{Name: "Napkin", Price: 0.1, Quantity: float64(-2)},
			}
		})

		It("should coerce best effort", func() {
			Expect(receipt.Items).To(Equal([]Item{
				{ID: "id-1", Name: "Tea", Price: 4.5, Quantity: 3},
				{ID: "id-2", Name: "Gift", Price: 0, Quantity: 1},
				{ID: "id-3", Name: "Napkin", Price: 0.1, Quantity: 1},
			}))
		})

		It("should not touch the total", func() {
			Expect(receipt.TotalAmount).To(Equal(7.0))
		})
	})

	When("the date is not a plain date", func() {
		BeforeEach(func() {
			parsed.Date = "sometime"
		})

		It("should use today", func() {
			Expect(receipt.Date).To(Equal(time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)))
		})
	})
})
