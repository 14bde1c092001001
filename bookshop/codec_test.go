package bookshop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRecords(t *testing.T) {
	b := dune()
	b.DateAdded = testNow
	assert.Equal(t, "B1|Dune|Herbert|SciFi|12.5|5|Fri Mar 14 10:30:00 2025", EncodeBook(b))

	s := Sale{
		SaleID: "S1", BookID: "B1", BookTitle: "Dune", Quantity: 3,
		TotalAmount: price("37.50"), Date: testNow, CustomerName: "Alice",
	}
	assert.Equal(t, "S1|B1|Dune|3|37.5|Fri Mar 14 10:30:00 2025|Alice", EncodeSale(s))

	assert.Equal(t, "staff|staff123|staff", EncodeUser(User{Username: "staff", Secret: "staff123", Role: RoleStaff}))
}

func TestDecodeBook(t *testing.T) {
	b, err := DecodeBook("B7|The Hobbit|Tolkien|Fantasy|8.99|12|Sun Mar  2 09:05:01 2025")
	require.NoError(t, err)

	assert.Equal(t, "B7", b.ID)
	assert.Equal(t, "The Hobbit", b.Title)
	assert.Equal(t, "Tolkien", b.Author)
	assert.Equal(t, "Fantasy", b.Category)
	assert.Equal(t, "8.99", b.Price.String())
	assert.Equal(t, 12, b.Quantity)
	assert.True(t, b.DateAdded.Equal(time.Date(2025, time.March, 2, 9, 5, 1, 0, time.Local)))
}

func TestDecodeSaleKeepsDelimiterInLastField(t *testing.T) {
	s, err := DecodeSale("S1|B1|Dune|3|37.5|Fri Mar 14 10:30:00 2025|Alice|Smith")
	require.NoError(t, err)
	assert.Equal(t, "Alice|Smith", s.CustomerName)
	assert.Equal(t, 3, s.Quantity)
	assert.Equal(t, "37.50", s.TotalAmount.StringFixed(2))
}

func TestDecodeUser(t *testing.T) {
	u, err := DecodeUser("alice|wonder|manager")
	require.NoError(t, err)
	assert.Equal(t, User{Username: "alice", Secret: "wonder", Role: RoleManager}, u)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name   string
		decode func(string) error
		line   string
		msg    string
	}{
		{"book too few fields", decodeBookErr, "B1|Dune|Herbert", "want 7 fields, got 3"},
		{"book bad price", decodeBookErr, "B1|Dune|Herbert|SciFi|cheap|5|Fri Mar 14 10:30:00 2025", "price"},
		{"book bad quantity", decodeBookErr, "B1|Dune|Herbert|SciFi|12.5|five|Fri Mar 14 10:30:00 2025", "quantity"},
		{"book bad date", decodeBookErr, "B1|Dune|Herbert|SciFi|12.5|5|yesterday", "date added"},
		{"sale too few fields", decodeSaleErr, "S1|B1|Dune|3|37.5|Fri Mar 14 10:30:00 2025", "want 7 fields, got 6"},
		{"sale bad total", decodeSaleErr, "S1|B1|Dune|3|lots|Fri Mar 14 10:30:00 2025|Alice", "total"},
		{"user too few fields", decodeUserErr, "alice|wonder", "want 3 fields, got 2"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.decode(tc.line)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func decodeBookErr(line string) error { _, err := DecodeBook(line); return err }
func decodeSaleErr(line string) error { _, err := DecodeSale(line); return err }
func decodeUserErr(line string) error { _, err := DecodeUser(line); return err }

func TestRecordRoundTrip(t *testing.T) {
	b := foundation()
	b.DateAdded = testNow
	gotBook, err := DecodeBook(EncodeBook(b))
	require.NoError(t, err)
	assertBooksEqual(t, []Book{b}, []Book{gotBook})

	s := Sale{SaleID: "S9", BookID: "B2", BookTitle: "Foundation", Quantity: 2, TotalAmount: price("19.98"), Date: testNow, CustomerName: "Bob"}
	gotSale, err := DecodeSale(EncodeSale(s))
	require.NoError(t, err)
	assertSalesEqual(t, []Sale{s}, []Sale{gotSale})
}
