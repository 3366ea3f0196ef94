package model

import "fmt"

// InvoiceNumberPrefix is the prefix of every allocated invoice number.
const InvoiceNumberPrefix = "PHR"

// InvoiceCounter is the single shared counter row backing sequential
// invoice numbers. It is only ever mutated inside a transaction.
type InvoiceCounter struct {
	LastInvoiceNumber int64
}

// FormatInvoiceNumber renders a counter value as PHR-000001.
func FormatInvoiceNumber(n int64) string {
	return fmt.Sprintf("%s-%06d", InvoiceNumberPrefix, n)
}

// FormatFallbackInvoiceNumber renders the availability-over-sequence
// fallback used when the transactional counter is unreachable. The TS
// marker keeps fallback numbers distinguishable in stored data.
func FormatFallbackInvoiceNumber(unixMillis int64) string {
	return fmt.Sprintf("%s-TS-%d", InvoiceNumberPrefix, unixMillis)
}
