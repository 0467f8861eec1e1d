// Package escpos builds ESC/POS command sequences for thermal receipt
// printers. Encoding is a pure function of the receipt data: the same
// input always yields the same bytes.
package escpos

import (
	"bytes"
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	esc = 0x1B
	gs  = 0x1D
	lf  = 0x0A
)

// 32-column paper; item names are padded to 20 columns so prices line up.
const (
	ruleWidth   = 32
	nameColumns = 20
	dateLayout  = "02/01/2006, 15.04"
)

// Item is one printed receipt line.
type Item struct {
	Name  string
	Qty   int32
	Price int64
}

// Receipt is the data printed on one customer receipt.
type Receipt struct {
	StoreName    string
	QueueNumber  int32
	CustomerName string
	Items        []Item
	Total        int64
	Date         time.Time
}

var idPrinter = message.NewPrinter(language.Indonesian)

// FormatRupiah renders an integer rupiah amount with id-ID thousands
// grouping: 15000 -> "Rp 15.000".
func FormatRupiah(amount int64) string {
	return idPrinter.Sprintf("Rp %d", amount)
}

// Encode assembles the full command sequence: initialize, large centered
// store name, date line, emphasized queue number, optional customer line,
// itemized list, bold total, footer, feed, and paper cut.
func (r Receipt) Encode() []byte {
	var buf bytes.Buffer

	// Initialize printer
	buf.Write([]byte{esc, 0x40})

	// Store name: centered, double width + height
	buf.Write([]byte{esc, 0x61, 0x01})
	buf.Write([]byte{esc, 0x21, 0x30})
	buf.WriteString(r.StoreName)
	buf.Write([]byte{lf, lf})

	// Back to normal font, left aligned
	buf.Write([]byte{esc, 0x21, 0x00})
	buf.Write([]byte{esc, 0x61, 0x00})

	buf.WriteString(r.Date.Format(dateLayout))
	buf.WriteByte(lf)

	writeRule(&buf)
	buf.WriteByte(lf)

	// Queue number: centered, double height, emphasized
	buf.Write([]byte{esc, 0x21, 0x20})
	buf.Write([]byte{esc, 0x61, 0x01})
	fmt.Fprintf(&buf, "ANTRIAN #%d", r.QueueNumber)
	buf.WriteByte(lf)
	buf.Write([]byte{esc, 0x21, 0x00})
	buf.Write([]byte{esc, 0x61, 0x00})

	if r.CustomerName != "" {
		buf.WriteString("Pelanggan: " + r.CustomerName)
		buf.WriteByte(lf)
	}

	writeRule(&buf)
	buf.Write([]byte{lf, lf})

	for _, item := range r.Items {
		buf.WriteString(padName(item.Name))
		buf.WriteString(FormatRupiah(item.Price))
		buf.WriteByte(lf)
	}

	buf.WriteByte(lf)
	writeRule(&buf)
	buf.WriteByte(lf)

	// Total: bold
	buf.Write([]byte{esc, 0x21, 0x10})
	buf.WriteString("TOTAL: " + FormatRupiah(r.Total))
	buf.WriteByte(lf)
	buf.Write([]byte{esc, 0x21, 0x00})

	buf.Write([]byte{lf, lf})
	buf.Write([]byte{esc, 0x61, 0x01})
	buf.WriteString("Terima Kasih")
	buf.WriteByte(lf)
	buf.WriteString("Selamat Menikmati")
	buf.Write([]byte{lf, lf, lf})

	// Full cut
	buf.Write([]byte{gs, 0x56, 0x00})

	return buf.Bytes()
}

func writeRule(buf *bytes.Buffer) {
	for i := 0; i < ruleWidth; i++ {
		buf.WriteByte('-')
	}
}

func padName(name string) string {
	for len(name) < nameColumns {
		name += " "
	}
	return name
}
