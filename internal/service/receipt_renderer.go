package service

import (
	"bytes"
	"fmt"

	"medlink-booking/internal/domain/entity"

	"github.com/jung-kurt/gofpdf"
)

const receiptTimeLayout = "2006-01-02 15:04 MST"

// RenderPaymentReceipt builds a one page A4 PDF receipt for a payment.
func RenderPaymentReceipt(payment *entity.Payment, appointment *entity.Appointment) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 70, 140)
	pdf.CellFormat(0, 10, "MedLink Hospital", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(0, 0, 0)
	title := "Payment Receipt"
	if payment.Status == entity.PaymentStatusFailed {
		title = "Payment Declined"
	}
	pdf.CellFormat(0, 10, title, "1", 1, "C", false, 0, "")
	pdf.Ln(2)

	addReceiptRow(pdf, "Payment ID", payment.ID.String())
	addReceiptRow(pdf, "Reference", payment.GatewayReference)
	addReceiptRow(pdf, "Status", string(payment.Status))
	addReceiptRow(pdf, "Method", payment.Method)
	addReceiptRow(pdf, "Date", payment.TransactionDate.Format(receiptTimeLayout))
	addReceiptRow(pdf, "Patient", appointment.PatientName)
	addReceiptRow(pdf, "Doctor", fmt.Sprintf("%s (%s)", appointment.DoctorName, appointment.Specialty))
	addReceiptRow(pdf, "Appointment", fmt.Sprintf("%s %s", appointment.AppointmentDate, appointment.SlotTime))

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 10, "Amount: "+payment.Amount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.SetFont("Arial", "", 9)
	pdf.SetY(pdf.GetY() + 12)
	pdf.CellFormat(0, 10, "This is a computer generated receipt", "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render receipt: %w", err)
	}
	return buf.Bytes(), nil
}

func addReceiptRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.CellFormat(45, 9, label, "1", 0, "", true, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 9, value, "1", 1, "", false, 0, "")
}
