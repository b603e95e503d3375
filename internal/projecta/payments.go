package projecta

import (
	"context"
	"time"
)

// Payment is a project payment prepared for display.
type Payment struct {
	ID          string
	Description string
	Amount      string
	Currency    string
	Type        string
	Category    string
	PaymentDate string
}

// AddPayment describes a new payment in major units. Kind distinguishes the
// expense kind the payment covers.
type AddPayment struct {
	TypeID      string
	Amount      float64
	Currency    string
	PaymentDate time.Time
	Description string
	Kind        string
}

type paymentDTO struct {
	PaymentID   string   `json:"payment_id"`
	Amount      int64    `json:"amount"`
	Currency    string   `json:"currency"`
	Description string   `json:"description"`
	Type        namedDTO `json:"type"`
	Category    namedDTO `json:"category"`
	PaymentDate string   `json:"payment_date"`
}

type paymentListDTO struct {
	Payments []paymentDTO `json:"payments"`
	Total    int          `json:"total"`
}

type addPaymentDTO struct {
	TypeID      string `json:"type_id"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PaymentDate string `json:"payment_date"`
	Description string `json:"description"`
	Kind        string `json:"kind"`
}

// PaymentRepository maps /projects/{id}/payments.
type PaymentRepository struct {
	caller Caller
}

// NewPaymentRepository wires the repository to an API caller.
func NewPaymentRepository(caller Caller) *PaymentRepository {
	return &PaymentRepository{caller: caller}
}

// List returns one page of payments plus the collection total.
func (repository *PaymentRepository) List(ctx context.Context, projectID string, page Page) ([]Payment, int, error) {
	var response paymentListDTO
	if err := repository.caller.Get(ctx, collectionPath(projectID, "payments", page), &response); err != nil {
		return nil, 0, err
	}
	payments := make([]Payment, 0, len(response.Payments))
	for _, dto := range response.Payments {
		payments = append(payments, toPayment(dto))
	}
	return payments, response.Total, nil
}

// Add records a new payment.
func (repository *PaymentRepository) Add(ctx context.Context, projectID string, payment AddPayment) (Payment, error) {
	var response paymentDTO
	err := repository.caller.Post(ctx, "/projects/"+projectID+"/payments", addPaymentDTO{
		TypeID:      payment.TypeID,
		Amount:      ToMinorUnits(payment.Amount),
		Currency:    payment.Currency,
		PaymentDate: payment.PaymentDate.Format(time.RFC3339),
		Description: payment.Description,
		Kind:        payment.Kind,
	}, &response)
	if err != nil {
		return Payment{}, err
	}
	return toPayment(response), nil
}

// Remove deletes a payment.
func (repository *PaymentRepository) Remove(ctx context.Context, projectID string, paymentID string) error {
	return repository.caller.Delete(ctx, resourcePath(projectID, "payments", paymentID), nil)
}

func toPayment(dto paymentDTO) Payment {
	return Payment{
		ID:          dto.PaymentID,
		Description: dto.Description,
		Amount:      FormatMinorUnits(dto.Amount),
		Currency:    dto.Currency,
		Type:        dto.Type.Name,
		Category:    dto.Category.Name,
		PaymentDate: ToDateView(dto.PaymentDate),
	}
}
